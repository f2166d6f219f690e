package handlers

import (
	"context"

	"github.com/gin-gonic/gin"

	"portfolio/internal/core/entity"
	"portfolio/internal/core/id"
	"portfolio/internal/domain/audit"
	"portfolio/internal/domain/lifecycle"
	"portfolio/internal/infrastructure/cache"
	"portfolio/internal/infrastructure/http/v1/dto"
)

// LifecycleService is the part of lifecycle.Manager the handlers use.
type LifecycleService[T entity.Deletable] interface {
	Create(ctx context.Context, e T, actorID string) (T, error)
	Get(ctx context.Context, entityID id.ID) (T, error)
	List(ctx context.Context, filter lifecycle.ListFilter) ([]T, error)
	SoftDelete(ctx context.Context, entityID id.ID, actorID string) (T, error)
	Restore(ctx context.Context, entityID id.ID, actorID string) (T, error)
	PermanentDelete(ctx context.Context, entityID id.ID, actorID string) error
	History(ctx context.Context, entityID id.ID) ([]audit.Entry, error)
}

// LifecycleHandler serves one record type. R is the response DTO.
type LifecycleHandler[T entity.Deletable, R any] struct {
	*BaseHandler
	service  LifecycleService[T]
	sessions *cache.Sessions[T]

	// decode builds a new record from the request body of Create
	decode func(c *gin.Context, actorID string) (T, error)
	present func(T) R
}

// NewLifecycleHandler creates a handler. decode binds the create body.
func NewLifecycleHandler[T entity.Deletable, R any](
	base *BaseHandler,
	service LifecycleService[T],
	sessions *cache.Sessions[T],
	decode func(c *gin.Context, actorID string) (T, error),
	present func(T) R,
) *LifecycleHandler[T, R] {
	return &LifecycleHandler[T, R]{
		BaseHandler: base,
		service:     service,
		sessions:    sessions,
		decode:      decode,
		present:     present,
	}
}

// List re-reads the store and replaces the session's cached list.
// GET /
func (h *LifecycleHandler[T, R]) List(c *gin.Context) {
	var q dto.ListQuery
	if !h.BindQuery(c, &q) {
		return
	}

	items, err := h.service.List(c.Request.Context(), q.ToFilter())
	if err != nil {
		h.Error(c, err)
		return
	}

	if actor := h.GetUserID(c); actor != "" {
		h.sessions.For(actor).Replace(items)
	}

	h.OK(c, dto.ListResponse[R]{Items: h.presentAll(items), Count: len(items)})
}

// Get returns a record and selects it in the session cache.
// GET /:id
func (h *LifecycleHandler[T, R]) Get(c *gin.Context) {
	entityID, ok := h.ParseID(c)
	if !ok {
		return
	}

	item, err := h.service.Get(c.Request.Context(), entityID)
	if err != nil {
		h.Error(c, err)
		return
	}

	if actor := h.GetUserID(c); actor != "" {
		h.sessions.For(actor).Select(item)
	}

	h.OK(c, h.present(item))
}

// Create inserts a new active record.
// POST /
func (h *LifecycleHandler[T, R]) Create(c *gin.Context) {
	actor := h.GetUserID(c)
	item, err := h.decode(c, actor)
	if err != nil {
		h.Error(c, err)
		return
	}

	created, err := h.service.Create(c.Request.Context(), item, actor)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.Created(c, h.present(created))
}

// SoftDelete moves a record to the trash.
// DELETE /:id
func (h *LifecycleHandler[T, R]) SoftDelete(c *gin.Context) {
	entityID, ok := h.ParseID(c)
	if !ok {
		return
	}

	updated, err := h.service.SoftDelete(c.Request.Context(), entityID, h.GetUserID(c))
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, h.present(updated))
}

// Restore brings a record back from the trash.
// POST /:id/restore
func (h *LifecycleHandler[T, R]) Restore(c *gin.Context) {
	entityID, ok := h.ParseID(c)
	if !ok {
		return
	}

	updated, err := h.service.Restore(c.Request.Context(), entityID, h.GetUserID(c))
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, h.present(updated))
}

// PermanentDelete removes a record for good.
// DELETE /:id/permanent
func (h *LifecycleHandler[T, R]) PermanentDelete(c *gin.Context) {
	entityID, ok := h.ParseID(c)
	if !ok {
		return
	}

	if err := h.service.PermanentDelete(c.Request.Context(), entityID, h.GetUserID(c)); err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.IDResponse{ID: entityID.String()})
}

// History returns the audit trail, newest first.
// GET /:id/history
func (h *LifecycleHandler[T, R]) History(c *gin.Context) {
	entityID, ok := h.ParseID(c)
	if !ok {
		return
	}

	entries, err := h.service.History(c.Request.Context(), entityID)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.FromAuditEntries(entries))
}

// Session returns the caller's cached view.
// GET /session/<entities>
func (h *LifecycleHandler[T, R]) Session(c *gin.Context) {
	view := h.sessions.For(h.GetUserID(c))

	resp := dto.SessionResponse[R]{Items: h.presentAll(view.Items())}
	if selected, ok := view.Selected(); ok {
		r := h.present(selected)
		resp.Selected = &r
	}
	h.OK(c, resp)
}

func (h *LifecycleHandler[T, R]) presentAll(items []T) []R {
	out := make([]R, 0, len(items))
	for _, item := range items {
		out = append(out, h.present(item))
	}
	return out
}
