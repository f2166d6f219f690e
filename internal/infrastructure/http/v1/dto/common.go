// Package dto provides Data Transfer Objects for API requests/responses.
package dto

import (
	"time"

	"portfolio/internal/core/entity"
	"portfolio/internal/domain/audit"
	"portfolio/internal/domain/lifecycle"
	"portfolio/internal/infrastructure/notify"
)

// --- Envelope ---

// Response wraps a payload with the notifications produced while handling
// the request, so the UI can render toasts without a second round-trip.
type Response struct {
	Data          any            `json:"data,omitempty"`
	Notifications []Notification `json:"notifications,omitempty"`
}

// Notification is a toast.
type Notification struct {
	Level   string    `json:"level"`
	Message string    `json:"message"`
	At      time.Time `json:"at"`
}

// FromMessages converts collected messages.
func FromMessages(msgs []notify.Message) []Notification {
	if len(msgs) == 0 {
		return nil
	}
	out := make([]Notification, len(msgs))
	for i, m := range msgs {
		out[i] = Notification{Level: string(m.Level), Message: m.Text, At: m.At}
	}
	return out
}

// IDResponse is returned by create endpoints.
type IDResponse struct {
	ID string `json:"id"`
}

// --- List ---

// ListQuery are the query parameters of list endpoints.
type ListQuery struct {
	IncludeDeleted bool   `form:"includeDeleted"`
	OnlyDeleted    bool   `form:"onlyDeleted"`
	Search         string `form:"search"`
	Limit          int    `form:"limit" binding:"min=0,max=500"`
	Offset         int    `form:"offset" binding:"min=0"`
}

// ToFilter converts the query to a store filter.
func (q ListQuery) ToFilter() lifecycle.ListFilter {
	return lifecycle.ListFilter{
		IncludeDeleted: q.IncludeDeleted,
		OnlyDeleted:    q.OnlyDeleted,
		Search:         q.Search,
		Limit:          q.Limit,
		Offset:         q.Offset,
	}
}

// ListResponse wraps list results.
type ListResponse[T any] struct {
	Items []T `json:"items"`
	Count int `json:"count"`
}

// SessionResponse is the client-side cache view of one session.
type SessionResponse[T any] struct {
	Items    []T `json:"items"`
	Selected *T  `json:"selected,omitempty"`
}

// --- Lifecycle ---

// LifecycleResponse contains the shared record fields.
type LifecycleResponse struct {
	ID                       string     `json:"id"`
	Version                  int        `json:"version"`
	State                    string     `json:"state"`
	IsDeleted                bool       `json:"isDeleted"`
	DeletedAt                *time.Time `json:"deletedAt"`
	DeletedBy                *string    `json:"deletedBy"`
	RestorationEligibleUntil *time.Time `json:"restorationEligibleUntil"`
	CreatedAt                time.Time  `json:"createdAt"`
	UpdatedAt                time.Time  `json:"updatedAt"`
}

// FromBase creates LifecycleResponse from entity.BaseEntity.
func FromBase(b entity.BaseEntity) LifecycleResponse {
	return LifecycleResponse{
		ID:                       b.ID.String(),
		Version:                  b.Version,
		State:                    string(b.State()),
		IsDeleted:                b.IsDeleted,
		DeletedAt:                b.DeletedAt,
		DeletedBy:                b.DeletedBy,
		RestorationEligibleUntil: b.RestorationEligibleUntil,
		CreatedAt:                b.CreatedAt,
		UpdatedAt:                b.UpdatedAt,
	}
}

// AuditEntryResponse is one history line.
type AuditEntryResponse struct {
	ID         string         `json:"id"`
	Action     string         `json:"action"`
	EntityType string         `json:"entityType"`
	EntityID   string         `json:"entityId"`
	UserID     *string        `json:"userId"`
	Metadata   map[string]any `json:"metadata,omitempty"`
	CreatedAt  time.Time      `json:"createdAt"`
}

// FromAuditEntries converts history entries. Undecodable metadata is dropped.
func FromAuditEntries(entries []audit.Entry) []AuditEntryResponse {
	out := make([]AuditEntryResponse, 0, len(entries))
	for _, e := range entries {
		meta, _ := e.DecodeMetadata()
		out = append(out, AuditEntryResponse{
			ID:         e.ID.String(),
			Action:     string(e.Action),
			EntityType: e.EntityType,
			EntityID:   e.EntityID.String(),
			UserID:     e.UserID,
			Metadata:   meta,
			CreatedAt:  e.CreatedAt,
		})
	}
	return out
}
