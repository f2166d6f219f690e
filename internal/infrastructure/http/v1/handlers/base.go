// Package handlers provides HTTP request handlers.
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"portfolio/internal/core/apperror"
	"portfolio/internal/core/id"
	"portfolio/internal/core/security"
	"portfolio/internal/infrastructure/http/v1/dto"
	"portfolio/internal/infrastructure/notify"
)

// BaseHandler provides common handler utilities.
type BaseHandler struct{}

// NewBaseHandler creates a new base handler.
func NewBaseHandler() *BaseHandler {
	return &BaseHandler{}
}

// BindJSON binds and validates JSON request body.
func (h *BaseHandler) BindJSON(c *gin.Context, obj any) bool {
	if err := c.ShouldBindJSON(obj); err != nil {
		h.Error(c, apperror.NewValidation("invalid request body").WithDetail("error", err.Error()))
		return false
	}
	return true
}

// BindQuery binds and validates query parameters.
func (h *BaseHandler) BindQuery(c *gin.Context, obj any) bool {
	if err := c.ShouldBindQuery(obj); err != nil {
		h.Error(c, apperror.NewValidation("invalid query parameters").WithDetail("error", err.Error()))
		return false
	}
	return true
}

// ParseID reads the :id path parameter.
func (h *BaseHandler) ParseID(c *gin.Context) (id.ID, bool) {
	raw := c.Param("id")
	parsed, err := id.Parse(raw)
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid id").WithDetail("id", raw))
		return id.ID{}, false
	}
	return parsed, true
}

// Error registers error on Gin context and aborts request.
// Actual JSON response is produced by middleware.ErrorHandler (single source of truth).
func (h *BaseHandler) Error(c *gin.Context, err error) {
	_ = c.Error(err)
	c.Abort()
}

// GetUserID returns the acting user id.
func (h *BaseHandler) GetUserID(c *gin.Context) string {
	return security.GetUserID(c.Request.Context())
}

// Created sends 201 response with ID.
func (h *BaseHandler) Created(c *gin.Context, data any) {
	c.JSON(http.StatusCreated, h.envelope(c, data))
}

// OK sends 200 response with data and collected notifications.
func (h *BaseHandler) OK(c *gin.Context, data any) {
	c.JSON(http.StatusOK, h.envelope(c, data))
}

func (h *BaseHandler) envelope(c *gin.Context, data any) dto.Response {
	resp := dto.Response{Data: data}
	if col := notify.CollectorFrom(c.Request.Context()); col != nil {
		resp.Notifications = dto.FromMessages(col.Messages())
	}
	return resp
}
