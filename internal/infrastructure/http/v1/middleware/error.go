package middleware

import (
	"github.com/gin-gonic/gin"

	"portfolio/internal/core/apperror"
	appctx "portfolio/internal/core/context"
	"portfolio/internal/infrastructure/http/v1/dto"
	"portfolio/internal/infrastructure/notify"
	"portfolio/pkg/logger"
)

// ErrorHandler middleware transforms errors into consistent JSON responses:
// {code, message, details, notifications}.
// Hides internal errors from clients while logging full details.
func ErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 {
			return
		}

		err := c.Errors.Last().Err

		// If response already written by handler, do not override it.
		if c.Writer.Written() {
			return
		}

		if appErr, ok := apperror.AsAppError(err); ok {
			if appErr.Err != nil {
				logger.Error(c.Request.Context(), "request error",
					"code", appErr.Code,
					"cause", appErr.Err,
				)
			}
			writeError(c, appErr)
			return
		}

		logger.Error(c.Request.Context(), "unhandled error",
			"error", err,
		)
		writeError(c, apperror.NewInternal(err).
			WithDetail("request_id", appctx.RequestID(c.Request.Context())))
	}
}

// writeError renders appErr with the toasts raised so far.
func writeError(c *gin.Context, appErr *apperror.AppError) {
	var toasts []dto.Notification
	if col := notify.CollectorFrom(c.Request.Context()); col != nil {
		toasts = dto.FromMessages(col.Messages())
	}

	c.AbortWithStatusJSON(appErr.HTTPStatus, gin.H{
		"code":          appErr.Code,
		"message":       appErr.Message,
		"details":       appErr.Details,
		"notifications": toasts,
	})
}
