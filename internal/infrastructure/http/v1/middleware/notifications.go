package middleware

import (
	"github.com/gin-gonic/gin"

	"portfolio/internal/infrastructure/notify"
)

// Notifications installs a per-request toast collector. Handlers and the
// error middleware read it back into the response body.
func Notifications() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := notify.WithCollector(c.Request.Context(), notify.NewCollector())
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}
