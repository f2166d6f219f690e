package middleware

import (
	"github.com/gin-gonic/gin"

	"portfolio/internal/core/security"
)

// UserContext copies the user id set by Auth into the request context, where
// the lifecycle handlers read the actor via security.GetUserID(ctx).
//
// Usage in router:
//
//	protected.Use(middleware.Auth(cfg.JWTValidator))
//	protected.Use(middleware.UserContext())
func UserContext() gin.HandlerFunc {
	return func(c *gin.Context) {
		if uid := c.GetString("user_id"); uid != "" {
			ctx := security.WithUserID(c.Request.Context(), uid)
			c.Request = c.Request.WithContext(ctx)
		}
		c.Next()
	}
}
