package v1

import (
	"github.com/gin-gonic/gin"

	"portfolio/internal/domain/auth"
	"portfolio/internal/infrastructure/http/v1/middleware"
)

// LifecycleRouteHandler defines the interface for lifecycle handlers.
type LifecycleRouteHandler interface {
	List(c *gin.Context)
	Create(c *gin.Context)
	Get(c *gin.Context)
	SoftDelete(c *gin.Context)
	Restore(c *gin.Context)
	PermanentDelete(c *gin.Context)
	History(c *gin.Context)
	Session(c *gin.Context)
}

// RegisterLifecycleRoutes registers the standard routes of a lifecycle-managed
// record type and its session view.
//
// Usage:
//
//	handler := handlers.NewLifecycleHandler(base, projectManager, projectSessions, handlers.DecodeProject, dto.FromProject)
//	RegisterLifecycleRoutes(protected, "projects", handler, projects.EntityType)
func RegisterLifecycleRoutes(rg *gin.RouterGroup, path string, handler LifecycleRouteHandler, entityType string) {
	perm := func(action string) gin.HandlerFunc {
		return middleware.RequirePermission(auth.Permission(entityType, action))
	}

	group := rg.Group("/" + path)
	group.GET("", perm(auth.ActionRead), handler.List)
	group.POST("", perm(auth.ActionCreate), handler.Create)
	group.GET("/:id", perm(auth.ActionRead), handler.Get)
	group.DELETE("/:id", perm(auth.ActionDelete), handler.SoftDelete)
	group.POST("/:id/restore", perm(auth.ActionRestore), handler.Restore)
	group.DELETE("/:id/permanent", perm(auth.ActionPurge), handler.PermanentDelete)
	group.GET("/:id/history", perm(auth.ActionRead), handler.History)

	rg.GET("/session/"+path, perm(auth.ActionRead), handler.Session)
}
