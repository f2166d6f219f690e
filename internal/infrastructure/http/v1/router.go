// Package v1 provides HTTP API version 1.
package v1

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"portfolio/internal/domain/portfolios"
	"portfolio/internal/domain/projects"
	"portfolio/internal/infrastructure/cache"
	"portfolio/internal/infrastructure/http/v1/dto"
	"portfolio/internal/infrastructure/http/v1/handlers"
	"portfolio/internal/infrastructure/http/v1/middleware"
	"portfolio/pkg/logger"
)

// RouterConfig holds router dependencies.
type RouterConfig struct {
	// Logger for request logging
	Logger *logger.Logger

	// JWTValidator for token validation
	JWTValidator middleware.JWTValidator

	Projects        handlers.LifecycleService[*projects.Project]
	ProjectSessions *cache.Sessions[*projects.Project]

	Portfolios        handlers.LifecycleService[*portfolios.Portfolio]
	PortfolioSessions *cache.Sessions[*portfolios.Portfolio]

	// DB is pinged by the readiness probe; nil in memory mode
	DB      handlers.Pinger
	Storage string

	// Metrics records HTTP requests; nil disables the middleware
	Metrics middleware.HTTPRecorder

	// Gatherer is exposed on MetricsPath when set
	Gatherer    prometheus.Gatherer
	MetricsPath string

	// Debug enables gin debug mode
	Debug bool
}

// NewRouter creates and configures the Gin router.
func NewRouter(cfg RouterConfig) *gin.Engine {
	if cfg.Debug {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}
	if cfg.Logger == nil {
		cfg.Logger = logger.Default()
	}

	router := gin.New()

	// Global middleware (order matters!)
	router.Use(middleware.Recovery())
	router.Use(middleware.Trace())
	router.Use(middleware.Logger(cfg.Logger))
	if cfg.Metrics != nil {
		router.Use(middleware.Metrics(cfg.Metrics))
	}
	router.Use(middleware.Notifications())
	router.Use(middleware.ErrorHandler())

	healthHandler := handlers.NewHealthHandler(cfg.DB, cfg.Storage)
	health := router.Group("/health")
	{
		health.GET("/live", healthHandler.Live)
		health.GET("/ready", healthHandler.Ready)
	}

	if cfg.Gatherer != nil {
		path := cfg.MetricsPath
		if path == "" {
			path = "/metrics"
		}
		router.GET(path, gin.WrapH(promhttp.HandlerFor(cfg.Gatherer, promhttp.HandlerOpts{})))
	}

	v1 := router.Group("/api/v1")
	{
		protected := v1.Group("")
		protected.Use(middleware.Auth(cfg.JWTValidator)) // 1. Validate JWT
		protected.Use(middleware.UserContext())          // 2. Add UserID to context for domain layer

		registerLifecycleRoutes(protected, cfg)
	}

	return router
}

func registerLifecycleRoutes(rg *gin.RouterGroup, cfg RouterConfig) {
	base := handlers.NewBaseHandler()

	if cfg.Projects != nil {
		if cfg.ProjectSessions == nil {
			cfg.ProjectSessions = cache.NewSessions((*projects.Project).Clone)
		}
		handler := handlers.NewLifecycleHandler(base, cfg.Projects, cfg.ProjectSessions,
			handlers.DecodeProject, dto.FromProject)
		RegisterLifecycleRoutes(rg, "projects", handler, projects.EntityType)
	}

	if cfg.Portfolios != nil {
		if cfg.PortfolioSessions == nil {
			cfg.PortfolioSessions = cache.NewSessions((*portfolios.Portfolio).Clone)
		}
		handler := handlers.NewLifecycleHandler(base, cfg.Portfolios, cfg.PortfolioSessions,
			handlers.DecodePortfolio, dto.FromPortfolio)
		RegisterLifecycleRoutes(rg, "portfolios", handler, portfolios.EntityType)
	}
}
