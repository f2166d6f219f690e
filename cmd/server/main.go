// Package main is the entry point for the portfolio lifecycle API server.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"portfolio/internal/app"
	"portfolio/internal/config"
	v1 "portfolio/internal/infrastructure/http/v1"
	"portfolio/pkg/logger"
)

func main() {
	configPath := flag.String("config", "", "path to config file (default: ./config.yaml if present)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Printf("failed to load config: %v\n", err)
		os.Exit(1)
	}

	log, err := app.NewLogger(cfg)
	if err != nil {
		fmt.Printf("failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	ctx, cancel := context.WithCancel(logger.WithLogger(context.Background(), log))
	defer cancel()

	log.Infow("starting portfolio server", "env", cfg.App.Env, "storage", cfg.Lifecycle.Storage)

	a, err := app.New(ctx, cfg, log)
	if err != nil {
		log.Fatalw("failed to initialize application", "error", err)
	}
	defer a.Close()

	if a.Listener != nil {
		a.Listener.Start(ctx)
	}

	routerCfg := v1.RouterConfig{
		Logger:            log,
		JWTValidator:      a.JWT,
		Projects:          a.Projects,
		ProjectSessions:   a.ProjectSessions,
		Portfolios:        a.Portfolios,
		PortfolioSessions: a.PortfolioSessions,
		Storage:           cfg.Lifecycle.Storage,
		Metrics:           a.Metrics,
		Debug:             cfg.App.IsDevelopment(),
	}
	if a.Pool != nil {
		routerCfg.DB = a.Pool
	}
	if cfg.Metrics.Enabled {
		routerCfg.Gatherer = a.Registry
		routerCfg.MetricsPath = cfg.Metrics.Path
	}
	router := v1.NewRouter(routerCfg)

	server := &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Infow("server starting", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalw("server failed", "error", err)
		}
	}()

	// --- Graceful shutdown ---
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Errorw("server forced to shutdown", "error", err)
	}
	cancel()

	log.Info("server stopped")
}
