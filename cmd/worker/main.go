// Package main is the entry point for the retention worker. It permanently
// removes soft-deleted records whose restoration window has passed.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"portfolio/internal/app"
	"portfolio/internal/config"
	appctx "portfolio/internal/core/context"
	"portfolio/internal/domain/lifecycle"
	"portfolio/pkg/logger"
)

func main() {
	configPath := flag.String("config", "", "path to config file (default: ./config.yaml if present)")
	once := flag.Bool("once", false, "run a single sweep and exit")
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

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	ctx = logger.WithLogger(appctx.WithTrace(ctx, appctx.NewTrace(appctx.OriginWorker)), log)

	log.Infow("starting retention worker",
		"storage", cfg.Lifecycle.Storage,
		"interval", cfg.Lifecycle.SweepInterval.String(),
	)

	a, err := app.New(ctx, cfg, log)
	if err != nil {
		log.Fatalw("failed to initialize application", "error", err)
	}
	defer a.Close()

	sweeper := lifecycle.NewSweeper(cfg.Lifecycle.SweepInterval, log, a.Purgers()...)

	if *once {
		purged := sweeper.SweepOnce(ctx)
		log.Infow("sweep finished", "purged", purged)
		return
	}

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		sweeper.Run(ctx)
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down worker...")
	cancel()

	wg.Wait()
	log.Info("worker stopped")
}
