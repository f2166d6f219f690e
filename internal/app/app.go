// Package app wires configuration, storage and lifecycle managers shared by
// the server, the worker and the CLI.
package app

import (
	"context"
	"fmt"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"portfolio/internal/config"
	"portfolio/internal/core/id"
	"portfolio/internal/core/tx"
	"portfolio/internal/domain/audit"
	"portfolio/internal/domain/auth"
	"portfolio/internal/domain/lifecycle"
	"portfolio/internal/domain/portfolios"
	"portfolio/internal/domain/projects"
	"portfolio/internal/infrastructure/cache"
	"portfolio/internal/infrastructure/metrics"
	"portfolio/internal/infrastructure/notify"
	"portfolio/internal/infrastructure/storage/memory"
	"portfolio/internal/infrastructure/storage/postgres"
	"portfolio/internal/infrastructure/storage/postgres/record_repo"
	"portfolio/pkg/logger"
)

const (
	StoragePostgres = "postgres"
	StorageMemory   = "memory"
)

// App holds the wired components.
type App struct {
	Config *config.Config
	Log    *logger.Logger

	// Pool is nil in memory mode
	Pool *postgres.Pool

	Metrics  *metrics.Metrics
	Registry *prometheus.Registry
	JWT      *auth.JWTService

	Projects        *lifecycle.Manager[*projects.Project]
	ProjectSessions *cache.Sessions[*projects.Project]

	Portfolios        *lifecycle.Manager[*portfolios.Portfolio]
	PortfolioSessions *cache.Sessions[*portfolios.Portfolio]

	// Listener is set when lifecycle.listen_changes is on in postgres mode
	Listener *cache.ChangeListener
}

// NewLogger builds the process logger from configuration.
func NewLogger(cfg *config.Config) (*logger.Logger, error) {
	return logger.New(logger.Config{
		Level:       cfg.Logger.Level,
		Development: cfg.Logger.Development || cfg.App.IsDevelopment(),
	})
}

// stores is the storage backend selected by configuration.
type stores struct {
	projects   lifecycle.RecordStore[*projects.Project]
	portfolios lifecycle.RecordStore[*portfolios.Portfolio]
	audit      audit.Log
	txm        tx.Manager
}

// New wires the application. In postgres mode it connects to the database.
func New(ctx context.Context, cfg *config.Config, log *logger.Logger) (*App, error) {
	policy, err := cfg.Lifecycle.Policy()
	if err != nil {
		return nil, err
	}

	a := &App{
		Config:            cfg,
		Log:               log,
		Metrics:           metrics.New(),
		Registry:          prometheus.NewRegistry(),
		JWT:               auth.NewJWTService(auth.JWTConfig{Secret: cfg.Auth.JWTSecret, Issuer: cfg.Auth.Issuer, AccessTokenTTL: cfg.Auth.TokenTTL}),
		ProjectSessions:   cache.NewSessions((*projects.Project).Clone),
		PortfolioSessions: cache.NewSessions((*portfolios.Portfolio).Clone),
	}

	if err := a.Metrics.Register(a.Registry); err != nil {
		return nil, fmt.Errorf("register metrics: %w", err)
	}
	a.Registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	var st stores
	switch cfg.Lifecycle.Storage {
	case StorageMemory:
		st = a.memoryStores()
	case StoragePostgres:
		st, err = a.postgresStores(ctx)
		if err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("unknown storage %q", cfg.Lifecycle.Storage)
	}

	notifier := notify.New(log)

	a.Projects, err = lifecycle.NewManager(lifecycle.Config[*projects.Project]{
		EntityType:  projects.EntityType,
		DisplayName: projects.DisplayName,
		Store:       st.projects,
		Audit:       st.audit,
		TxManager:   st.txm,
		Policy:      policy,
		Observer:    a.ProjectSessions,
		Notifier:    notifier,
		Recorder:    a.Metrics,
	})
	if err != nil {
		a.Close()
		return nil, err
	}

	a.Portfolios, err = lifecycle.NewManager(lifecycle.Config[*portfolios.Portfolio]{
		EntityType:  portfolios.EntityType,
		DisplayName: portfolios.DisplayName,
		Store:       st.portfolios,
		Audit:       st.audit,
		TxManager:   st.txm,
		Policy:      policy,
		Observer:    a.PortfolioSessions,
		Notifier:    notifier,
		Recorder:    a.Metrics,
	})
	if err != nil {
		a.Close()
		return nil, err
	}

	log.Infow("application wired",
		"storage", cfg.Lifecycle.Storage,
		"restoration_window", policy.RestorationWindow.String(),
		"audit_mode", string(policy.AuditMode),
		"purge_guard", cfg.Lifecycle.PurgeGuard,
	)
	return a, nil
}

func (a *App) memoryStores() stores {
	projectStore := memory.NewRecordStore(projects.EntityType, (*projects.Project).Clone,
		memory.WithSearchKey(func(p *projects.Project) string { return p.Name }))
	portfolioStore := memory.NewRecordStore(portfolios.EntityType, (*portfolios.Portfolio).Clone,
		memory.WithSearchKey(func(p *portfolios.Portfolio) string { return p.Name }),
		memory.WithReferenceCheck[*portfolios.Portfolio](portfolioInUse(projectStore)))
	auditLog := memory.NewAuditLog()

	return stores{
		projects:   projectStore,
		portfolios: portfolioStore,
		audit:      auditLog,
		txm:        memory.NewTxManager(projectStore, portfolioStore, auditLog),
	}
}

func (a *App) postgresStores(ctx context.Context) (stores, error) {
	poolCfg := postgres.DefaultPoolConfig(a.Config.Database.URL)
	poolCfg.ApplicationName = a.Config.App.Name
	if a.Config.Database.MaxConns > 0 {
		poolCfg.MaxConns = a.Config.Database.MaxConns
	}
	poolCfg.MinConns = a.Config.Database.MinConns

	pool, err := postgres.NewPool(ctx, poolCfg)
	if err != nil {
		return stores{}, fmt.Errorf("connect database: %w", err)
	}
	a.Pool = pool

	txm := postgres.NewTxManager(pool)
	auditLog, err := postgres.NewAuditLog(txm, a.Config.Lifecycle.AuditCompressThreshold)
	if err != nil {
		pool.Close()
		return stores{}, err
	}

	projectRepo := record_repo.NewProjectRepo(txm)
	portfolioRepo := record_repo.NewPortfolioRepo(txm)

	if a.Config.Lifecycle.ListenChanges {
		a.Listener = cache.NewChangeListener(pool.Pool)
		a.Listener.Handle(projects.EntityType, cache.Refresher(a.ProjectSessions, projectRepo.SelectOne))
		a.Listener.Handle(portfolios.EntityType, cache.Refresher(a.PortfolioSessions, portfolioRepo.SelectOne))
	}

	return stores{
		projects:   projectRepo,
		portfolios: portfolioRepo,
		audit:      auditLog,
		txm:        txm,
	}, nil
}

// portfolioInUse mirrors the projects.portfolio_id foreign key.
func portfolioInUse(projectStore *memory.RecordStore[*projects.Project]) func(context.Context, id.ID) (bool, error) {
	return func(ctx context.Context, portfolioID id.ID) (bool, error) {
		all, err := projectStore.Select(ctx, lifecycle.ListFilter{IncludeDeleted: true})
		if err != nil {
			return false, err
		}
		for _, p := range all {
			if p.PortfolioID != nil && *p.PortfolioID == portfolioID {
				return true, nil
			}
		}
		return false, nil
	}
}

// Purgers returns every manager for the sweeper, children before parents
// so one sweep can purge a portfolio together with its projects.
func (a *App) Purgers() []lifecycle.Purger {
	return []lifecycle.Purger{a.Projects, a.Portfolios}
}

// Target resolves an entity name ("project", "projects", "portfolio"...)
// to its type-erased operations.
func (a *App) Target(name string) (Target, error) {
	switch strings.TrimSuffix(strings.ToLower(name), "s") {
	case projects.EntityType:
		return erase(a.Projects), nil
	case portfolios.EntityType:
		return erase(a.Portfolios), nil
	}
	return Target{}, fmt.Errorf("unknown entity %q (want project or portfolio)", name)
}

// Close releases the database pool and stops the listener.
func (a *App) Close() {
	if a.Listener != nil {
		a.Listener.Stop()
	}
	if a.Pool != nil {
		a.Pool.Close()
	}
}
