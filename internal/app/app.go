// Package app wires configuration, storage and services shared by the binaries.
package app

import (
	"context"
	"fmt"

	"supplyplan/internal/config"
	"supplyplan/internal/domain/planning"
	"supplyplan/internal/domain/plans"
	"supplyplan/internal/domain/reference"
	"supplyplan/internal/infrastructure/cache"
	"supplyplan/internal/infrastructure/http/v1/handlers"
	"supplyplan/internal/infrastructure/storage/memory"
	"supplyplan/internal/infrastructure/storage/postgres"
	"supplyplan/internal/infrastructure/storage/postgres/plan_repo"
	"supplyplan/internal/infrastructure/storage/postgres/reference_repo"
	"supplyplan/pkg/logger"
)

// App holds the wired services.
type App struct {
	Planning  *planning.Service
	Plans     *plans.Service
	Reference reference.Repository

	// Writer loads reference data. Pool and Health are nil in memory mode.
	Writer reference.Writer
	Pool   *postgres.Pool
	Health handlers.HealthChecker

	closers []func()
}

// Close releases connections in reverse order of acquisition.
func (a *App) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
}

// New builds the application for cfg.Storage.
func New(ctx context.Context, cfg *config.Config, log *logger.Logger) (*App, error) {
	a := &App{}

	var (
		ref    reference.Repository
		repos  *plans.Repositories
		audit  plans.AuditJournal
		txm    planning.TxManager
		writer reference.Writer
	)

	switch cfg.Storage {
	case "memory":
		store := memory.NewStore()
		ref, repos, audit, txm, writer = store, store.Repositories(), store, store, store
		log.Warn("using in-memory storage: data is lost on exit")

	default:
		poolCfg := postgres.DefaultPoolConfig(cfg.DatabaseURL)
		poolCfg.MaxConns = cfg.DBMaxConns
		poolCfg.MinConns = cfg.DBMinConns
		pool, err := postgres.NewPool(ctx, poolCfg)
		if err != nil {
			return nil, err
		}
		a.Pool = pool
		a.Health = pool
		a.closers = append(a.closers, pool.Close)

		if cfg.AutoMigrate {
			if err := postgres.Migrate(ctx, pool); err != nil {
				a.Close()
				return nil, err
			}
		}

		pgTx := postgres.NewTxManager(pool, cfg.RequestTimeout)
		journal, err := postgres.NewAuditJournal(pgTx)
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("create audit journal: %w", err)
		}
		refRepo := reference_repo.New(pgTx)
		ref, repos, audit, txm, writer = refRepo, plan_repo.NewRepositories(pgTx), journal, pgTx, refRepo

		if cfg.RedisAddr != "" {
			cached, err := a.withCache(ctx, cfg, refRepo)
			if err != nil {
				a.Close()
				return nil, err
			}
			ref = cached
		}
	}

	a.Reference = ref
	a.Writer = writer
	a.Plans = plans.NewService(repos, txm, cfg.YearRange())
	a.Planning = planning.NewService(planning.Deps{
		Reference: ref,
		Plans:     repos,
		Audit:     audit,
		TxManager: txm,
		Frozen:    cfg.FrozenPeriods,
		Years:     cfg.YearRange(),
		Logger:    log,
	})
	return a, nil
}

// withCache wraps inner with the Redis cache and starts the invalidation listener.
func (a *App) withCache(ctx context.Context, cfg *config.Config, inner reference.Repository) (*cache.ReferenceCache, error) {
	client, err := cache.NewRedisClient(ctx, cfg.RedisAddr)
	if err != nil {
		return nil, err
	}
	a.closers = append(a.closers, func() { _ = client.Close() })

	refCache := cache.NewReferenceCache(inner, client, cfg.ReferenceCacheTTL)
	listener := cache.NewListener(a.Pool.Pool, refCache)
	listener.Start(context.WithoutCancel(ctx))
	a.closers = append(a.closers, listener.Stop)
	return refCache, nil
}
