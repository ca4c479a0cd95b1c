// Package app assembles the verification engine from configuration. Both the
// server and the CLI build the same object graph through here.
package app

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	_ "github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus"

	"clearpath/internal/checks"
	"clearpath/internal/discharge"
	"clearpath/internal/discharge/metrics"
	"clearpath/internal/escalation"
	"clearpath/internal/narrative"
	"clearpath/internal/platform/config"
	platformredis "clearpath/internal/platform/redis"
	"clearpath/internal/state"
	"clearpath/pkg/circuit"
)

// App is the assembled engine plus the resources it owns.
type App struct {
	Service *discharge.Service
	Store   *state.Store
	Metrics *metrics.Metrics

	closers []func() error
}

// Close releases owned resources (database and Redis connections).
func (a *App) Close() error {
	var firstErr error
	for _, close := range a.closers {
		if err := close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// New builds the full engine: reference-data providers, check runner, state
// store on the configured backend, escalation router, and orchestrator.
func New(ctx context.Context, cfg config.Config, logger *slog.Logger) (*App, error) {
	app := &App{Metrics: metrics.New(prometheus.DefaultRegisterer)}

	kv, err := app.buildKV(ctx, cfg)
	if err != nil {
		return nil, err
	}
	app.Store = state.NewStore(kv, logger, state.WithApprovalWindow(cfg.ApprovalWindow))

	data := checks.NewDataSource(cfg.DataDir)
	providers := []checks.Provider{
		checks.NewInsuranceCheck(data),
		checks.NewPharmacyCheck(data),
		checks.NewTransportCheck(data),
		checks.NewBedCheck(data),
		checks.NewLabCheck(data),
	}

	var generator narrative.Generator
	if cfg.NarrativeURL != "" {
		generator = narrative.NewResilientGenerator(
			narrative.NewRemoteGenerator(cfg.NarrativeURL),
			circuit.New("narrative", circuit.WithFailureThreshold(3)),
			logger,
		)
	}

	app.Service = discharge.NewService(
		providers,
		discharge.NewRunner(cfg.CheckTimeout, logger, app.Metrics),
		generator,
		app.Store,
		escalation.NewRouter(kv, logger),
		logger,
		app.Metrics,
	)
	return app, nil
}

func (a *App) buildKV(ctx context.Context, cfg config.Config) (state.KV, error) {
	switch cfg.StateBackend {
	case config.BackendMemory:
		return state.NewInMemoryKV(), nil

	case config.BackendFile:
		return state.NewFileKV(cfg.StateDir), nil

	case config.BackendRedis:
		client, err := platformredis.New(ctx, cfg.Redis)
		if err != nil {
			return nil, fmt.Errorf("redis backend: %w", err)
		}
		if client == nil {
			return nil, fmt.Errorf("redis backend selected but CLEARPATH_REDIS_URL is not set")
		}
		a.closers = append(a.closers, client.Close)
		return state.NewRedisKV(client.Client), nil

	case config.BackendPostgres:
		if cfg.PostgresDSN == "" {
			return nil, fmt.Errorf("postgres backend selected but CLEARPATH_POSTGRES_DSN is not set")
		}
		db, err := sql.Open("postgres", cfg.PostgresDSN)
		if err != nil {
			return nil, fmt.Errorf("postgres backend: %w", err)
		}
		if err := db.PingContext(ctx); err != nil {
			db.Close()
			return nil, fmt.Errorf("postgres ping failed: %w", err)
		}
		kv := state.NewPostgresKV(db)
		if err := kv.EnsureSchema(ctx); err != nil {
			db.Close()
			return nil, fmt.Errorf("postgres schema: %w", err)
		}
		a.closers = append(a.closers, db.Close)
		return kv, nil

	default:
		return nil, fmt.Errorf("unknown state backend %q", cfg.StateBackend)
	}
}
