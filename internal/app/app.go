// Package app wires the configured backends, clients and engines together.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"classroom-notifier/internal/classroom"
	"classroom-notifier/internal/config"
	"classroom-notifier/internal/handlers"
	apihttp "classroom-notifier/internal/http"
	"classroom-notifier/internal/indexer"
	"classroom-notifier/internal/kv"
	"classroom-notifier/internal/messaging"
	"classroom-notifier/internal/metrics"
	"classroom-notifier/internal/reminder"
	"classroom-notifier/internal/search"
	"classroom-notifier/internal/service"
	"classroom-notifier/internal/storage"
	"classroom-notifier/internal/sweep"
	"classroom-notifier/internal/watermark"
)

const sweepLockKey = "lock:sweep"

// App holds every wired component.
type App struct {
	Config     *config.Config
	Store      kv.Store
	Records    *storage.RecordRepo
	Ledger     *storage.LedgerRepo
	Watermarks *storage.WatermarkRepo
	Users      *storage.UserRepo
	Source     classroom.Source
	Messenger  messaging.Messenger
	Registry   *prometheus.Registry
	Metrics    *metrics.Metrics
	Pipeline   *indexer.Pipeline
	Search     *search.Engine
	Reminders  *reminder.Engine
	NewContent *watermark.Engine
	Runner     *sweep.Runner
	Service    service.NotifierService

	healthChecks map[string]handlers.HealthCheck
	closers      []func() error
}

// Option adjusts the wiring before the engines are built.
type Option func(*App)

// WithSource replaces the HTTP content source.
func WithSource(src classroom.Source) Option {
	return func(a *App) { a.Source = src }
}

// WithMessenger replaces the configured messenger.
func WithMessenger(m messaging.Messenger) Option {
	return func(a *App) { a.Messenger = m }
}

// Build opens the configured store and wires the engines on top of it.
// Call Close when done.
func Build(ctx context.Context, cfg *config.Config, opts ...Option) (*App, error) {
	policy, err := cfg.Policy()
	if err != nil {
		return nil, fmt.Errorf("reminder policy: %w", err)
	}

	a := &App{
		Config:       cfg,
		Registry:     prometheus.NewRegistry(),
		healthChecks: make(map[string]handlers.HealthCheck),
	}
	a.Registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	a.Metrics = metrics.New(a.Registry)

	var locker sweep.Locker
	switch cfg.StoreBackend {
	case config.BackendSQLite:
		db, err := kv.OpenSQLite(cfg.DBPath)
		if err != nil {
			return nil, fmt.Errorf("failed to open database: %w", err)
		}
		a.closers = append(a.closers, db.Close)
		if err := kv.Migrate(db); err != nil {
			_ = a.Close()
			return nil, fmt.Errorf("failed to run migrations: %w", err)
		}
		a.Store = kv.NewSQLiteStore(db)
		a.healthChecks["store"] = db.PingContext
		slog.Info("Database initialized", "path", cfg.DBPath)
	case config.BackendRedis:
		rs, err := kv.NewRedisStore(ctx, cfg.RedisURL)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, rs.Close)
		a.Store = rs
		a.healthChecks["store"] = rs.Ping
		locker = sweep.NewRedisLocker(rs.Client(), sweepLockKey, cfg.SweepLockTTL)
		slog.Info("Redis store connected")
	case config.BackendMemory:
		a.Store = kv.NewMemoryStore()
		slog.Warn("Using in-memory store; the index is lost on restart")
	default:
		return nil, fmt.Errorf("unknown store backend %q", cfg.StoreBackend)
	}
	if locker == nil {
		if ls, ok := a.Store.(sweep.LeaseStore); ok {
			locker = sweep.NewStoreLocker(ls, sweepLockKey, cfg.SweepLockTTL)
		}
	}

	for _, opt := range opts {
		opt(a)
	}
	if a.Source == nil {
		a.Source = classroom.NewClient(cfg.ClassroomBaseURL, cfg.ClassroomRateLimit)
	}
	if a.Messenger == nil {
		if cfg.MessagingBaseURL != "" {
			a.Messenger = messaging.NewClient(cfg.MessagingBaseURL, cfg.MessagingToken, cfg.MessagingFormat)
		} else {
			slog.Warn("MESSAGING_BASE_URL not set; notifications are only logged")
			a.Messenger = messaging.NewLogMessenger()
		}
	}

	a.Records = storage.NewRecordRepo(a.Store)
	a.Ledger = storage.NewLedgerRepo(a.Store)
	a.Watermarks = storage.NewWatermarkRepo(a.Store)
	a.Users = storage.NewUserRepo(a.Store)

	a.Pipeline = indexer.NewPipeline(a.Source, a.Records, a.Metrics, cfg.CallTimeout)
	a.Search = search.NewEngine(a.Records, policy.Location, a.Metrics)
	a.Reminders = reminder.NewEngine(policy, a.Ledger, a.Source, a.Messenger, a.Metrics, cfg.CallTimeout)
	a.NewContent = watermark.NewEngine(a.Pipeline, a.Watermarks, a.Messenger, a.Metrics, cfg.CallTimeout)
	a.Runner = sweep.NewRunner(a.Users, a.Source, a.Pipeline, a.Reminders, a.NewContent, locker, a.Metrics, sweep.Options{
		Concurrency: cfg.SweepConcurrency,
		CallTimeout: cfg.CallTimeout,
		UnitTimeout: cfg.SweepUnitTimeout,
		MaxDuration: cfg.SweepLockTTL,
	})
	a.Service = service.NewNotifierService(a.Search, a.Runner, a.Pipeline, a.Users)

	slog.Info("Engines initialized",
		"backend", cfg.StoreBackend,
		"policy", policy.Name,
		"thresholds", len(policy.Thresholds),
		"grace", policy.Grace,
		"location", policy.Location.String(),
	)
	return a, nil
}

// NewScheduler creates the cron scheduler for the configured sweep.
func (a *App) NewScheduler() (*sweep.Scheduler, error) {
	return sweep.NewScheduler(a.Config.SweepCron, a.Runner.RunSweep)
}

// Router builds the HTTP API. scheduler may be nil.
func (a *App) Router(scheduler *sweep.Scheduler) http.Handler {
	deps := &apihttp.Deps{
		Notifier:     a.Service,
		HealthChecks: a.healthChecks,
		Metrics:      promhttp.HandlerFor(a.Registry, promhttp.HandlerOpts{}),
	}
	if scheduler != nil {
		deps.NextSweep = scheduler.NextRun
	}
	return apihttp.NewRouter(deps)
}

// Close releases the store connections.
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		errs = append(errs, a.closers[i]())
	}
	a.closers = nil
	return errors.Join(errs...)
}
