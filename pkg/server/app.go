package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"mercator-hq/stormwatch/pkg/advisor"
	"mercator-hq/stormwatch/pkg/cache"
	"mercator-hq/stormwatch/pkg/config"
	"mercator-hq/stormwatch/pkg/events"
	"mercator-hq/stormwatch/pkg/evidence"
	"mercator-hq/stormwatch/pkg/evidence/recorder"
	"mercator-hq/stormwatch/pkg/evidence/retention"
	"mercator-hq/stormwatch/pkg/evidence/storage"
	"mercator-hq/stormwatch/pkg/limits/ratelimit"
	"mercator-hq/stormwatch/pkg/policy/engine"
	"mercator-hq/stormwatch/pkg/records"
	"mercator-hq/stormwatch/pkg/telemetry"
)

// App holds every runtime component built from a Config.
type App struct {
	Config    *config.Config
	Telemetry *telemetry.Telemetry
	Engine    *engine.Engine
	Cache     cache.Cache
	Records   records.Store
	Evidence  evidence.Storage
	Recorder  *recorder.Recorder
	Pruner    *retention.Pruner
	Publisher events.Publisher
	Service   *advisor.Service
	Limiter   *ratelimit.Limiter

	logger  *slog.Logger
	closers []func() error
}

// AppOption customizes NewApp.
type AppOption func(*appOptions)

type appOptions struct {
	clock func() time.Time
}

// WithClock overrides the engine clock.
func WithClock(clock func() time.Time) AppOption {
	return func(o *appOptions) { o.clock = clock }
}

type pinger interface {
	Ping(ctx context.Context) error
}

// NewApp builds the engine, stores, cache, publisher and advisor service
// from cfg. Components built before a failure are closed.
func NewApp(cfg *config.Config, tel *telemetry.Telemetry, opts ...AppOption) (app *App, err error) {
	var o appOptions
	for _, opt := range opts {
		opt(&o)
	}

	logger := tel.Logger().Slog()
	app = &App{Config: cfg, Telemetry: tel, logger: logger}
	defer func() {
		if err != nil {
			_ = app.Close()
			app = nil
		}
	}()

	engineCfg := engine.DefaultEngineConfig().
		WithTrace(cfg.Engine.EnableTrace).
		WithSlowEvaluationThreshold(cfg.Engine.SlowEvaluationThreshold)
	if o.clock != nil {
		engineCfg.WithClock(o.clock)
	}
	app.Engine, err = engine.New(engineCfg, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create engine: %w", err)
	}

	app.Records, err = records.New(&cfg.Records, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create record store: %w", err)
	}
	app.closers = append(app.closers, app.Records.Close)

	app.Cache, err = cache.New(&cfg.Engine.Cache, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create decision cache: %w", err)
	}
	app.closers = append(app.closers, app.Cache.Close)

	var rec advisor.EvidenceRecorder
	if cfg.Evidence.Enabled {
		app.Evidence, err = storage.New(&cfg.Evidence, logger)
		if err != nil {
			return nil, fmt.Errorf("failed to create evidence storage: %w", err)
		}
		app.closers = append(app.closers, app.Evidence.Close)

		app.Recorder = recorder.New(app.Evidence, &cfg.Evidence.Recorder, tel.Metrics(), logger)
		app.closers = append(app.closers, app.Recorder.Close)
		rec = app.Recorder

		app.Pruner = retention.NewPruner(app.Evidence, &cfg.Evidence.Retention, tel.Metrics(), logger)
	}

	app.Publisher, err = events.New(&cfg.Events, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create event publisher: %w", err)
	}
	app.closers = append(app.closers, app.Publisher.Close)

	app.Service, err = advisor.New(advisor.Options{
		Engine:    app.Engine,
		Cache:     app.Cache,
		Recorder:  rec,
		Publisher: app.Publisher,
		Records:   app.Records,
		Metrics:   tel.Metrics(),
		Logger:    logger,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create advisor: %w", err)
	}
	// Pending publishes finish before the publisher closes.
	app.closers = append(app.closers, app.Service.Close)

	if rl := cfg.Server.RateLimit; rl.Enabled {
		app.Limiter, err = ratelimit.NewLimiter(ratelimit.Config{
			RequestsPerSecond: rl.RequestsPerSecond,
			Burst:             rl.Burst,
			MaxClients:        rl.MaxClients,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create rate limiter: %w", err)
		}
	}

	app.registerChecks()
	return app, nil
}

func (a *App) registerChecks() {
	checker := a.Telemetry.Health()
	for name, c := range map[string]any{
		"records":  a.Records,
		"evidence": a.Evidence,
		"cache":    a.Cache,
	} {
		if p, ok := c.(pinger); ok {
			checker.RegisterCheck(name, p.Ping)
		}
	}
}

// StartBackground starts the evidence retention schedule. It stops when
// ctx is cancelled or the app is closed.
func (a *App) StartBackground(ctx context.Context) error {
	if a.Pruner == nil {
		return nil
	}
	if err := a.Pruner.Start(ctx); err != nil {
		return fmt.Errorf("failed to start retention scheduler: %w", err)
	}
	if next := a.Pruner.NextPruning(); next != nil {
		a.logger.Debug("evidence retention scheduled", "next_pruning", next)
	}
	return nil
}

// Close releases components in reverse order of construction.
func (a *App) Close() error {
	if a.Pruner != nil {
		a.Pruner.Stop()
	}
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}
