package telemetry

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"mercator-hq/stormwatch/pkg/config"
	"mercator-hq/stormwatch/pkg/telemetry/health"
	"mercator-hq/stormwatch/pkg/telemetry/logging"
	"mercator-hq/stormwatch/pkg/telemetry/metrics"
	"mercator-hq/stormwatch/pkg/telemetry/tracing"
)

// Telemetry holds the process-wide logger, metrics collector, tracer and
// health checker.
type Telemetry struct {
	config  *config.TelemetryConfig
	info    health.BuildInfo
	logger  *logging.Logger
	metrics *metrics.Collector
	tracer  *tracing.Tracer
	health  *health.Checker
}

// Option customizes New.
type Option func(*options)

type options struct {
	logWriter io.Writer
}

// WithLogWriter directs log output to w instead of stderr.
func WithLogWriter(w io.Writer) Option {
	return func(o *options) { o.logWriter = w }
}

// New builds every telemetry component from cfg.
func New(cfg *config.TelemetryConfig, info health.BuildInfo, opts ...Option) (*Telemetry, error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	logger, err := logging.New(logging.Config{
		Level:          cfg.Logging.Level,
		Format:         cfg.Logging.Format,
		AddSource:      cfg.Logging.AddSource,
		RedactPII:      cfg.Logging.RedactPII,
		RedactPatterns: cfg.Logging.RedactPatterns,
		Writer:         o.logWriter,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}

	tracer, err := tracing.New(&cfg.Tracing, info.Version)
	if err != nil {
		return nil, fmt.Errorf("failed to create tracer: %w", err)
	}

	return &Telemetry{
		config:  cfg,
		info:    info,
		logger:  logger,
		metrics: metrics.NewCollector(&cfg.Metrics, nil),
		tracer:  tracer,
		health:  health.New(cfg.Health.CheckTimeout),
	}, nil
}

// Logger returns the structured logger.
func (t *Telemetry) Logger() *logging.Logger { return t.logger }

// Metrics returns the metrics collector.
func (t *Telemetry) Metrics() *metrics.Collector { return t.metrics }

// Tracer returns the tracer.
func (t *Telemetry) Tracer() *tracing.Tracer { return t.tracer }

// Health returns the health checker.
func (t *Telemetry) Health() *health.Checker { return t.health }

// Mount registers the enabled metrics and health endpoints on mux.
func (t *Telemetry) Mount(mux *http.ServeMux) {
	if t.config.Metrics.Enabled {
		mux.Handle("GET "+t.config.Metrics.Path, t.metrics.Handler())
	}
	if t.config.Health.Enabled {
		t.health.Register(mux, health.Paths{
			Liveness:  t.config.Health.LivenessPath,
			Readiness: t.config.Health.ReadinessPath,
			Version:   t.config.Health.VersionPath,
		}, t.info)
	}
}

// Shutdown flushes pending spans.
func (t *Telemetry) Shutdown(ctx context.Context) error {
	return t.tracer.Shutdown(ctx)
}
