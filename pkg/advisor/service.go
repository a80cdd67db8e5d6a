package advisor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"mercator-hq/stormwatch/pkg/cache"
	"mercator-hq/stormwatch/pkg/events"
	"mercator-hq/stormwatch/pkg/evidence"
	"mercator-hq/stormwatch/pkg/evidence/recorder"
	"mercator-hq/stormwatch/pkg/policy/engine"
	"mercator-hq/stormwatch/pkg/records"
	"mercator-hq/stormwatch/pkg/scenario"
	"mercator-hq/stormwatch/pkg/telemetry/logging"
	"mercator-hq/stormwatch/pkg/telemetry/metrics"
	"mercator-hq/stormwatch/pkg/telemetry/tracing"
)

// ErrNoRecordStore is returned by EvaluateRecord when the service has no
// record store.
var ErrNoRecordStore = errors.New("record store not configured")

const defaultPublishTimeout = 10 * time.Second

// EvidenceRecorder accepts evidence records without blocking.
// *recorder.Recorder implements it.
type EvidenceRecorder interface {
	Record(ctx context.Context, record *evidence.EvidenceRecord) error
}

// Meta describes the caller of an evaluation.
type Meta struct {
	RequestID string
	Source    evidence.Source
}

// Options wires a Service. Only Engine is required; every other
// dependency is skipped when nil.
type Options struct {
	Engine    *engine.Engine
	Cache     cache.Cache
	Recorder  EvidenceRecorder
	Publisher events.Publisher
	Records   records.Store
	Metrics   *metrics.Collector
	Logger    *slog.Logger

	// PublishTimeout bounds one event publish. Default: 10s.
	PublishTimeout time.Duration
}

// Service runs evaluations through the engine and performs the side effects
// around them: decision caching, evidence recording, event publishing,
// metrics and tracing. Side-effect failures are logged and counted and
// never change the returned response.
type Service struct {
	engine    *engine.Engine
	cache     cache.Cache
	recorder  EvidenceRecorder
	publisher events.Publisher
	records   records.Store
	metrics   *metrics.Collector
	logger    *slog.Logger
	tracer    trace.Tracer

	publishTimeout time.Duration
	publishWG      sync.WaitGroup
}

// New creates a Service.
func New(opts Options) (*Service, error) {
	if opts.Engine == nil {
		return nil, errors.New("advisor: engine is required")
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	timeout := opts.PublishTimeout
	if timeout <= 0 {
		timeout = defaultPublishTimeout
	}

	return &Service{
		engine:         opts.Engine,
		cache:          opts.Cache,
		recorder:       opts.Recorder,
		publisher:      opts.Publisher,
		records:        opts.Records,
		metrics:        opts.Metrics,
		logger:         logger.With("component", "advisor"),
		tracer:         otel.Tracer(tracing.InstrumentationName),
		publishTimeout: timeout,
	}, nil
}

// Records returns the record store, or nil.
func (s *Service) Records() records.Store {
	return s.records
}

// Evaluate normalizes in, serves it from the decision cache when possible
// and otherwise runs the engine.
func (s *Service) Evaluate(ctx context.Context, in scenario.Input, meta Meta) *engine.Response {
	start := time.Now()

	ctx = logging.WithSource(ctx, string(meta.Source))
	if meta.RequestID != "" {
		ctx = logging.WithRequestID(ctx, meta.RequestID)
	}

	ctx, span := s.tracer.Start(ctx, "advisor.evaluate")
	defer span.End()

	sc, warnings := s.engine.Normalize(in)
	ctx = logging.WithScenarioID(ctx, sc.ScenarioID)

	key := ""
	if hash, err := engine.Hash(sc, warnings); err == nil {
		key = cache.Key(engine.Version, hash)
	} else {
		s.logger.WarnContext(ctx, "scenario hash failed, bypassing cache", "error", err)
	}

	resp, outcome := s.lookup(ctx, key)
	if resp != nil {
		resp.Timestamps.EvaluatedAt = s.engine.Now().UTC()
	} else {
		resp = s.engine.EvaluateScenario(ctx, sc, warnings)
		if outcome != metrics.CacheDisabled && key != "" {
			s.store(ctx, key, resp)
		}
	}
	cacheHit := outcome == metrics.CacheHit
	elapsed := time.Since(start)

	_, blocked := resp.ActionTypes()
	blockedNames := make([]string, len(blocked))
	for i, a := range blocked {
		blockedNames[i] = string(a)
	}

	tracing.SetEvaluationAttributes(span, tracing.Evaluation{
		ScenarioID: resp.Meta.ScenarioID,
		Hash:       resp.Meta.DeterministicHash,
		ETRBand:    string(resp.ETR.Band),
		CacheHit:   cacheHit,
		Blocked:    blockedNames,
		Flags:      resp.EscalationFlags,
	})
	s.metrics.RecordEvaluation(metrics.Evaluation{
		ETRBand:  string(resp.ETR.Band),
		Cache:    outcome,
		Source:   string(meta.Source),
		Duration: elapsed,
		Blocked:  blockedNames,
		Flags:    resp.EscalationFlags,
		Warnings: len(resp.Explainability.DataQualityWarnings),
	})

	s.recordEvidence(ctx, resp, recorder.Meta{
		RequestID: meta.RequestID,
		Source:    meta.Source,
		CacheHit:  cacheHit,
		Duration:  elapsed,
	})
	if len(resp.EscalationFlags) > 0 {
		s.publish(ctx, events.NewEvaluationEvent(resp, meta.RequestID))
	}

	s.logger.InfoContext(ctx, "evaluation completed",
		"hash", resp.Meta.DeterministicHash,
		"etr_band", resp.ETR.Band,
		"blocked", len(blockedNames),
		"flags", resp.EscalationFlags,
		"cache", outcome,
		"duration", elapsed,
	)

	return resp
}

// EvaluateRecord assembles the input for a stored scenario and its asset
// records and evaluates it.
func (s *Service) EvaluateRecord(ctx context.Context, scenarioID string, meta Meta) (*engine.Response, error) {
	if s.records == nil {
		return nil, ErrNoRecordStore
	}

	rec, err := s.records.GetScenario(ctx, scenarioID)
	if err != nil {
		return nil, err
	}
	assets, err := s.records.ListAssets(ctx, scenarioID)
	if err != nil {
		return nil, err
	}
	in, err := records.BuildInput(rec, assets)
	if err != nil {
		return nil, fmt.Errorf("build input for scenario %s: %w", scenarioID, err)
	}

	return s.Evaluate(ctx, in, meta), nil
}

// Close waits for in-flight event publishes.
func (s *Service) Close() error {
	s.publishWG.Wait()
	return nil
}

func (s *Service) lookup(ctx context.Context, key string) (*engine.Response, metrics.CacheOutcome) {
	if s.cache == nil || s.cache.Name() == "none" {
		return nil, metrics.CacheDisabled
	}
	if key == "" {
		return nil, metrics.CacheMiss
	}

	backend := s.cache.Name()
	resp, ok, err := s.cache.Get(ctx, key)
	switch {
	case err != nil:
		s.metrics.RecordCacheError(backend, "get")
		s.metrics.RecordCacheResult(backend, metrics.CacheError)
		s.logger.WarnContext(ctx, "decision cache read failed", "backend", backend, "error", err)
		return nil, metrics.CacheError
	case ok:
		s.metrics.RecordCacheResult(backend, metrics.CacheHit)
		return resp, metrics.CacheHit
	default:
		s.metrics.RecordCacheResult(backend, metrics.CacheMiss)
		return nil, metrics.CacheMiss
	}
}

func (s *Service) store(ctx context.Context, key string, resp *engine.Response) {
	if err := s.cache.Set(ctx, key, resp); err != nil {
		s.metrics.RecordCacheError(s.cache.Name(), "set")
		s.logger.WarnContext(ctx, "decision cache write failed", "backend", s.cache.Name(), "error", err)
	}
}

func (s *Service) recordEvidence(ctx context.Context, resp *engine.Response, meta recorder.Meta) {
	if s.recorder == nil {
		return
	}
	// The recorder logs and counts drops itself.
	_ = s.recorder.Record(ctx, recorder.Build(resp, meta))
}

// publish sends evt in the background so a slow broker never delays the
// response.
func (s *Service) publish(ctx context.Context, evt events.Event) {
	if s.publisher == nil {
		return
	}

	ctx = context.WithoutCancel(ctx)
	s.publishWG.Add(1)
	go func() {
		defer s.publishWG.Done()

		pubCtx, cancel := context.WithTimeout(ctx, s.publishTimeout)
		defer cancel()

		err := s.publisher.Publish(pubCtx, evt)
		s.metrics.RecordEventPublished(s.publisher.Name(), err)
		if err != nil {
			s.logger.WarnContext(ctx, "event publish failed",
				"backend", s.publisher.Name(),
				"event_id", evt.ID,
				"error", err,
			)
		}
	}()
}
