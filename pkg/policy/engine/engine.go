package engine

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"mercator-hq/stormwatch/pkg/policy/rules"
	"mercator-hq/stormwatch/pkg/scenario"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// tracerName identifies spans started by the engine.
const tracerName = "mercator-hq/stormwatch/pkg/policy/engine"

// Evaluate normalizes in and evaluates it. It is a pure function of its
// arguments: now only fills Timestamps.EvaluatedAt and never affects the
// decision or the hash. It never fails.
func Evaluate(in scenario.Input, now time.Time) *Response {
	s, warnings := scenario.Normalize(in)
	return EvaluateScenario(s, warnings, now)
}

// EvaluateScenario evaluates an already normalized scenario. warnings are the
// normalization warnings; they are reported verbatim and feed the ETR band
// and the hash.
func EvaluateScenario(s scenario.Scenario, warnings []string, now time.Time) *Response {
	findings, critical, etr := runEvaluators(s, warnings)
	return Assemble(s, warnings, findings, critical.AtRisk, etr, now)
}

// runEvaluators runs every evaluator and returns the findings in resolver
// precedence order: critical loads, hazard overrides, asset risk, crews,
// then ETR (which addresses no actions).
func runEvaluators(s scenario.Scenario, warnings []string) ([]rules.Finding, rules.CriticalLoadAssessment, rules.ETREstimate) {
	assets := rules.EvaluateAssetRisk(s)
	critical := rules.EvaluateCriticalLoads(s)
	crews := rules.EvaluateCrews(s)
	overrides := rules.EvaluateHazardOverrides(s, assets)
	etr := rules.EvaluateETR(s, len(warnings), crews)

	findings := []rules.Finding{
		critical.Finding,
		overrides,
		assets.Finding,
		crews.Finding,
		etr.Finding,
	}
	return findings, critical, etr
}

// Assemble resolves the findings and builds the response envelope.
func Assemble(s scenario.Scenario, warnings []string, findings []rules.Finding, criticalLoadAtRisk bool, etr rules.ETREstimate, now time.Time) *Response {
	allowed, blocked := Resolve(findings, criticalLoadAtRisk, s)

	resp := &Response{
		AllowedActions:     allowed,
		BlockedActions:     blocked,
		EscalationFlags:    mergeFlags(findings),
		CriticalLoadAtRisk: criticalLoadAtRisk,
		ETR: ETR{
			Band:       etr.Band,
			Confidence: etr.Confidence,
			Rationale:  copyStrings(etr.Rationale),
		},
		SafetyConstraints: collectConstraints(findings),
		Explainability: Explainability{
			Drivers:             collectDrivers(findings),
			Assumptions:         mergeAssumptions(findings),
			DataQualityWarnings: copyStrings(warnings),
		},
		Timestamps: Timestamps{EvaluatedAt: now.UTC()},
		Meta: Meta{
			EngineVersion:     Version,
			DeterministicHash: mustHash(s, warnings),
			ScenarioID:        s.ScenarioID,
		},
	}
	if s.HasLastUpdated() {
		t := s.LastUpdated
		resp.Timestamps.InputLastUpdated = &t
	}
	return resp
}

// Engine wraps the pure evaluation functions with configuration, logging and
// optional tracing. It holds no mutable state and is safe for concurrent use.
type Engine struct {
	config *EngineConfig
	logger *slog.Logger
	tracer trace.Tracer
}

// New creates an Engine.
func New(config *EngineConfig, logger *slog.Logger) (*Engine, error) {
	if config == nil {
		config = DefaultEngineConfig()
	}
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	if config.Clock == nil {
		config.Clock = time.Now
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{
		config: config,
		logger: logger.With("component", "engine"),
		tracer: otel.Tracer(tracerName),
	}, nil
}

// Normalize exposes scenario.Normalize so callers can hash before evaluating.
func (e *Engine) Normalize(in scenario.Input) (scenario.Scenario, []string) {
	return scenario.Normalize(in)
}

// Now returns the engine clock's current time.
func (e *Engine) Now() time.Time {
	return e.config.Clock()
}

// Evaluate normalizes and evaluates in.
func (e *Engine) Evaluate(ctx context.Context, in scenario.Input) *Response {
	s, warnings := scenario.Normalize(in)
	return e.EvaluateScenario(ctx, s, warnings)
}

// EvaluateScenario evaluates a normalized scenario.
func (e *Engine) EvaluateScenario(ctx context.Context, s scenario.Scenario, warnings []string) *Response {
	ctx, span := e.tracer.Start(ctx, "engine.evaluate", trace.WithAttributes(
		attribute.String("scenario.id", s.ScenarioID),
		attribute.String("scenario.hazard_type", string(s.HazardType)),
		attribute.Int("scenario.warnings", len(warnings)),
	))
	defer span.End()

	start := time.Now()

	findings, critical, etr := runEvaluators(s, warnings)
	resp := Assemble(s, warnings, findings, critical.AtRisk, etr, e.config.Clock())

	elapsed := time.Since(start)
	span.SetAttributes(
		attribute.String("evaluation.hash", resp.Meta.DeterministicHash),
		attribute.String("evaluation.etr_band", string(resp.ETR.Band)),
		attribute.Int("evaluation.blocked", len(resp.BlockedActions)),
		attribute.StringSlice("evaluation.flags", resp.EscalationFlags),
	)
	if e.config.EnableTrace {
		resp.Trace = buildTrace(findings)
		resp.Trace.TotalTime = elapsed
	}

	e.logger.DebugContext(ctx, "scenario evaluated",
		"scenario_id", s.ScenarioID,
		"hash", resp.Meta.DeterministicHash,
		"etr_band", resp.ETR.Band,
		"allowed", len(resp.AllowedActions),
		"blocked", len(resp.BlockedActions),
		"flags", resp.EscalationFlags,
		"warnings", len(warnings),
		"duration", elapsed,
	)
	if t := e.config.SlowEvaluationThreshold; t > 0 && elapsed > t {
		e.logger.WarnContext(ctx, "slow scenario evaluation",
			"scenario_id", s.ScenarioID,
			"assets", len(s.Assets),
			"critical_loads", len(s.CriticalLoads),
			"duration", elapsed,
		)
	}
	return resp
}
