package tracing

import (
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// Span attribute keys. Scenario and evaluation attributes use the
// stormwatch namespace; HTTP attributes follow OpenTelemetry conventions.
const (
	AttrRequestID  = "stormwatch.request_id"
	AttrScenarioID = "stormwatch.scenario.id"
	AttrSource     = "stormwatch.source"

	AttrHash     = "stormwatch.evaluation.hash"
	AttrETRBand  = "stormwatch.evaluation.etr_band"
	AttrCacheHit = "stormwatch.evaluation.cache_hit"
	AttrBlocked  = "stormwatch.evaluation.blocked"
	AttrFlags    = "stormwatch.evaluation.flags"

	AttrHTTPMethod = "http.request.method"
	AttrHTTPRoute  = "http.route"
	AttrHTTPStatus = "http.response.status_code"

	AttrErrorMessage = "error.message"
)

// Evaluation summarizes an evaluation for span attributes.
type Evaluation struct {
	ScenarioID string
	Hash       string
	ETRBand    string
	CacheHit   bool
	Blocked    []string
	Flags      []string
}

// SetEvaluationAttributes records e on span.
func SetEvaluationAttributes(span trace.Span, e Evaluation) {
	span.SetAttributes(
		attribute.String(AttrScenarioID, e.ScenarioID),
		attribute.String(AttrHash, e.Hash),
		attribute.String(AttrETRBand, e.ETRBand),
		attribute.Bool(AttrCacheHit, e.CacheHit),
		attribute.StringSlice(AttrBlocked, e.Blocked),
		attribute.StringSlice(AttrFlags, e.Flags),
	)
}

// SetHTTPAttributes records request and response details on span.
func SetHTTPAttributes(span trace.Span, method, route string, status int) {
	span.SetAttributes(
		attribute.String(AttrHTTPMethod, method),
		attribute.String(AttrHTTPRoute, route),
		attribute.Int(AttrHTTPStatus, status),
	)
}
