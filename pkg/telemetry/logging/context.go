package logging

import (
	"context"
)

// Context keys for common log fields.
type contextKey string

const (
	// RequestIDKey is the context key for request IDs.
	RequestIDKey contextKey = "request_id"

	// ScenarioIDKey is the context key for scenario identifiers.
	ScenarioIDKey contextKey = "scenario_id"

	// SourceKey is the context key for the evaluation source (http, cli, record).
	SourceKey contextKey = "source"

	// TraceIDKey is the context key for trace IDs.
	TraceIDKey contextKey = "trace_id"

	// SpanIDKey is the context key for span IDs.
	SpanIDKey contextKey = "span_id"
)

// contextFields lists the keys extracted into log records, in output order.
var contextFields = []contextKey{RequestIDKey, ScenarioIDKey, SourceKey, TraceIDKey, SpanIDKey}

// WithRequestID adds a request ID to the context.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, RequestIDKey, requestID)
}

// GetRequestID retrieves the request ID from the context.
func GetRequestID(ctx context.Context) string {
	return getString(ctx, RequestIDKey)
}

// WithScenarioID adds a scenario identifier to the context.
func WithScenarioID(ctx context.Context, scenarioID string) context.Context {
	return context.WithValue(ctx, ScenarioIDKey, scenarioID)
}

// GetScenarioID retrieves the scenario identifier from the context.
func GetScenarioID(ctx context.Context) string {
	return getString(ctx, ScenarioIDKey)
}

// WithSource adds the evaluation source to the context.
func WithSource(ctx context.Context, source string) context.Context {
	return context.WithValue(ctx, SourceKey, source)
}

// GetSource retrieves the evaluation source from the context.
func GetSource(ctx context.Context) string {
	return getString(ctx, SourceKey)
}

// WithTraceID adds a trace ID to the context.
func WithTraceID(ctx context.Context, traceID string) context.Context {
	return context.WithValue(ctx, TraceIDKey, traceID)
}

// GetTraceID retrieves the trace ID from the context.
func GetTraceID(ctx context.Context) string {
	return getString(ctx, TraceIDKey)
}

// WithSpanID adds a span ID to the context.
func WithSpanID(ctx context.Context, spanID string) context.Context {
	return context.WithValue(ctx, SpanIDKey, spanID)
}

// GetSpanID retrieves the span ID from the context.
func GetSpanID(ctx context.Context) string {
	return getString(ctx, SpanIDKey)
}

func getString(ctx context.Context, key contextKey) string {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(key).(string); ok {
		return v
	}
	return ""
}
