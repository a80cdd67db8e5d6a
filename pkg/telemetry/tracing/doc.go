// Package tracing provides OpenTelemetry tracing for stormwatch.
//
// Spans are exported over OTLP gRPC with a parent-based ratio sampler. When
// tracing is disabled New returns a noop tracer, so callers never need to
// check Enabled before starting spans.
//
// The span hierarchy for an HTTP evaluation is:
//
//	HTTP POST /v1/evaluate
//	└── advisor.evaluate
//	    └── engine.evaluate
//
// # Usage
//
//	tracer, err := tracing.New(&cfg.Telemetry.Tracing, engine.Version)
//	if err != nil {
//	    return err
//	}
//	defer tracer.Shutdown(context.Background())
//
//	ctx, span := tracer.Start(ctx, "advisor.evaluate")
//	defer span.End()
//
// W3C Trace Context is propagated on incoming HTTP requests (Extract) and
// into published event headers (InjectToMap).
package tracing
