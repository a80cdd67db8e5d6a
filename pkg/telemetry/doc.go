// Package telemetry bundles stormwatch's observability: structured logging,
// Prometheus metrics, OpenTelemetry tracing and health endpoints.
//
//	tel, err := telemetry.New(&cfg.Telemetry, health.BuildInfo{Version: version, EngineVersion: engine.Version})
//	if err != nil {
//	    return err
//	}
//	defer tel.Shutdown(context.Background())
//
//	logger := tel.Logger()
//	tel.Metrics().RecordEvaluation(metrics.Evaluation{ETRBand: "LOW", Cache: metrics.CacheMiss})
//	ctx, span := tel.Tracer().Start(ctx, "advisor.evaluate")
//	defer span.End()
//
// Each subpackage can also be used on its own.
package telemetry
