// Package metrics provides Prometheus metrics for stormwatch.
//
// # Metrics
//
//   - Evaluation metrics: evaluations by ETR band, cache outcome and source,
//     evaluation duration, blocked actions by type, escalation flags and
//     data-quality warnings
//   - HTTP metrics: requests by route, method and status, request duration
//   - Cache metrics: decision cache lookups by outcome and errors
//   - Delivery metrics: evidence records recorded, dropped or failed,
//     recorder queue depth, pruned records, published events
//
// # Usage
//
//	collector := metrics.NewCollector(&cfg.Telemetry.Metrics, nil)
//	mux.Handle(cfg.Telemetry.Metrics.Path, collector.Handler())
//
//	collector.RecordEvaluation(metrics.Evaluation{
//		ETRBand:  "MEDIUM",
//		Cache:    metrics.CacheHit,
//		Source:   "http",
//		Duration: elapsed,
//	})
//
// A nil *Collector or one built from a disabled config ignores every call,
// so components can record unconditionally.
//
// # Cardinality
//
// Action types, flags and ETR bands come from closed sets. HTTP routes are
// mux patterns, and distinct route/method/status combinations are capped;
// overflow is reported under route "other".
package metrics
