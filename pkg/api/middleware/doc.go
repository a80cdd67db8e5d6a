// Package middleware provides the HTTP middleware of the stormwatch API.
//
// Chain assembles the standard stack around a *http.ServeMux:
//
//	Recovery → RequestID → Logging → CORS → RateLimit → Timeout → Tracing → Metrics → mux
//
// RecoveryMiddleware is outermost so panics anywhere below are answered
// with a JSON 500. LoggingMiddleware sits inside RequestIDMiddleware so
// every log line carries the request ID.
// RateLimitMiddleware sits after CORS so preflight answers are never
// throttled, and passes everything through when the limiter is nil. MetricsMiddleware wraps the
// mux directly: http.ServeMux records the matched pattern on the request it
// receives, and MetricsMiddleware and TracingMiddleware read it from there
// to label requests by route instead of raw path.
package middleware
