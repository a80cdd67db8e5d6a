package middleware

import (
	"log/slog"
	"net/http"

	"mercator-hq/stormwatch/pkg/config"
	"mercator-hq/stormwatch/pkg/limits/ratelimit"
	"mercator-hq/stormwatch/pkg/telemetry/metrics"
)

// Chain wraps mux with the full middleware stack, outermost first:
// recovery, request ID, logging, CORS, rate limit, timeout, tracing, metrics.
// A nil limiter disables rate limiting.
func Chain(mux *http.ServeMux, cfg *config.ServerConfig, limiter *ratelimit.Limiter, collector *metrics.Collector, logger *slog.Logger) http.Handler {
	var handler http.Handler = mux

	handler = MetricsMiddleware(collector)(handler)
	handler = TracingMiddleware(handler)
	handler = TimeoutMiddleware(cfg.RequestTimeout)(handler)
	handler = RateLimitMiddleware(limiter, logger)(handler)
	handler = CORSMiddleware(&cfg.CORS)(handler)
	handler = LoggingMiddleware(logger)(handler)
	handler = RequestIDMiddleware(handler)
	handler = RecoveryMiddleware(logger)(handler)

	return handler
}
