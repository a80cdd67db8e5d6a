package middleware

import (
	"net/http"
	"time"

	"mercator-hq/stormwatch/pkg/telemetry/metrics"
)

// MetricsMiddleware records request count and duration by route. The route
// label is the pattern matched by the mux, so MetricsMiddleware must wrap
// the *http.ServeMux directly without replacing the request.
func MetricsMiddleware(collector *metrics.Collector) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if !collector.Enabled() {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rw := newResponseWriter(w)

			next.ServeHTTP(rw, r)

			collector.RecordHTTPRequest(routeLabel(r), r.Method, rw.statusCode, time.Since(start))
		})
	}
}
