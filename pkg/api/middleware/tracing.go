package middleware

import (
	"net/http"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"mercator-hq/stormwatch/pkg/telemetry/logging"
	"mercator-hq/stormwatch/pkg/telemetry/tracing"
)

// TracingMiddleware starts a server span per request, continuing any W3C
// trace context sent by the client. The span is renamed to
// "METHOD pattern" once the mux has matched a route.
func TracingMiddleware(next http.Handler) http.Handler {
	tracer := otel.Tracer(tracing.InstrumentationName)

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := tracing.Extract(r.Context(), r.Header)
		ctx, span := tracer.Start(ctx, r.Method, trace.WithSpanKind(trace.SpanKindServer))
		defer span.End()

		if id := logging.GetRequestID(ctx); id != "" {
			span.SetAttributes(attribute.String(tracing.AttrRequestID, id))
		}
		if sc := span.SpanContext(); sc.IsValid() {
			ctx = logging.WithTraceID(ctx, sc.TraceID().String())
			ctx = logging.WithSpanID(ctx, sc.SpanID().String())
		}

		rw := newResponseWriter(w)
		req := r.WithContext(ctx)
		next.ServeHTTP(rw, req)

		route := routeLabel(req)
		span.SetName(r.Method + " " + route)
		tracing.SetHTTPAttributes(span, r.Method, route, rw.statusCode)
		if rw.statusCode >= 500 {
			span.SetStatus(codes.Error, http.StatusText(rw.statusCode))
		}
	})
}
