package tracing

import (
	"net/http"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
)

// TraceIDHeader echoes the server span's trace ID to the client.
const TraceIDHeader = "X-Trace-Id"

// spanWriter remembers the status code written through it.
type spanWriter struct {
	http.ResponseWriter
	status int
}

func (w *spanWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

func (w *spanWriter) Unwrap() http.ResponseWriter { return w.ResponseWriter }

// Middleware starts a server span per request, continuing any W3C trace
// context the caller sent. The span is first named "METHOD /path" and is
// renamed to the matched ServeMux pattern once routing is done, so
// "/books/17" and "/books/18" share "GET /books/{id}". Responses of 500 and
// above mark the span as failed.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		parent := otel.GetTextMapPropagator().Extract(r.Context(), propagation.HeaderCarrier(r.Header))
		ctx, span := GetTracer().Start(parent, r.Method+" "+r.URL.Path, trace.WithSpanKind(trace.SpanKindServer))
		defer span.End()

		if sc := span.SpanContext(); sc.HasTraceID() {
			w.Header().Set(TraceIDHeader, sc.TraceID().String())
		}

		sw := &spanWriter{ResponseWriter: w, status: http.StatusOK}
		r = r.WithContext(ctx)
		next.ServeHTTP(sw, r)

		nameAfterRoute(span, r)
		span.SetAttributes(
			attribute.String("http.method", r.Method),
			attribute.Int("http.status_code", sw.status),
		)
		if sw.status >= http.StatusInternalServerError {
			span.SetStatus(codes.Error, http.StatusText(sw.status))
		}
	})
}

// Route names the active server span after the matched ServeMux pattern.
// Wrap each registered handler with it when middleware between Middleware
// and the mux copies the request, which hides the pattern from Middleware.
func Route(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		nameAfterRoute(trace.SpanFromContext(r.Context()), r)
		next.ServeHTTP(w, r)
	})
}

func nameAfterRoute(span trace.Span, r *http.Request) {
	if r.Pattern == "" {
		return
	}
	span.SetName(r.Pattern)
	span.SetAttributes(attribute.String("http.route", r.Pattern))
}
