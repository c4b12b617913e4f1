package http

import (
	"context"
	"net/http"
	"time"
)

// Deadline returns middleware that bounds each request's context by d.
// Storage calls observe the deadline; the handler still writes the response,
// so an expired deadline surfaces as the handler's own error status.
func Deadline(d time.Duration) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx, cancel := context.WithTimeout(r.Context(), d)
			defer cancel()
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
