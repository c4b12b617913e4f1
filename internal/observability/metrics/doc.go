// Package metrics provides Prometheus metrics registry and recording utilities.
//
// This package centralizes the business and database metrics:
//   - Book and review mutations
//   - Average rating recomputes and reconciliation
//   - Database query duration and pool usage
//
// HTTP request metrics live with the HTTP middleware. All metrics are
// registered with the Prometheus default registry and exposed via /metrics.
//
// Example usage:
//
//	import "bookshelf/internal/observability/metrics"
//
//	start := time.Now()
//	// ... recompute ...
//	metrics.RecordRatingRecompute("consistent", time.Since(start))
package metrics
