// Package observability groups the structured logging, Prometheus metrics
// and OpenTelemetry tracing used by the API and the worker.
//
// Subpackages:
//   - logging: slog construction and request/trace id propagation
//   - metrics: business and database Prometheus metrics
//   - tracing: tracer provider setup and HTTP server spans
package observability
