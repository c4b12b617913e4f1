// Package tracing provides OpenTelemetry tracing integration.
//
// Setup installs the SDK tracer provider; Middleware starts one server span
// per HTTP request. Use-case packages create child spans with their own
// otel.Tracer.
//
// Example usage:
//
//	shutdown, err := tracing.Setup(tracing.Config{ServiceName: "bookshelf-api", SampleRatio: 1})
//	if err != nil { ... }
//	defer func() { _ = shutdown(context.Background()) }()
//
//	handler := tracing.Middleware(mux)
package tracing
