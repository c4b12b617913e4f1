package tracing

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
)

const instrumentationName = "bookshelf/http"

// GetTracer returns the tracer of the current global provider. It is looked
// up on each call so a provider installed by Setup is always used.
func GetTracer() trace.Tracer {
	return otel.Tracer(instrumentationName)
}

// Config controls the process-wide tracer provider.
type Config struct {
	ServiceName string
	Version     string
	// SampleRatio is the fraction of new traces recorded; 0 keeps the
	// parent's decision and never starts new sampled traces.
	SampleRatio float64
	// Exporter receives finished spans. Nil keeps spans in-process only,
	// which still gives every request a trace ID for log correlation.
	Exporter sdktrace.SpanExporter
}

// Setup installs an SDK tracer provider and the W3C trace context
// propagator. The returned function flushes and stops the provider.
func Setup(cfg Config) (func(context.Context) error, error) {
	res, err := resource.Merge(resource.Default(), resource.NewSchemaless(
		attribute.String("service.name", cfg.ServiceName),
		attribute.String("service.version", cfg.Version),
	))
	if err != nil {
		return nil, fmt.Errorf("tracing resource: %w", err)
	}

	opts := []sdktrace.TracerProviderOption{
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sdktrace.ParentBased(sdktrace.TraceIDRatioBased(cfg.SampleRatio))),
	}
	if cfg.Exporter != nil {
		opts = append(opts, sdktrace.WithBatcher(cfg.Exporter))
	}
	tp := sdktrace.NewTracerProvider(opts...)

	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))
	return tp.Shutdown, nil
}
