package tracing

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"
)

// TracerProvider manages the lifecycle of the OpenTelemetry tracer
type TracerProvider struct {
	tp *sdktrace.TracerProvider
}

// NewTracerProvider exports spans over OTLP gRPC and installs itself as the
// global provider.
func NewTracerProvider(serviceName, serviceVersion, otlpEndpoint string) (*TracerProvider, error) {
	exporter, err := otlptracegrpc.New(
		context.Background(),
		otlptracegrpc.WithEndpoint(otlpEndpoint),
		otlptracegrpc.WithInsecure(),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create OTLP exporter: %w", err)
	}

	res, err := resource.New(
		context.Background(),
		resource.WithAttributes(
			semconv.ServiceNameKey.String(serviceName),
			semconv.ServiceVersionKey.String(serviceVersion),
			semconv.ServiceNamespaceKey.String("lineboard"),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create resource: %w", err)
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sdktrace.ParentBased(sdktrace.TraceIDRatioBased(0.1))),
	)

	otel.SetTracerProvider(tp)

	return &TracerProvider{tp: tp}, nil
}

// Shutdown flushes pending spans.
func (tp *TracerProvider) Shutdown(ctx context.Context) error {
	return tp.tp.Shutdown(ctx)
}

// MetricsTracer creates spans around metric computations and row fetches.
// Without a configured provider the spans are no-ops.
type MetricsTracer struct {
	tracer trace.Tracer
}

// NewMetricsTracer uses the global provider.
func NewMetricsTracer(serviceName string) *MetricsTracer {
	return &MetricsTracer{tracer: otel.Tracer(serviceName)}
}

// NewMetricsTracerFrom uses an explicit provider.
func NewMetricsTracerFrom(tp trace.TracerProvider, serviceName string) *MetricsTracer {
	return &MetricsTracer{tracer: tp.Tracer(serviceName)}
}

// StartComputeSpan opens the span of one service entry point.
func (mt *MetricsTracer) StartComputeSpan(ctx context.Context, kind, unit string, start, end time.Time, mode string) (context.Context, trace.Span) {
	return mt.tracer.Start(ctx, "metrics."+kind,
		trace.WithAttributes(
			attribute.String("unit.name", unit),
			attribute.String("window.start", start.Format(time.RFC3339)),
			attribute.String("window.end", end.Format(time.RFC3339)),
			attribute.String("shift.mode", mode),
			attribute.String("component", "production-service"),
		),
	)
}

// StartFetchSpan opens a child span for a row-source call.
func (mt *MetricsTracer) StartFetchSpan(ctx context.Context, operation, unit string) (context.Context, trace.Span) {
	return mt.tracer.Start(ctx, "source."+operation,
		trace.WithAttributes(
			attribute.String("unit.name", unit),
			attribute.String("component", "row-source"),
		),
	)
}

// RecordFetch annotates a fetch span with its outcome.
func (mt *MetricsTracer) RecordFetch(span trace.Span, duration time.Duration, rows int, err error) {
	span.SetAttributes(
		attribute.Int64("fetch.duration_ms", duration.Milliseconds()),
		attribute.Int("fetch.rows", rows),
	)
	if err != nil {
		mt.RecordError(span, err)
	}
}

// RecordError records an error on a span
func (mt *MetricsTracer) RecordError(span trace.Span, err error, attrs ...attribute.KeyValue) {
	span.SetStatus(codes.Error, err.Error())
	span.SetAttributes(attrs...)
	span.RecordError(err)
}
