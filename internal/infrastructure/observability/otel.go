package observability

import (
	"context"
	"errors"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/runtime"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/propagation"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"
	"go.opentelemetry.io/otel/trace"
)

const instrumentationName = "github.com/zatekoja/clinicdesk"

// Metrics holds all application metrics
type Metrics struct {
	RequestCount        metric.Int64Counter
	RequestDuration     metric.Float64Histogram
	RefreshCount        metric.Int64Counter
	RefreshFailureCount metric.Int64Counter
	ActionCount         metric.Int64Counter
	ServedCount         metric.Int64Counter
	ServedDuration      metric.Float64Histogram
	ActiveStreams       metric.Int64UpDownCounter
}

// Setup initializes OpenTelemetry trace and metric export over OTLP/gRPC
func Setup(ctx context.Context, serviceName, serviceVersion, endpoint string) (func(context.Context) error, error) {
	res, err := resource.New(ctx,
		resource.WithAttributes(
			semconv.ServiceName(serviceName),
			semconv.ServiceVersion(serviceVersion),
		),
	)
	if err != nil {
		return nil, err
	}

	traceExporter, err := otlptracegrpc.New(ctx,
		otlptracegrpc.WithEndpoint(endpoint),
		otlptracegrpc.WithInsecure(),
	)
	if err != nil {
		return nil, err
	}

	tracerProvider := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(traceExporter),
		sdktrace.WithResource(res),
	)
	otel.SetTracerProvider(tracerProvider)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	metricExporter, err := otlpmetricgrpc.New(ctx,
		otlpmetricgrpc.WithEndpoint(endpoint),
		otlpmetricgrpc.WithInsecure(),
	)
	if err != nil {
		_ = tracerProvider.Shutdown(ctx)
		return nil, err
	}

	meterProvider := sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(sdkmetric.NewPeriodicReader(metricExporter, sdkmetric.WithInterval(15*time.Second))),
		sdkmetric.WithResource(res),
	)
	otel.SetMeterProvider(meterProvider)

	if err := runtime.Start(runtime.WithMinimumReadMemStatsInterval(time.Second)); err != nil {
		_ = tracerProvider.Shutdown(ctx)
		_ = meterProvider.Shutdown(ctx)
		return nil, err
	}

	shutdown := func(ctx context.Context) error {
		return errors.Join(
			tracerProvider.Shutdown(ctx),
			meterProvider.Shutdown(ctx),
		)
	}

	return shutdown, nil
}

// InitMetrics initializes application metrics on the global meter provider.
// Without Setup the provider is a no-op and every instrument is free.
func InitMetrics() (*Metrics, error) {
	meter := otel.Meter(instrumentationName)

	requestCount, err := meter.Int64Counter(
		"emr.client.request.count",
		metric.WithDescription("Number of EMR backend requests"),
	)
	if err != nil {
		return nil, err
	}

	requestDuration, err := meter.Float64Histogram(
		"emr.client.request.duration",
		metric.WithDescription("EMR backend request duration in milliseconds"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, err
	}

	refreshCount, err := meter.Int64Counter(
		"sync.refresh.count",
		metric.WithDescription("Number of resource refreshes"),
	)
	if err != nil {
		return nil, err
	}

	refreshFailureCount, err := meter.Int64Counter(
		"sync.refresh.failure.count",
		metric.WithDescription("Number of failed resource refreshes"),
	)
	if err != nil {
		return nil, err
	}

	actionCount, err := meter.Int64Counter(
		"sync.action.count",
		metric.WithDescription("Number of dispatched actions by outcome"),
	)
	if err != nil {
		return nil, err
	}

	servedCount, err := meter.Int64Counter(
		"display.request.count",
		metric.WithDescription("Number of requests served by the display server"),
	)
	if err != nil {
		return nil, err
	}

	servedDuration, err := meter.Float64Histogram(
		"display.request.duration",
		metric.WithDescription("Display server request duration in milliseconds"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, err
	}

	activeStreams, err := meter.Int64UpDownCounter(
		"display.stream.active",
		metric.WithDescription("Open display board streams"),
	)
	if err != nil {
		return nil, err
	}

	return &Metrics{
		RequestCount:        requestCount,
		RequestDuration:     requestDuration,
		RefreshCount:        refreshCount,
		RefreshFailureCount: refreshFailureCount,
		ActionCount:         actionCount,
		ServedCount:         servedCount,
		ServedDuration:      servedDuration,
		ActiveStreams:       activeStreams,
	}, nil
}

// StartSpan starts a new trace span
func StartSpan(ctx context.Context, spanName string) (context.Context, trace.Span) {
	tracer := otel.Tracer(instrumentationName)
	return tracer.Start(ctx, spanName)
}

// RecordError records an error in the current span
func RecordError(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
	}
}

// SetSpanAttributes sets attributes on a span
func SetSpanAttributes(span trace.Span, attrs ...attribute.KeyValue) {
	span.SetAttributes(attrs...)
}

// RecordRequestMetric records an outbound backend call
func RecordRequestMetric(ctx context.Context, metrics *Metrics, method, path string, statusCode int, duration time.Duration) {
	if metrics == nil {
		return
	}
	attrs := []attribute.KeyValue{
		attribute.String("http.method", method),
		attribute.String("http.route", path),
		attribute.Int("http.status_code", statusCode),
	}

	metrics.RequestCount.Add(ctx, 1, metric.WithAttributes(attrs...))
	metrics.RequestDuration.Record(ctx, float64(duration.Milliseconds()), metric.WithAttributes(attrs...))
}

// RecordServedMetric records a request answered by the display server.
// Streams are counted when they end, their duration is the connection lifetime.
func RecordServedMetric(ctx context.Context, metrics *Metrics, method, route string, statusCode int, duration time.Duration) {
	if metrics == nil {
		return
	}
	attrs := metric.WithAttributes(
		attribute.String("http.method", method),
		attribute.String("http.route", route),
		attribute.Int("http.status_code", statusCode),
	)
	metrics.ServedCount.Add(ctx, 1, attrs)
	metrics.ServedDuration.Record(ctx, float64(duration.Milliseconds()), attrs)
}

// TrackStream counts an open display stream until the returned func is called
func TrackStream(ctx context.Context, metrics *Metrics) func() {
	if metrics == nil {
		return func() {}
	}
	metrics.ActiveStreams.Add(ctx, 1)
	return func() { metrics.ActiveStreams.Add(context.WithoutCancel(ctx), -1) }
}

// RecordRefreshMetric records a resource refresh and whether it failed
func RecordRefreshMetric(ctx context.Context, metrics *Metrics, key string, err error) {
	if metrics == nil {
		return
	}
	attrs := metric.WithAttributes(attribute.String("resource", key))
	metrics.RefreshCount.Add(ctx, 1, attrs)
	if err != nil {
		metrics.RefreshFailureCount.Add(ctx, 1, attrs)
	}
}

// RecordActionMetric records a dispatched action by outcome
func RecordActionMetric(ctx context.Context, metrics *Metrics, action string, err error) {
	if metrics == nil {
		return
	}
	outcome := "success"
	if err != nil {
		outcome = "failure"
	}
	metrics.ActionCount.Add(ctx, 1, metric.WithAttributes(
		attribute.String("action", action),
		attribute.String("outcome", outcome),
	))
}
