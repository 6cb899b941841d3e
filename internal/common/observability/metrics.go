package observability

import (
	"context"
	"log"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/jaeger"
	"go.opentelemetry.io/otel/exporters/prometheus"
	otelmetric "go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"
	oteltrace "go.opentelemetry.io/otel/trace"
)

// Observability owns the OTel meter and tracer providers for the worker
// process. The Prometheus exporter registers with the default registry, so
// these instruments ship through the same /metrics endpoint as the rest;
// spans go to Jaeger (endpoint from OTEL_EXPORTER_JAEGER_ENDPOINT).
type Observability struct {
	meterProvider  *metric.MeterProvider
	tracerProvider *sdktrace.TracerProvider
	meter          otelmetric.Meter
	tracer         oteltrace.Tracer
	jobsHandled    otelmetric.Int64Counter
	jobDuration    otelmetric.Float64Histogram
}

func New(serviceName string) *Observability {
	o := &Observability{}

	exporter, err := prometheus.New()
	if err != nil {
		log.Printf("Failed to create Prometheus exporter: %v", err)
	} else {
		provider := metric.NewMeterProvider(metric.WithReader(exporter))
		otel.SetMeterProvider(provider)

		o.meterProvider = provider
		o.meter = provider.Meter(serviceName)

		o.jobsHandled, _ = o.meter.Int64Counter(
			"worker.jobs.handled",
			otelmetric.WithDescription("Jobs polled from the broker and dispatched to a handler"),
		)
		o.jobDuration, _ = o.meter.Float64Histogram(
			"worker.jobs.duration",
			otelmetric.WithDescription("Wall-clock time a handler held the job"),
			otelmetric.WithUnit("ms"),
		)
	}

	traceExporter, err := jaeger.New(jaeger.WithCollectorEndpoint())
	if err != nil {
		log.Printf("Failed to create Jaeger exporter: %v", err)
	} else {
		tp := sdktrace.NewTracerProvider(
			sdktrace.WithBatcher(traceExporter),
			sdktrace.WithResource(resource.NewWithAttributes(
				semconv.SchemaURL,
				semconv.ServiceName(serviceName),
			)),
		)
		otel.SetTracerProvider(tp)

		o.tracerProvider = tp
		o.tracer = tp.Tracer(serviceName)
	}

	return o
}

// StartJobSpan opens a span covering one job dispatch. The returned func ends
// the span; both are no-ops when tracing is not configured.
func (o *Observability) StartJobSpan(ctx context.Context, taskType string) (context.Context, func()) {
	if o.tracer == nil {
		return ctx, func() {}
	}
	ctx, span := o.tracer.Start(ctx, "job.handle",
		oteltrace.WithAttributes(attribute.String("task_type", taskType)))
	return ctx, func() { span.End() }
}

// RecordJobHandled counts one dispatched job and its handling time against
// the task type. Safe on a zero-value receiver.
func (o *Observability) RecordJobHandled(ctx context.Context, taskType string, elapsed time.Duration) {
	attrs := otelmetric.WithAttributes(attribute.String("task_type", taskType))
	if o.jobsHandled != nil {
		o.jobsHandled.Add(ctx, 1, attrs)
	}
	if o.jobDuration != nil {
		o.jobDuration.Record(ctx, float64(elapsed.Milliseconds()), attrs)
	}
}

func (o *Observability) Shutdown() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if o.tracerProvider != nil {
		o.tracerProvider.Shutdown(ctx)
	}
	if o.meterProvider != nil {
		o.meterProvider.Shutdown(ctx)
	}
}
