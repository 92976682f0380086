package observability

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/prometheus"
	otelmetric "go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/sdk/metric"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

// Observability bundles the OTel meter and tracer used by the coordinator.
// A zero value is safe to use and records nothing.
type Observability struct {
	meterProvider  *metric.MeterProvider
	tracerProvider *sdktrace.TracerProvider
	tracer         trace.Tracer
	eventCounter   otelmetric.Int64Counter
	eventDuration  otelmetric.Float64Histogram
}

func New(serviceName string) (*Observability, error) {
	exporter, err := prometheus.New()
	if err != nil {
		return nil, err
	}

	provider := metric.NewMeterProvider(metric.WithReader(exporter))
	otel.SetMeterProvider(provider)

	tracerProvider := sdktrace.NewTracerProvider()
	otel.SetTracerProvider(tracerProvider)

	meter := provider.Meter(serviceName)

	eventCounter, err := meter.Int64Counter(
		"hub.events",
		otelmetric.WithDescription("Number of inbound events handled"),
	)
	if err != nil {
		return nil, err
	}

	eventDuration, err := meter.Float64Histogram(
		"hub.events.duration",
		otelmetric.WithDescription("Synchronous event handling duration"),
		otelmetric.WithUnit("ms"),
	)
	if err != nil {
		return nil, err
	}

	return &Observability{
		meterProvider:  provider,
		tracerProvider: tracerProvider,
		tracer:         tracerProvider.Tracer(serviceName),
		eventCounter:   eventCounter,
		eventDuration:  eventDuration,
	}, nil
}

// StartSpan opens a span named after the event being handled.
func (o *Observability) StartSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	if o == nil || o.tracer == nil {
		return noop.NewTracerProvider().Tracer("").Start(ctx, name)
	}
	return o.tracer.Start(ctx, name, trace.WithAttributes(attrs...))
}

func (o *Observability) RecordEvent(ctx context.Context, event, status string, duration time.Duration) {
	if o == nil {
		return
	}
	attrs := otelmetric.WithAttributes(
		attribute.String("event", event),
		attribute.String("status", status),
	)
	if o.eventCounter != nil {
		o.eventCounter.Add(ctx, 1, attrs)
	}
	if o.eventDuration != nil {
		o.eventDuration.Record(ctx, float64(duration.Microseconds())/1000, attrs)
	}
}

func (o *Observability) Shutdown(ctx context.Context) error {
	if o == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if o.tracerProvider != nil {
		if err := o.tracerProvider.Shutdown(ctx); err != nil {
			return err
		}
	}
	if o.meterProvider != nil {
		return o.meterProvider.Shutdown(ctx)
	}
	return nil
}
