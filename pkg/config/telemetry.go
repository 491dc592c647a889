package config

import (
	"context"
	"errors"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/exporters/stdout/stdoutmetric"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/propagation"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"

	"github.com/mpapenbr/track-dominance/log"
	"github.com/mpapenbr/track-dominance/version"
)

const serviceName = "track-dominance"

type Telemetry struct {
	ctx       context.Context
	tracer    *sdktrace.TracerProvider
	metrics   *sdkmetric.MeterProvider
	shutdowns []func(context.Context) error
}

// SetupTelemetry installs global trace and meter providers.
// TelemetryEndpoint "stdout" writes to stdout instead of an OTLP collector.
func SetupTelemetry(ctx context.Context) (*Telemetry, error) {
	res, err := resource.Merge(resource.Default(),
		resource.NewWithAttributes(semconv.SchemaURL,
			semconv.ServiceName(serviceName),
			semconv.ServiceVersion(version.Version),
		))
	if err != nil {
		return nil, err
	}
	ret := &Telemetry{ctx: ctx}

	traceExporter, err := newTraceExporter(ctx)
	if err != nil {
		return nil, err
	}
	ret.tracer = sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(traceExporter),
		sdktrace.WithResource(res),
	)
	ret.shutdowns = append(ret.shutdowns, ret.tracer.Shutdown)

	metricExporter, err := newMetricExporter(ctx)
	if err != nil {
		ret.Shutdown()
		return nil, err
	}
	ret.metrics = sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(sdkmetric.NewPeriodicReader(metricExporter)),
		sdkmetric.WithResource(res),
	)
	ret.shutdowns = append(ret.shutdowns, ret.metrics.Shutdown)

	otel.SetTracerProvider(ret.tracer)
	otel.SetMeterProvider(ret.metrics)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{}, propagation.Baggage{}))
	return ret, nil
}

func (t *Telemetry) Shutdown() {
	var err error
	for _, f := range t.shutdowns {
		err = errors.Join(err, f(t.ctx))
	}
	if err != nil {
		log.Warn("telemetry shutdown", log.ErrorField(err))
	}
}

func newTraceExporter(ctx context.Context) (sdktrace.SpanExporter, error) {
	if TelemetryEndpoint == "stdout" {
		return stdouttrace.New(stdouttrace.WithPrettyPrint())
	}
	return otlptracegrpc.New(ctx,
		otlptracegrpc.WithEndpoint(TelemetryEndpoint),
		otlptracegrpc.WithInsecure())
}

func newMetricExporter(ctx context.Context) (sdkmetric.Exporter, error) {
	if TelemetryEndpoint == "stdout" {
		return stdoutmetric.New()
	}
	return otlpmetricgrpc.New(ctx,
		otlpmetricgrpc.WithEndpoint(TelemetryEndpoint),
		otlpmetricgrpc.WithInsecure())
}
