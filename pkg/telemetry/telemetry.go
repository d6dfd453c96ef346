// Package telemetry configures the OpenTelemetry SDK for the service.
package telemetry

import (
	"context"
	"fmt"
	"os"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.4.0"
	"go.opentelemetry.io/otel/trace"
)

// Config defines the information needed to init tracing.
type Config struct {
	ServiceName string
	// Host of the otlp collector. The literal value "stdout" or an empty
	// host switches to the stdout exporter, used in dev and tests.
	Host           string
	ExcludedRoutes map[string]struct{}
	Probability    float64
}

// Setup initializes the trace provider and registers it globally. The
// returned teardown flushes pending spans.
func Setup(cfg Config) (trace.TracerProvider, func(ctx context.Context), error) {
	var exporter sdktrace.SpanExporter
	var err error

	switch cfg.Host {
	case "", "stdout":
		exporter, err = stdouttrace.New(stdouttrace.WithWriter(os.Stdout), stdouttrace.WithPrettyPrint())
	default:
		exporter, err = otlptrace.New(
			context.Background(),
			otlptracegrpc.NewClient(
				otlptracegrpc.WithInsecure(),
				otlptracegrpc.WithEndpoint(cfg.Host),
			),
		)
	}
	if err != nil {
		return nil, nil, fmt.Errorf("creating exporter: %w", err)
	}

	res := sdktrace.WithResource(resource.NewWithAttributes(
		semconv.SchemaURL,
		semconv.ServiceNameKey.String(cfg.ServiceName),
	))

	batcher := sdktrace.WithBatcher(exporter,
		sdktrace.WithMaxExportBatchSize(sdktrace.DefaultMaxExportBatchSize),
		sdktrace.WithBatchTimeout(sdktrace.DefaultScheduleDelay*time.Millisecond),
	)

	sampler := sdktrace.WithSampler(newEndpointExcluder(cfg.ExcludedRoutes, cfg.Probability))

	provider := sdktrace.NewTracerProvider(batcher, sampler, res)
	teardown := func(ctx context.Context) {
		provider.Shutdown(ctx)
	}

	otel.SetTracerProvider(provider)

	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	return provider, teardown, nil
}

//==============================================================================
// Custom sampler that keeps noise endpoints like health checks out of traces.

type endpointExcluder struct {
	endpoints   map[string]struct{}
	probability float64
}

func newEndpointExcluder(endpoints map[string]struct{}, probability float64) endpointExcluder {
	return endpointExcluder{
		endpoints:   endpoints,
		probability: probability,
	}
}

func endpoint(parameters sdktrace.SamplingParameters) string {
	var path, query string

	for _, attr := range parameters.Attributes {
		switch attr.Key {
		case "url.path":
			path = attr.Value.AsString()
		case "url.query":
			query = attr.Value.AsString()
		}
	}

	switch {
	case path == "":
		return ""
	case query == "":
		return path
	default:
		return fmt.Sprintf("%s?%s", path, query)
	}
}

// ShouldSample implements the sampler interface.
func (ee endpointExcluder) ShouldSample(parameters sdktrace.SamplingParameters) sdktrace.SamplingResult {
	if ep := endpoint(parameters); ep != "" {
		if _, exists := ee.endpoints[ep]; exists {
			return sdktrace.SamplingResult{Decision: sdktrace.Drop}
		}
	}

	return sdktrace.TraceIDRatioBased(ee.probability).ShouldSample(parameters)
}

// Description implements the sampler interface.
func (endpointExcluder) Description() string {
	return "endpointExcluder"
}
