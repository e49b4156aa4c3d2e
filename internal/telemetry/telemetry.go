// Package telemetry exports the spans produced by the items binary.
//
// Spans come from three places: the item store (one per FetchItems/AddItem),
// the api client transport (one per outgoing request) and the reference
// service handler (one per incoming request). Client and service share a
// trace through W3C traceparent/baggage headers once Setup has installed the
// propagators. Without an endpoint, spans go to the no-op provider.
package telemetry

import (
	"context"
	"os"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
)

// Settings selects whether and where spans are exported.
type Settings struct {
	// Endpoint is an OTLP/HTTP collector URL, e.g. http://localhost:4318.
	Endpoint string
	Enabled  bool

	// Version is reported as service.version when set.
	Version string
}

// Setup installs an SDK tracer provider exporting to s.Endpoint. It is a
// no-op unless s.Enabled is set and the endpoint is non-blank.
//
// Sampling follows the parent, so a service span joins whatever decision the
// calling client made. The returned shutdown flushes pending spans.
func Setup(ctx context.Context, serviceName string, s Settings) (shutdown func(context.Context) error, err error) {
	noop := func(context.Context) error { return nil }

	endpoint := strings.TrimSpace(s.Endpoint)
	if !s.Enabled || endpoint == "" {
		return noop, nil
	}

	exporter, err := otlptracehttp.New(ctx, otlptracehttp.WithEndpointURL(endpoint))
	if err != nil {
		return noop, err
	}

	res, err := resource.Merge(resource.Default(), resource.NewWithAttributes(
		semconv.SchemaURL,
		resourceAttributes(serviceName, s)...,
	))
	if err != nil {
		return noop, err
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sdktrace.ParentBased(sdktrace.AlwaysSample())),
	)

	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	return tp.Shutdown, nil
}

func resourceAttributes(serviceName string, s Settings) []attribute.KeyValue {
	attrs := []attribute.KeyValue{semconv.ServiceName(serviceName)}
	if v := strings.TrimSpace(s.Version); v != "" {
		attrs = append(attrs, semconv.ServiceVersion(v))
	}
	if host, err := os.Hostname(); err == nil {
		attrs = append(attrs, semconv.HostName(host))
	}
	return attrs
}
