// Package apm configures the global OpenTelemetry trace provider.
package apm

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/exporters/zipkin"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.10.0"

	"github.com/fd1az/wallet-dashboard/internal/logger"
)

type Provider string

const (
	NewRelicProvider  Provider = "newrelic"
	ZipkinProvider    Provider = "zipkin"
	HoneycombProvider Provider = "honeycomb"
	ConsoleProvider   Provider = "console"
	EmptyProvider     Provider = "empty"
)

type TraceProvider interface {
	Stop() error
}

type traceProvider struct {
	tp *sdktrace.TracerProvider
}

type emptyTraceProvider struct{}

func (emptyTraceProvider) Stop() error { return nil }

// Options selects and configures the span exporter.
type Options struct {
	Provider    Provider
	ServiceName string
	// Endpoint is the collector URL. Zipkin expects the full
	// /api/v2/spans URL; OTLP exporters take the base URL.
	Endpoint string
	// Headers is a comma separated key=value list sent with OTLP exports.
	Headers string
	// Protocol is "grpc" (default) or "http/protobuf" for OTLP.
	Protocol string
	// ConsoleWriter receives pretty-printed spans for ConsoleProvider.
	ConsoleWriter io.Writer
}

// NewTraceProvider installs a global tracer provider. An unknown provider
// or an empty one yields a no-op provider.
func NewTraceProvider(log logger.LoggerInterface, opts Options) (TraceProvider, error) {
	ctx := context.Background()

	exp, err := newExporter(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("create %s exporter: %w", opts.Provider, err)
	}
	if exp == nil {
		log.Warn(ctx, "trace provider not configured, tracing disabled", "provider", string(opts.Provider))
		return emptyTraceProvider{}, nil
	}

	rsrc, err := resource.Merge(
		resource.Default(),
		resource.NewWithAttributes(
			semconv.SchemaURL,
			semconv.ServiceNameKey.String(opts.ServiceName),
			attribute.String("otel.provider", string(opts.Provider)),
		))
	if err != nil {
		// Schema URL conflicts with the default resource; keep ours only.
		rsrc = resource.NewSchemaless(semconv.ServiceNameKey.String(opts.ServiceName))
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithSampler(sdktrace.AlwaysSample()),
		sdktrace.WithBatcher(exp),
		sdktrace.WithResource(rsrc),
	)

	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(
		propagation.NewCompositeTextMapPropagator(
			propagation.TraceContext{},
			propagation.Baggage{},
		))

	log.Info(ctx, "trace provider started",
		"provider", string(opts.Provider),
		"endpoint", opts.Endpoint)

	return &traceProvider{tp}, nil
}

func newExporter(ctx context.Context, opts Options) (sdktrace.SpanExporter, error) {
	switch opts.Provider {
	case ZipkinProvider:
		return zipkin.New(opts.Endpoint)

	case ConsoleProvider:
		w := opts.ConsoleWriter
		if w == nil {
			w = io.Discard
		}
		return stdouttrace.New(stdouttrace.WithWriter(w), stdouttrace.WithPrettyPrint())

	case NewRelicProvider:
		return otlptracegrpc.New(ctx,
			otlptracegrpc.WithEndpoint(opts.Endpoint),
			otlptracegrpc.WithHeaders(map[string]string{"api-key": opts.Headers}),
		)

	case HoneycombProvider:
		headers, err := ParseHeaders(opts.Headers)
		if err != nil {
			return nil, err
		}
		if opts.Protocol == "http/protobuf" {
			return otlptracehttp.New(ctx,
				otlptracehttp.WithEndpointURL(opts.Endpoint),
				otlptracehttp.WithHeaders(headers),
			)
		}
		return otlptracegrpc.New(ctx,
			otlptracegrpc.WithEndpointURL(opts.Endpoint),
			otlptracegrpc.WithHeaders(headers),
		)
	}

	return nil, nil
}

// ParseHeaders parses "k1=v1,k2=v2".
func ParseHeaders(s string) (map[string]string, error) {
	headers := make(map[string]string)
	if strings.TrimSpace(s) == "" {
		return headers, nil
	}
	for _, pair := range strings.Split(s, ",") {
		k, v, ok := strings.Cut(strings.TrimSpace(pair), "=")
		if !ok || k == "" {
			return nil, fmt.Errorf("invalid header %q, expected key=value", pair)
		}
		headers[k] = v
	}
	return headers, nil
}

func (o *traceProvider) Stop() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	return o.tp.Shutdown(ctx)
}
