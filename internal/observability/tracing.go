// Package observability provides logging, metrics, and tracing helpers.
package observability

import (
	"context"
	"fmt"
	"runtime/debug"

	"ainews/internal/config"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.24.0"
	"go.opentelemetry.io/otel/trace"
)

// ServiceName identifies the API in traces and resource attributes.
const ServiceName = "ainews-api"

// StoreBackendKey records which repository implementation served the spans.
const StoreBackendKey = attribute.Key("ainews.store_backend")

// Tracer is used by StartSpan. InitTracing replaces it once a provider exists.
var Tracer trace.Tracer = otel.Tracer(ServiceName)

// TracingConfig is the subset of the app config that shapes the tracer.
type TracingConfig struct {
	Enabled      bool
	Exporter     string // stdout, otlp or none
	OTLPEndpoint string
	Insecure     bool
	SampleRate   float64
	Version      string
	Environment  string
	StoreBackend string
}

// NewTracingConfig derives tracing settings from cfg. OTLP only goes over
// plain HTTP outside production.
func NewTracingConfig(cfg *config.Config) TracingConfig {
	return TracingConfig{
		Enabled:      cfg.TracingEnabled && cfg.TracingExporter != "none",
		Exporter:     cfg.TracingExporter,
		OTLPEndpoint: cfg.TracingEndpoint,
		Insecure:     !cfg.IsProduction(),
		SampleRate:   cfg.TracingSampleRate,
		Version:      cfg.Version,
		Environment:  cfg.Env,
		StoreBackend: cfg.StoreBackend,
	}
}

// ServiceVersion is the configured version, else the module version baked
// in by `go build`, else "dev".
func (c TracingConfig) ServiceVersion() string {
	if c.Version != "" {
		return c.Version
	}
	if info, ok := debug.ReadBuildInfo(); ok && info.Main.Version != "" && info.Main.Version != "(devel)" {
		return info.Main.Version
	}
	return "dev"
}

// InitTracing installs the global tracer provider and propagator.
// The returned func flushes and stops the exporter.
func InitTracing(ctx context.Context, cfg TracingConfig) (func(context.Context) error, error) {
	if !cfg.Enabled {
		Tracer = otel.Tracer(ServiceName)
		return func(context.Context) error { return nil }, nil
	}

	exporter, err := newExporter(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create tracing exporter: %w", err)
	}
	res, err := NewResource(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create resource: %w", err)
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
		sdktrace.WithSampler(newSampler(cfg.SampleRate)),
	)

	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))
	Tracer = tp.Tracer(ServiceName, trace.WithInstrumentationVersion(cfg.ServiceVersion()))

	return tp.Shutdown, nil
}

func newExporter(ctx context.Context, cfg TracingConfig) (sdktrace.SpanExporter, error) {
	switch cfg.Exporter {
	case "otlp":
		opts := []otlptracehttp.Option{otlptracehttp.WithEndpoint(cfg.OTLPEndpoint)}
		if cfg.Insecure {
			opts = append(opts, otlptracehttp.WithInsecure())
		}
		return otlptracehttp.New(ctx, opts...)
	case "stdout", "":
		return stdouttrace.New(stdouttrace.WithPrettyPrint())
	default:
		return nil, fmt.Errorf("unknown exporter %q", cfg.Exporter)
	}
}

// NewResource describes this deployment of the API. OTEL_RESOURCE_ATTRIBUTES
// may add to it; the service attributes always win.
func NewResource(ctx context.Context, cfg TracingConfig) (*resource.Resource, error) {
	attrs := []attribute.KeyValue{
		semconv.ServiceName(ServiceName),
		semconv.ServiceVersion(cfg.ServiceVersion()),
	}
	if cfg.Environment != "" {
		attrs = append(attrs, semconv.DeploymentEnvironment(cfg.Environment))
	}
	if cfg.StoreBackend != "" {
		attrs = append(attrs, StoreBackendKey.String(cfg.StoreBackend))
	}
	return resource.New(ctx,
		resource.WithFromEnv(),
		resource.WithHost(),
		resource.WithProcessRuntimeVersion(),
		resource.WithAttributes(attrs...),
	)
}

func newSampler(rate float64) sdktrace.Sampler {
	switch {
	case rate >= 1:
		return sdktrace.AlwaysSample()
	case rate <= 0:
		return sdktrace.NeverSample()
	default:
		return sdktrace.ParentBased(sdktrace.TraceIDRatioBased(rate))
	}
}

// StartSpan starts an internal span for a service method.
// The returned finish func records err (if non-nil) and ends the span.
func StartSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, func(err error)) {
	ctx, span := Tracer.Start(ctx, name,
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(attrs...),
	)
	return ctx, func(err error) {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}
}
