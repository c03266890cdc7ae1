package observability

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	oteltrace "go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/leslieo2/devstack/internal/config"
)

type Tracer struct {
	provider oteltrace.TracerProvider
	sdk      *sdktrace.TracerProvider
}

// TracerOption customises tracer construction.
type TracerOption func(*tracerOptions)

type tracerOptions struct {
	stdout io.Writer
}

// WithStdoutWriter redirects the stdout exporter.
func WithStdoutWriter(w io.Writer) TracerOption {
	return func(o *tracerOptions) { o.stdout = w }
}

// NewTracer builds a tracer provider for the configured exporter and
// installs it, with W3C trace-context propagation, as the global provider.
// When tracing is disabled a no-op tracer is returned and globals are left alone.
func NewTracer(ctx context.Context, cfg config.TracingConfig, app config.AppConfig, opts ...TracerOption) (*Tracer, error) {
	if !cfg.Enabled {
		provider := noop.NewTracerProvider()
		return &Tracer{provider: provider}, nil
	}

	o := tracerOptions{stdout: os.Stdout}
	for _, opt := range opts {
		opt(&o)
	}

	exp, err := newExporter(ctx, cfg, o)
	if err != nil {
		return nil, err
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exp),
		sdktrace.WithSampler(sdktrace.ParentBased(sdktrace.TraceIDRatioBased(cfg.SampleRatio))),
		sdktrace.WithResource(resource.NewWithAttributes(
			semconv.SchemaURL,
			semconv.ServiceName(app.ServiceName),
			semconv.ServiceVersion(app.Version),
			semconv.DeploymentEnvironment(app.Environment),
			attribute.String("runtime.version", app.RuntimeVersion),
		)),
	)

	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	return &Tracer{provider: tp, sdk: tp}, nil
}

func newExporter(ctx context.Context, cfg config.TracingConfig, o tracerOptions) (sdktrace.SpanExporter, error) {
	switch cfg.Exporter {
	case config.TracingExporterOTLP:
		var opts []otlptracehttp.Option
		if strings.Contains(cfg.Endpoint, "://") {
			opts = append(opts, otlptracehttp.WithEndpointURL(cfg.Endpoint))
		} else {
			opts = append(opts, otlptracehttp.WithEndpoint(cfg.Endpoint), otlptracehttp.WithInsecure())
		}
		exp, err := otlptracehttp.New(ctx, opts...)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize otlp exporter: %w", err)
		}
		return exp, nil
	default:
		exp, err := stdouttrace.New(stdouttrace.WithWriter(o.stdout), stdouttrace.WithPrettyPrint())
		if err != nil {
			return nil, fmt.Errorf("failed to initialize stdouttrace exporter: %w", err)
		}
		return exp, nil
	}
}

// Enabled reports whether spans are exported.
func (t *Tracer) Enabled() bool {
	return t.sdk != nil
}

// Provider returns the provider spans are created from, for HTTP instrumentation.
func (t *Tracer) Provider() oteltrace.TracerProvider {
	return t.provider
}

// Shutdown flushes pending spans and stops the exporter.
func (t *Tracer) Shutdown(ctx context.Context) error {
	if t.sdk == nil {
		return nil
	}
	return t.sdk.Shutdown(ctx)
}
