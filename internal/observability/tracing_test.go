package observability

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/leslieo2/devstack/internal/config"
)

func TestNewTracer_Disabled(t *testing.T) {
	tracer, err := NewTracer(context.Background(), config.TracingConfig{Enabled: false}, config.DefaultAppConfig())
	require.NoError(t, err)
	require.NotNil(t, tracer)

	assert.False(t, tracer.Enabled())
	assert.NotNil(t, tracer.Provider())

	_, span := tracer.Provider().Tracer("test").Start(context.Background(), "noop")
	assert.False(t, span.SpanContext().IsValid())
	span.End()

	assert.NoError(t, tracer.Shutdown(context.Background()))
}

func TestNewTracer_Stdout(t *testing.T) {
	var buf bytes.Buffer
	cfg := config.TracingConfig{Enabled: true, Exporter: config.TracingExporterStdout, SampleRatio: 1}

	tracer, err := NewTracer(context.Background(), cfg, config.DefaultAppConfig(), WithStdoutWriter(&buf))
	require.NoError(t, err)
	assert.True(t, tracer.Enabled())

	ctx, span := tracer.Provider().Tracer("test").Start(context.Background(), "fetch-message",
		trace.WithAttributes(
			attribute.String("test.key", "test.value"),
			attribute.Int("test.number", 42),
		),
	)
	assert.True(t, trace.SpanFromContext(ctx).SpanContext().IsValid())
	span.End()

	require.NoError(t, tracer.Shutdown(context.Background()))
	assert.Contains(t, buf.String(), "fetch-message")
	assert.Contains(t, buf.String(), "devstack")
}

func TestNewTracer_OTLP(t *testing.T) {
	cfg := config.TracingConfig{
		Enabled:     true,
		Exporter:    config.TracingExporterOTLP,
		Endpoint:    "localhost:4318",
		SampleRatio: 1,
	}

	tracer, err := NewTracer(context.Background(), cfg, config.DefaultAppConfig())
	require.NoError(t, err)
	assert.True(t, tracer.Enabled())

	// No collector is listening; shutdown must still return once the
	// context expires.
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_ = tracer.Shutdown(ctx)
}
