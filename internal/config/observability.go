package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/leslieo2/devstack/internal/constants"
)

// Supported tracing exporters
const (
	TracingExporterStdout = "stdout"
	TracingExporterOTLP   = "otlp"
)

// ObservabilityConfig contains observability-related configuration
type ObservabilityConfig struct {
	Logging LoggingConfig `json:"logging" yaml:"logging"`
	Metrics MetricsConfig `json:"metrics" yaml:"metrics"`
	Tracing TracingConfig `json:"tracing" yaml:"tracing"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level       string `json:"level" yaml:"level"`
	Format      string `json:"format" yaml:"format"`
	Output      string `json:"output" yaml:"output"`
	Development bool   `json:"development" yaml:"development"`
}

// MetricsConfig controls the Prometheus side server.
type MetricsConfig struct {
	Enabled bool   `json:"enabled" yaml:"enabled"`
	Path    string `json:"path" yaml:"path"`
}

// TracingConfig controls OpenTelemetry span export.
type TracingConfig struct {
	Enabled     bool    `json:"enabled" yaml:"enabled"`
	Exporter    string  `json:"exporter" yaml:"exporter"`
	Endpoint    string  `json:"endpoint" yaml:"endpoint"`
	SampleRatio float64 `json:"sample_ratio" yaml:"sample_ratio"`
}

// DefaultObservabilityConfig returns default observability configuration
func DefaultObservabilityConfig() ObservabilityConfig {
	return ObservabilityConfig{
		Logging: DefaultLoggingConfig(),
		Metrics: MetricsConfig{
			Enabled: true,
			Path:    constants.PathMetrics,
		},
		Tracing: TracingConfig{
			Enabled:     false,
			Exporter:    TracingExporterStdout,
			SampleRatio: 1.0,
		},
	}
}

// DefaultLoggingConfig returns default logging configuration
func DefaultLoggingConfig() LoggingConfig {
	return LoggingConfig{
		Level:       "info",
		Format:      "json",
		Output:      "stdout",
		Development: false,
	}
}

// Validate validates the observability configuration
func (o *ObservabilityConfig) Validate() error {
	var errs []error
	if err := o.Logging.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("logging: %w", err))
	}
	if err := o.Metrics.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("metrics: %w", err))
	}
	if err := o.Tracing.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("tracing: %w", err))
	}
	return errors.Join(errs...)
}

// Validate validates the logging configuration
func (l *LoggingConfig) Validate() error {
	validLevels := map[string]bool{
		"debug": true, "info": true, "warn": true, "error": true,
	}
	if !validLevels[strings.ToLower(l.Level)] {
		return fmt.Errorf("invalid level: %s, must be one of: debug, info, warn, error", l.Level)
	}

	validFormats := map[string]bool{
		"json": true, "console": true,
	}
	if !validFormats[strings.ToLower(l.Format)] {
		return fmt.Errorf("invalid format: %s, must be one of: json, console", l.Format)
	}

	if l.Output == "" {
		return fmt.Errorf("output cannot be empty")
	}
	return nil
}

// Validate validates the metrics configuration
func (m *MetricsConfig) Validate() error {
	if m.Enabled && !strings.HasPrefix(m.Path, "/") {
		return fmt.Errorf("path must start with '/', got %q", m.Path)
	}
	return nil
}

// Validate validates the tracing configuration
func (t *TracingConfig) Validate() error {
	if !t.Enabled {
		return nil
	}
	switch t.Exporter {
	case TracingExporterStdout:
	case TracingExporterOTLP:
		if t.Endpoint == "" {
			return errors.New("endpoint is required for the otlp exporter")
		}
	default:
		return fmt.Errorf("invalid exporter: %s, must be one of: stdout, otlp", t.Exporter)
	}
	if t.SampleRatio < 0 || t.SampleRatio > 1 {
		return fmt.Errorf("sample_ratio must be within [0, 1], got %v", t.SampleRatio)
	}
	return nil
}
