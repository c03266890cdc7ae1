package observability

import (
	"fmt"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/leslieo2/devstack/internal/config"
)

// Logger wraps a zap logger whose level can be changed at runtime.
type Logger struct {
	*zap.Logger
	level zap.AtomicLevel
}

// NewLogger builds a zap logger from the logging configuration.
// An unparseable level falls back to info.
func NewLogger(cfg config.LoggingConfig) (*Logger, error) {
	var zapConfig zap.Config

	if cfg.Development {
		zapConfig = zap.NewDevelopmentConfig()
	} else {
		zapConfig = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		level = zapcore.InfoLevel
	}
	atom := zap.NewAtomicLevelAt(level)
	zapConfig.Level = atom

	if cfg.Format == "json" {
		zapConfig.Encoding = "json"
	} else {
		zapConfig.Encoding = "console"
	}
	zapConfig.EncoderConfig.TimeKey = "ts"
	zapConfig.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	if cfg.Output != "" {
		zapConfig.OutputPaths = []string{cfg.Output}
	}

	logger, err := zapConfig.Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build logger: %w", err)
	}

	return &Logger{Logger: logger, level: atom}, nil
}

// NewNopLogger returns a logger that discards everything.
func NewNopLogger() *Logger {
	return &Logger{Logger: zap.NewNop(), level: zap.NewAtomicLevel()}
}

// Level reports the current minimum enabled level.
func (l *Logger) Level() zapcore.Level {
	return l.level.Level()
}

// SetLevel changes the minimum enabled level of this logger and every
// logger derived from it.
func (l *Logger) SetLevel(level string) error {
	parsed, err := zapcore.ParseLevel(level)
	if err != nil {
		return fmt.Errorf("invalid log level %q: %w", level, err)
	}
	l.level.SetLevel(parsed)
	return nil
}

func (l *Logger) Sync() error {
	return l.Logger.Sync()
}
