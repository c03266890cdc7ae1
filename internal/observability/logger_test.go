package observability

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"

	"github.com/leslieo2/devstack/internal/config"
)

func TestNewLogger(t *testing.T) {
	tests := []struct {
		name      string
		config    config.LoggingConfig
		wantLevel zapcore.Level
	}{
		{
			name:      "default configuration",
			config:    config.DefaultLoggingConfig(),
			wantLevel: zapcore.InfoLevel,
		},
		{
			name: "development mode",
			config: config.LoggingConfig{
				Level:       "debug",
				Format:      "console",
				Output:      "stdout",
				Development: true,
			},
			wantLevel: zapcore.DebugLevel,
		},
		{
			name: "invalid log level",
			config: config.LoggingConfig{
				Level:  "invalid",
				Format: "json",
				Output: "stdout",
			},
			// falls back to info
			wantLevel: zapcore.InfoLevel,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger, err := NewLogger(tt.config)
			require.NoError(t, err)
			require.NotNil(t, logger)
			assert.Equal(t, tt.wantLevel, logger.Level())
		})
	}
}

func TestLogger_SetLevel(t *testing.T) {
	logger, err := NewLogger(config.DefaultLoggingConfig())
	require.NoError(t, err)

	child := logger.Named("child")
	assert.False(t, child.Core().Enabled(zapcore.DebugLevel))

	require.NoError(t, logger.SetLevel("debug"))
	assert.Equal(t, zapcore.DebugLevel, logger.Level())
	assert.True(t, child.Core().Enabled(zapcore.DebugLevel), "derived loggers share the level")

	assert.Error(t, logger.SetLevel("verbose"))
	assert.Equal(t, zapcore.DebugLevel, logger.Level())
}

func TestNewLogger_FileOutput(t *testing.T) {
	path := filepath.Join(t.TempDir(), "app.log")
	logger, err := NewLogger(config.LoggingConfig{Level: "info", Format: "json", Output: path})
	require.NoError(t, err)

	logger.Info("written to file")
	_ = logger.Sync()

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "written to file")
}

func TestNewNopLogger(t *testing.T) {
	logger := NewNopLogger()
	logger.Info("discarded")
	assert.NoError(t, logger.SetLevel("warn"))
}
