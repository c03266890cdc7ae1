package hotreload

import (
	"context"

	"github.com/leslieo2/devstack/internal/config"
	"github.com/leslieo2/devstack/internal/observability"
)

// LogLevelReloader re-reads the configuration with the same precedence used
// at startup and applies the resulting log level.
type LogLevelReloader struct {
	configFile string
	flags      *config.CLIFlags
	logger     *observability.Logger
}

func NewLogLevelReloader(configFile string, flags *config.CLIFlags, logger *observability.Logger) *LogLevelReloader {
	return &LogLevelReloader{configFile: configFile, flags: flags, logger: logger}
}

func (r *LogLevelReloader) Name() string {
	return "log-level"
}

// Reload keeps the current level when the file no longer validates.
func (r *LogLevelReloader) Reload(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	cfg, err := config.LoadConfig(r.configFile, r.flags)
	if err != nil {
		return err
	}
	return r.logger.SetLevel(cfg.Observability.Logging.Level)
}
