// Package bootstrap holds the startup sequence shared by the binaries:
// flags, .env, configuration, logging, tracing and config hot reload.
package bootstrap

import (
	"context"
	"errors"
	"io"

	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/leslieo2/devstack/internal/config"
	"github.com/leslieo2/devstack/internal/hotreload"
	"github.com/leslieo2/devstack/internal/observability"
)

// ErrHelp is returned by Load when -h or --help was requested.
var ErrHelp = pflag.ErrHelp

// Runtime is everything a binary needs after startup.
type Runtime struct {
	Name    string
	Config  *config.Config
	Flags   *config.CLIFlags
	Logger  *observability.Logger
	Tracer  *observability.Tracer
	Metrics *observability.Metrics
}

// Options tune Load for a particular binary.
type Options struct {
	// DotEnvFiles are loaded before the environment is read. Defaults to .env.
	DotEnvFiles []string
	// Quiet discards log output bound for stdout, for programs that own
	// the terminal.
	Quiet bool
	// Output receives usage and flag errors; nil keeps the pflag default.
	Output io.Writer
	// TracerOptions are passed to the tracer.
	TracerOptions []observability.TracerOption
}

// Load parses args, reads .env files and the configuration, and builds the
// logger, tracer and metrics of the named binary.
func Load(ctx context.Context, name string, args []string, opts Options) (*Runtime, error) {
	fs := pflag.NewFlagSet(name, pflag.ContinueOnError)
	if opts.Output != nil {
		fs.SetOutput(opts.Output)
	}
	flags := config.RegisterFlags(fs)
	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	dotEnv := opts.DotEnvFiles
	if len(dotEnv) == 0 {
		dotEnv = []string{".env"}
	}
	if err := config.LoadDotEnv(dotEnv...); err != nil {
		return nil, err
	}

	cfg, err := config.LoadConfig(flags.ConfigPath(), flags)
	if err != nil {
		return nil, err
	}

	var logger *observability.Logger
	if opts.Quiet && cfg.Observability.Logging.Output == "stdout" {
		logger = observability.NewNopLogger()
	} else {
		logger, err = observability.NewLogger(cfg.Observability.Logging)
		if err != nil {
			return nil, err
		}
	}

	tracer, err := observability.NewTracer(ctx, cfg.Observability.Tracing, cfg.App, opts.TracerOptions...)
	if err != nil {
		_ = logger.Sync()
		return nil, err
	}

	return &Runtime{
		Name:    name,
		Config:  cfg,
		Flags:   flags,
		Logger:  logger,
		Tracer:  tracer,
		Metrics: observability.NewMetrics(),
	}, nil
}

// WatchConfig re-applies the log level whenever the config file changes,
// until ctx is done. It does nothing without a config file or when hot
// reload is disabled.
func (rt *Runtime) WatchConfig(ctx context.Context) error {
	path := rt.Flags.ConfigPath()
	if path == "" || !rt.Config.HotReload.Enabled {
		return nil
	}

	manager, err := hotreload.NewManager(rt.Config.HotReload.Debounce, rt.Logger.Named("hotreload"))
	if err != nil {
		return err
	}
	if err := manager.WatchFile(path); err != nil {
		manager.Stop()
		return err
	}
	if err := manager.RegisterReloadable(hotreload.NewLogLevelReloader(path, rt.Flags, rt.Logger)); err != nil {
		manager.Stop()
		return err
	}
	if err := manager.Start(); err != nil {
		manager.Stop()
		return err
	}

	go func() { _ = manager.Run(ctx) }()

	rt.Logger.Info("Hot reload enabled", zap.String("config", path))
	return nil
}

// Close flushes spans and logs.
func (rt *Runtime) Close(ctx context.Context) error {
	var errs []error
	if rt.Tracer != nil {
		if err := rt.Tracer.Shutdown(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	// Sync on a console fd reports EINVAL on some platforms; it is not actionable.
	_ = rt.Logger.Sync()
	return errors.Join(errs...)
}
