// Command backend serves the greeting, health and message API.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/leslieo2/devstack/internal/apispec"
	"github.com/leslieo2/devstack/internal/backend"
	"github.com/leslieo2/devstack/internal/bootstrap"
	"github.com/leslieo2/devstack/internal/observability"
	"github.com/leslieo2/devstack/internal/server"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	rt, err := bootstrap.Load(ctx, "backend", os.Args[1:], bootstrap.Options{})
	if errors.Is(err, bootstrap.ErrHelp) {
		return
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "backend: %v\n", err)
		os.Exit(1)
	}

	if err := run(ctx, rt); err != nil {
		rt.Logger.Error("Backend exited with error", zap.Error(err))
		_ = rt.Close(context.Background())
		os.Exit(1)
	}

	closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rt.Close(closeCtx); err != nil {
		fmt.Fprintf(os.Stderr, "backend: %v\n", err)
	}
}

func run(ctx context.Context, rt *bootstrap.Runtime) error {
	cfg := rt.Config
	logger := rt.Logger

	contract, err := apispec.Load()
	if err != nil {
		return err
	}

	api := backend.New(backend.NewAppInfo(cfg.App, observability.NewProcessClock()), logger.Named("api"))
	if err := api.VerifyContract(contract); err != nil {
		return fmt.Errorf("route table does not cover the API contract: %w", err)
	}

	if err := rt.WatchConfig(ctx); err != nil {
		logger.Warn("Hot reload disabled", zap.Error(err))
	}

	srv := server.New("backend", cfg.Server.Address(), api, cfg, logger, rt.Metrics,
		server.WithPanicHandler(api.HandlePanic),
		server.WithMetricsServer(),
		server.WithTracer(rt.Tracer),
	)

	go func() {
		select {
		case <-srv.Ready():
		case <-ctx.Done():
			return
		}
		base := fmt.Sprintf("http://localhost:%s", cfg.Server.Port)
		logger.Info("Backend server running on port "+cfg.Server.Port,
			zap.String("environment", cfg.App.Environment),
			zap.String("runtime_version", cfg.App.RuntimeVersion),
		)
		logger.Info("Health check: " + base + "/health")
		logger.Info("API endpoint: " + base + "/api/message")
	}()

	return srv.Run(ctx)
}
