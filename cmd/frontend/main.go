// Command frontend serves the web page that displays the backend message.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"

	"github.com/leslieo2/devstack/internal/apispec"
	"github.com/leslieo2/devstack/internal/bootstrap"
	"github.com/leslieo2/devstack/internal/client"
	"github.com/leslieo2/devstack/internal/frontend"
	"github.com/leslieo2/devstack/internal/observability"
	"github.com/leslieo2/devstack/internal/server"
	"github.com/leslieo2/devstack/internal/server/middleware"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	rt, err := bootstrap.Load(ctx, "frontend", os.Args[1:], bootstrap.Options{})
	if errors.Is(err, bootstrap.ErrHelp) {
		return
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "frontend: %v\n", err)
		os.Exit(1)
	}

	if err := run(ctx, rt); err != nil {
		rt.Logger.Error("Frontend exited with error", zap.Error(err))
		_ = rt.Close(context.Background())
		os.Exit(1)
	}

	closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rt.Close(closeCtx); err != nil {
		fmt.Fprintf(os.Stderr, "frontend: %v\n", err)
	}
}

func run(ctx context.Context, rt *bootstrap.Runtime) error {
	cfg := rt.Config
	logger := rt.Logger

	opts := []client.Option{
		client.WithTimeout(cfg.Frontend.RequestTimeout),
		client.WithMetrics(rt.Metrics),
		client.WithTracerProvider(rt.Tracer.Provider()),
		client.WithLogger(logger.Named("client")),
	}
	if cfg.Frontend.ValidateContract {
		contract, err := apispec.Load()
		if err != nil {
			return err
		}
		opts = append(opts, client.WithContract(contract))
	}

	api, err := client.New(cfg.Frontend.BackendURL, opts...)
	if err != nil {
		return err
	}

	pageOpts := []frontend.Option{frontend.WithClock(observability.NewProcessClock())}
	if cfg.Observability.Metrics.Enabled {
		pageOpts = append(pageOpts, frontend.WithMetricsHandler(cfg.Observability.Metrics.Path, rt.Metrics.Handler()))
	}
	if cfg.Frontend.ProxyAPI {
		transport := otelhttp.NewTransport(nil, otelhttp.WithTracerProvider(rt.Tracer.Provider()))
		proxy, err := middleware.NewProxy(cfg.Frontend.BackendURL, cfg.Frontend.RequestTimeout, transport, logger.Named("proxy"))
		if err != nil {
			return err
		}
		pageOpts = append(pageOpts, frontend.WithAPIProxy(proxy))
	}
	page := frontend.New(api, logger.Named("page"), pageOpts...)

	if err := rt.WatchConfig(ctx); err != nil {
		logger.Warn("Hot reload disabled", zap.Error(err))
	}

	srv := server.New("frontend", cfg.Frontend.Address(), page, cfg, logger, rt.Metrics,
		server.WithPanicHandler(page.HandlePanic),
		server.WithTracer(rt.Tracer),
	)

	go func() {
		select {
		case <-srv.Ready():
		case <-ctx.Done():
			return
		}
		logger.Info("Frontend running on port "+cfg.Frontend.Port,
			zap.String("backend_url", api.BaseURL()),
			zap.Bool("proxy_api", cfg.Frontend.ProxyAPI),
		)
	}()

	return srv.Run(ctx)
}
