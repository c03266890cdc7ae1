// Command dashboard shows the backend message in the terminal.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/leslieo2/devstack/internal/apispec"
	"github.com/leslieo2/devstack/internal/bootstrap"
	"github.com/leslieo2/devstack/internal/client"
	"github.com/leslieo2/devstack/internal/dashboard"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM)
	defer stop()

	rt, err := bootstrap.Load(ctx, "dashboard", os.Args[1:], bootstrap.Options{Quiet: true})
	if errors.Is(err, bootstrap.ErrHelp) {
		return
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "dashboard: %v\n", err)
		os.Exit(1)
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = rt.Close(closeCtx)
	}()

	if err := run(ctx, rt); err != nil {
		fmt.Fprintf(os.Stderr, "error running dashboard: %v\n", err)
		_ = rt.Close(context.Background())
		os.Exit(1)
	}
}

func run(ctx context.Context, rt *bootstrap.Runtime) error {
	cfg := rt.Config

	opts := []client.Option{
		client.WithTimeout(cfg.Frontend.RequestTimeout),
		client.WithTracerProvider(rt.Tracer.Provider()),
		client.WithLogger(rt.Logger.Named("client")),
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

	model := dashboard.New(ctx, api, api.BaseURL())
	p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))

	_, err = p.Run()
	model.Quit()
	if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		return nil
	}
	return err
}
