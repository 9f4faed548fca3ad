package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"golang.org/x/sync/errgroup"

	"github.com/florianilch/stepwise/internal/config"
	"github.com/florianilch/stepwise/internal/fixtures"
	"github.com/florianilch/stepwise/internal/server"
)

// App orchestrates the lifecycle of the stub server.
type App struct {
	server          *server.Server
	health          *Health
	addr            string
	shutdownTimeout time.Duration
	started         chan string
}

// New loads the fixtures named by cfg and creates the server.
func New(cfg config.ServerConfig) (*App, error) {
	store, err := fixtures.Load(cfg.Fixtures)
	if err != nil {
		return nil, fmt.Errorf("failed to load fixtures: %w", err)
	}
	assistantCount, stepCount := store.Counts()
	slog.Info("fixtures loaded", "dir", cfg.Fixtures, "assistants", assistantCount, "run_steps", stepCount)

	// Process and runtime metrics are served next to the request metrics.
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	health := NewHealth()
	return &App{
		server: server.New(store,
			server.WithAPIKey(cfg.APIKey),
			server.WithReadiness(health),
			server.WithRegistry(registry),
		),
		health:          health,
		addr:            cfg.Addr(),
		shutdownTimeout: cfg.ShutdownTimeout,
		started:         make(chan string, 1),
	}, nil
}

// Started receives the listen address once the server accepts connections.
func (a *App) Started() <-chan string {
	return a.started
}

// Start starts all services and blocks until ctx is done or a service fails.
// Services are shut down in reverse start order.
func (a *App) Start(ctx context.Context) error {
	g, gCtx := errgroup.WithContext(ctx)

	var shutdownFuncs []func(context.Context) error

	slog.InfoContext(gCtx, "starting server")
	serverErrCh, err := a.server.Start(gCtx, a.addr)
	if err != nil {
		return fmt.Errorf("server startup failed: %w", err)
	}
	shutdownFuncs = append(shutdownFuncs, a.server.Shutdown)

	// Monitor runtime errors - errgroup cancels context on first error
	g.Go(func() error {
		select {
		case err := <-serverErrCh:
			if err != nil {
				slog.ErrorContext(gCtx, "server runtime error", "error", err)
				return fmt.Errorf("server: %w", err)
			}
			return nil
		case <-gCtx.Done():
			return nil
		}
	})

	a.health.SetReady(true)
	a.started <- a.server.Addr()

	runtimeErr := g.Wait()
	a.health.SetReady(false)

	slog.InfoContext(gCtx, "shutting down services")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.shutdownTimeout)
	defer cancel()

	var errs []error
	if runtimeErr != nil {
		errs = append(errs, fmt.Errorf("runtime: %w", runtimeErr))
	}

	for i := len(shutdownFuncs) - 1; i >= 0; i-- {
		if err := shutdownFuncs[i](shutdownCtx); err != nil {
			slog.ErrorContext(shutdownCtx, "service shutdown failed", "error", err)
			errs = append(errs, err)
		}
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}

	slog.Info("application stopped")
	return nil
}
