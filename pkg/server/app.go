package server

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"NewsEdge/internal/handler/api"
	"NewsEdge/internal/model"
	"NewsEdge/internal/service/ratelimit"
	"NewsEdge/pkg/config"
	xhttp "NewsEdge/pkg/http"
	"NewsEdge/pkg/http/middleware"
	"NewsEdge/pkg/logger"
)

// Cleanup collects shutdown hooks registered during wiring. Hooks run
// after the HTTP server stops, in registration order.
type Cleanup struct {
	funcs []func(ctx context.Context) error
}

// Add registers a shutdown hook.
func (c *Cleanup) Add(fn func(ctx context.Context) error) {
	c.funcs = append(c.funcs, fn)
}

// Funcs returns registered hooks in order.
func (c *Cleanup) Funcs() []func(ctx context.Context) error {
	return c.funcs
}

// App owns the process lifecycle: load model assets, start the HTTP
// server, wait for a signal, shut down gracefully.
type App struct {
	cfg      *config.Config
	logger   *logger.Logger
	manager  *model.Manager
	handler  *api.PredictEchoHandler
	shutdown []func(ctx context.Context) error
}

// NewApp assembles the application from its wired components.
func NewApp(
	cfg *config.Config,
	l *logger.Logger,
	manager *model.Manager,
	handler *api.PredictEchoHandler,
	cleanup *Cleanup,
) *App {
	return &App{
		cfg:      cfg,
		logger:   l,
		manager:  manager,
		handler:  handler,
		shutdown: cleanup.Funcs(),
	}
}

// Run loads assets, serves until interrupted, then shuts down. Model
// loading happens before the listener opens: the service never serves
// without a valid classifier bundle.
func (a *App) Run() error {
	ctx := context.Background()

	if err := a.manager.Load(ctx); err != nil {
		return fmt.Errorf("model assets: %w", err)
	}

	opts := []xhttp.ServerOption{
		xhttp.WithPort(a.cfg.Server.Port),
		xhttp.WithTimeouts(a.cfg.Server.ReadTimeout, a.cfg.Server.WriteTimeout, a.cfg.Server.ShutdownTimeout),
	}
	if a.cfg.Metrics.Enabled {
		path := a.cfg.Metrics.Path
		if path == "" {
			path = "/metrics"
		}
		opts = append(opts, xhttp.WithMetricsPath(path))
	}
	if a.cfg.RateLimit.Enabled {
		limiter := ratelimit.NewLimiter()
		opts = append(opts, xhttp.WithRateLimiter(
			middleware.RateLimit(limiter, a.cfg.RateLimit.RequestsPerMinute),
		))
	}

	srv := xhttp.NewServer(a.handler, opts...)
	if err := srv.Start(); err != nil {
		return fmt.Errorf("start http server: %w", err)
	}
	a.logger.Info("service started",
		logger.Int("port", a.cfg.Server.Port),
		logger.String("environment", a.cfg.Environment),
	)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit
	a.logger.Info("shutting down", logger.String("signal", sig.String()))

	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Stop(shutdownCtx); err != nil {
		a.logger.Error("http server shutdown", logger.Error(err))
	}
	for _, fn := range a.shutdown {
		if err := fn(shutdownCtx); err != nil {
			a.logger.Error("cleanup failed", logger.Error(err))
		}
	}

	a.logger.Info("service stopped")
	return nil
}
