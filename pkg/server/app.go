package server

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"TriSight/internal/domain/repository"
	pkgch "TriSight/pkg/clickhouse"
	"TriSight/pkg/config"
	xhttp "TriSight/pkg/http"
	applogger "TriSight/pkg/logger"
)

// App encapsulates the entire application lifecycle. Shutdown order is
// HTTP server first, then the event publisher, then storage clients.
type App struct {
	cfg        *config.Config
	l          *applogger.Logger
	httpServer *xhttp.Server
	handler    xhttp.Handler
	publisher  repository.EventPublisher
	chClient   *pkgch.Client
	cache      interface{ Close() error }
}

// New creates a new App instance with all dependencies. publisher,
// chClient and cache are optional and may be nil when disabled.
func New(
	cfg *config.Config,
	l *applogger.Logger,
	handler xhttp.Handler,
	publisher repository.EventPublisher,
	chClient *pkgch.Client,
	cache interface{ Close() error },
) *App {
	return &App{
		cfg:       cfg,
		l:         l,
		handler:   handler,
		publisher: publisher,
		chClient:  chClient,
		cache:     cache,
	}
}

// Run starts the application and blocks until interrupted.
func (a *App) Run() error {
	a.httpServer = xhttp.NewServer(a.handler,
		xhttp.WithPort(a.cfg.Server.Port),
		xhttp.WithServerTimeouts(a.cfg.Server.ReadTimeout, a.cfg.Server.WriteTimeout, a.cfg.Server.ShutdownTimeout),
		xhttp.WithMetricsPath(a.metricsPath()),
		xhttp.WithLogger(a.l),
	)

	if err := a.httpServer.Start(); err != nil {
		a.l.Error("http server start error", applogger.Error(err))
		return err
	}
	a.l.Info("analysis service started",
		applogger.String("environment", a.cfg.Environment),
		applogger.Int("port", a.cfg.Server.Port),
	)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	a.l.Info("shutdown signal received")
	return a.shutdown(context.Background())
}

func (a *App) metricsPath() string {
	if !a.cfg.Metrics.Enabled {
		return ""
	}
	if a.cfg.Metrics.Path != "" {
		return a.cfg.Metrics.Path
	}
	return "/metrics"
}

// shutdown gracefully stops all services.
func (a *App) shutdown(ctx context.Context) error {
	shutdownCtx, cancel := context.WithTimeout(ctx, a.cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := a.httpServer.Stop(shutdownCtx); err != nil {
		a.l.Error("http shutdown error", applogger.Error(err))
	}

	if a.publisher != nil {
		if err := a.publisher.Close(); err != nil {
			a.l.Warn("event publisher close error", applogger.Error(err))
		}
	}

	if a.chClient != nil {
		if err := a.chClient.Close(); err != nil {
			a.l.Warn("clickhouse close error", applogger.Error(err))
		}
	}

	if a.cache != nil {
		if err := a.cache.Close(); err != nil {
			a.l.Warn("cache close error", applogger.Error(err))
		}
	}

	a.l.Info("shutdown complete")
	return nil
}
