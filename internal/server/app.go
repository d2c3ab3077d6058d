// Package server owns the API application lifecycle: start the HTTP server,
// block until a shutdown signal, then close sinks and caches in order.
package server

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	drepo "CPDetect/internal/domain/repository"
	"CPDetect/pkg/cache"
	"CPDetect/pkg/config"
	xhttp "CPDetect/pkg/http"
	"CPDetect/pkg/logger"
)

// App encapsulates the API application.
type App struct {
	cfg    *config.Config
	log    *logger.Logger
	server *xhttp.Server
	store  drepo.Storage
	pub    drepo.Publisher
	cache  cache.Service
}

// New creates the App. Store and publisher may be nil when disabled.
func New(cfg *config.Config, log *logger.Logger, server *xhttp.Server, store drepo.Storage, pub drepo.Publisher, c cache.Service) *App {
	return &App{cfg: cfg, log: log, server: server, store: store, pub: pub, cache: c}
}

// Run starts the HTTP server and blocks until interrupted.
func (a *App) Run() error {
	if err := a.server.Start(); err != nil {
		return err
	}
	a.log.Info("app started",
		logger.String("env", a.cfg.Environment),
		logger.String("dataset", a.cfg.Data.Dataset),
		logger.Int("port", a.cfg.Server.Port),
	)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	a.log.Info("shutdown signal received")
	return a.shutdown()
}

func (a *App) shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), a.cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := a.server.Stop(ctx); err != nil {
		a.log.Error("http shutdown error", logger.Error(err))
	}
	if a.store != nil {
		if err := a.store.Close(); err != nil {
			a.log.Warn("store close error", logger.Error(err))
		}
	}
	if a.pub != nil {
		if err := a.pub.Close(); err != nil {
			a.log.Warn("publisher close error", logger.Error(err))
		}
	}
	if a.cache != nil {
		if err := a.cache.Close(); err != nil {
			a.log.Warn("cache close error", logger.Error(err))
		}
	}
	a.log.Info("shutdown complete")
	return nil
}
