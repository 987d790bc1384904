package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Clark-Hu/pricewatch/internal/app"
	"github.com/Clark-Hu/pricewatch/internal/catalog"
	"github.com/Clark-Hu/pricewatch/internal/config"
	httpserver "github.com/Clark-Hu/pricewatch/internal/http"
	"github.com/Clark-Hu/pricewatch/internal/logging"
	"github.com/Clark-Hu/pricewatch/internal/reconcile"
	"github.com/Clark-Hu/pricewatch/internal/repository"
	"github.com/Clark-Hu/pricewatch/internal/store"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err == nil {
		err = cfg.ValidateServer()
	}
	logger := logging.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		logger.WithError(err).Fatal("config error")
	}

	st, err := app.OpenStore(ctx, cfg, logger)
	if err != nil && !errors.Is(err, store.ErrFreshStore) {
		logger.WithError(err).Fatal("connect database")
	}
	defer st.Close()

	lookup, err := app.NewLookup(cfg, logger)
	if err != nil {
		logger.WithError(err).Fatal("init lookup client")
	}

	repo := repository.New(st)
	svc := catalog.NewService(st, lookup, app.CatalogOptions(cfg), logger)
	sc := reconcile.NewStoreCatalog(st, cfg.BackupDir)
	pipeline := reconcile.New(sc, lookup, sc, app.PipelineOptions(cfg), logger)
	server := httpserver.New(cfg, st, repo, svc, pipeline, logger)

	logger.WithField("port", cfg.Port).Info("http: listening")

	serverErrCh := make(chan error, 1)
	go func() {
		if err := server.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
			serverErrCh <- err
			return
		}
		serverErrCh <- nil
	}()

	select {
	case err := <-serverErrCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) && !errors.Is(err, context.Canceled) {
			logger.WithError(err).Error("server error")
		}
	case <-ctx.Done():
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.WithError(err).Warn("graceful shutdown error")
	}
}
