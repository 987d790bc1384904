// Package app turns a loaded Config into the wired components the binaries share.
package app

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/Clark-Hu/pricewatch/internal/catalog"
	"github.com/Clark-Hu/pricewatch/internal/config"
	"github.com/Clark-Hu/pricewatch/internal/justwatch"
	"github.com/Clark-Hu/pricewatch/internal/reconcile"
	"github.com/Clark-Hu/pricewatch/internal/store"
)

// StoreOptions maps pool settings from cfg.
func StoreOptions(cfg config.Config, logger logrus.FieldLogger) store.Options {
	return store.Options{
		MaxConns:               int32(cfg.DBMaxConns),
		MinConns:               int32(cfg.DBMinConns),
		MaxConnIdleTime:        time.Duration(cfg.DBMaxIdleSecs) * time.Second,
		MaxConnLifetime:        time.Duration(cfg.DBMaxLifeSecs) * time.Second,
		ConnTimeout:            time.Duration(cfg.DBConnTimeoutSecs) * time.Second,
		StatementCacheCapacity: cfg.DBStatementCache,
		Logger:                 logger,
	}
}

// OpenStore connects to the catalog and bootstraps its schema. A freshly
// created catalog is returned together with store.ErrFreshStore.
func OpenStore(ctx context.Context, cfg config.Config, logger logrus.FieldLogger) (*store.Store, error) {
	st, err := store.New(ctx, cfg.DBURL, StoreOptions(cfg, logger))
	if err != nil {
		return nil, err
	}
	if err := st.Bootstrap(ctx); err != nil {
		return st, err
	}
	return st, nil
}

// LookupTimeout is the bound applied to each lookup call.
func LookupTimeout(cfg config.Config) time.Duration {
	return time.Duration(cfg.JustWatchTimeoutSecs) * time.Second
}

// NewLookup builds the HTTP lookup client.
func NewLookup(cfg config.Config, logger logrus.FieldLogger) (*justwatch.HTTPClient, error) {
	return justwatch.NewHTTPClient(cfg.JustWatchURL, LookupTimeout(cfg), logger)
}

// PipelineOptions maps lookup and scheduling settings from cfg.
func PipelineOptions(cfg config.Config) reconcile.Options {
	return reconcile.Options{
		Country:       cfg.JustWatchCountry,
		Language:      cfg.JustWatchLanguage,
		Limit:         cfg.JustWatchResultLimit,
		BestOnly:      cfg.JustWatchBestOnly,
		Concurrency:   cfg.LookupConcurrency,
		LookupTimeout: LookupTimeout(cfg),
	}
}

// CatalogOptions maps lookup settings used when adding movies.
func CatalogOptions(cfg config.Config) catalog.Options {
	return catalog.Options{
		Country:       cfg.JustWatchCountry,
		Language:      cfg.JustWatchLanguage,
		Limit:         cfg.JustWatchResultLimit,
		BestOnly:      cfg.JustWatchBestOnly,
		LookupTimeout: LookupTimeout(cfg),
	}
}
