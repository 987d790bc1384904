package store

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"sync"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
	"github.com/sirupsen/logrus"
)

// ErrFreshStore is returned by Bootstrap when the catalog schema did not exist
// and has just been created. There is nothing to query until movies are added.
var ErrFreshStore = errors.New("store: catalog was just created")

var (
	//go:embed migrations/*.sql
	migrations embed.FS

	// goose keeps its configuration in package globals.
	gooseMu sync.Mutex
)

// Migrate applies every pending embedded migration.
func Migrate(ctx context.Context, pool *pgxpool.Pool, logger logrus.FieldLogger) error {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	gooseMu.Lock()
	defer gooseMu.Unlock()

	goose.SetBaseFS(migrations)
	goose.SetLogger(logger)
	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("set migration dialect: %w", err)
	}

	db := stdlib.OpenDBFromPool(pool)
	defer db.Close()

	if err := db.PingContext(ctx); err != nil {
		return fmt.Errorf("ping before migrate: %w", err)
	}
	if err := goose.Up(db, "migrations"); err != nil {
		return fmt.Errorf("migrate catalog: %w", err)
	}
	return nil
}

// Bootstrap prepares the catalog schema. When the catalog did not exist yet it
// is created and ErrFreshStore is returned.
func (s *Store) Bootstrap(ctx context.Context) error {
	var exists bool
	if err := s.pool.QueryRow(ctx, `SELECT to_regclass('public.movies') IS NOT NULL`).Scan(&exists); err != nil {
		return fmt.Errorf("inspect catalog schema: %w", err)
	}

	if err := Migrate(ctx, s.pool, s.logger); err != nil {
		return err
	}

	if !exists {
		s.logger.Info("store: created empty catalog")
		return ErrFreshStore
	}
	return nil
}
