package store

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sirupsen/logrus"
)

// Options controls connection-pool behaviour.
type Options struct {
	MaxConns               int32
	MinConns               int32
	MaxConnIdleTime        time.Duration
	MaxConnLifetime        time.Duration
	ConnTimeout            time.Duration
	StatementCacheCapacity int
	Logger                 logrus.FieldLogger
}

// Store hides direct access to the underlying connection pool so higher layers
// can focus on catalog logic.
type Store struct {
	pool   *pgxpool.Pool
	logger logrus.FieldLogger
	opts   Options
}

// New initializes a connection pool and validates connectivity with Ping.
func New(ctx context.Context, dbURL string, opts Options) (*Store, error) {
	logger := opts.Logger
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	logger.WithFields(logrus.Fields{
		"max":        opts.MaxConns,
		"min":        opts.MinConns,
		"idle":       opts.MaxConnIdleTime,
		"life":       opts.MaxConnLifetime,
		"stmt_cache": opts.StatementCacheCapacity,
	}).Info("store: initializing connection pool")

	cfg, err := pgxpool.ParseConfig(dbURL)
	if err != nil {
		return nil, fmt.Errorf("parse db url: %w", err)
	}

	if opts.MaxConns > 0 {
		cfg.MaxConns = opts.MaxConns
	}
	if opts.MinConns > 0 {
		cfg.MinConns = opts.MinConns
	}
	if opts.MaxConnIdleTime > 0 {
		cfg.MaxConnIdleTime = opts.MaxConnIdleTime
	}
	if opts.MaxConnLifetime > 0 {
		cfg.MaxConnLifetime = opts.MaxConnLifetime
	}
	if opts.StatementCacheCapacity >= 0 {
		cfg.ConnConfig.DefaultQueryExecMode = pgx.QueryExecModeCacheStatement
		cfg.ConnConfig.StatementCacheCapacity = opts.StatementCacheCapacity
	}

	connCtx := ctx
	if opts.ConnTimeout > 0 {
		var cancel context.CancelFunc
		connCtx, cancel = context.WithTimeout(ctx, opts.ConnTimeout)
		defer cancel()
	}

	pool, err := pgxpool.NewWithConfig(connCtx, cfg)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}

	if err := pool.Ping(connCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	logger.Info("store: database connection established")

	return &Store{pool: pool, logger: logger, opts: opts}, nil
}

// NewWithPool wraps an existing pool. The caller keeps ownership of the pool.
func NewWithPool(pool *pgxpool.Pool, logger logrus.FieldLogger) *Store {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Store{pool: pool, logger: logger}
}

// Close releases database resources.
func (s *Store) Close() {
	if s == nil || s.pool == nil {
		return
	}
	s.logger.Info("store: closing connection pool")
	s.pool.Close()
}

// HealthCheck verifies the database is reachable.
func (s *Store) HealthCheck(ctx context.Context) error {
	if s == nil || s.pool == nil {
		return fmt.Errorf("store not initialized")
	}
	checkCtx := ctx
	if s.opts.ConnTimeout > 0 {
		var cancel context.CancelFunc
		checkCtx, cancel = context.WithTimeout(ctx, s.opts.ConnTimeout)
		defer cancel()
	}
	return s.pool.Ping(checkCtx)
}

// Pool exposes the underlying pgx pool for repositories.
func (s *Store) Pool() *pgxpool.Pool {
	return s.pool
}

// WithTx runs fn inside a transaction. The transaction is committed when fn
// returns nil and rolled back otherwise.
func (s *Store) WithTx(ctx context.Context, fn func(pgx.Tx) error) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	if err := fn(tx); err != nil {
		s.logger.WithError(err).Warn("store: transaction failed, rolling back")
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}
