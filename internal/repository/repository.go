package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Clark-Hu/pricewatch/internal/store"
)

var (
	// ErrNotFound indicates the requested entity does not exist.
	ErrNotFound = errors.New("repository: not found")
	// ErrConflict indicates a uniqueness constraint rejected the write.
	ErrConflict = errors.New("repository: already exists")
	// ErrInvalidReference indicates a write referenced a missing movie or vendor.
	ErrInvalidReference = errors.New("repository: invalid reference")
)

// DBTX is satisfied by both *pgxpool.Pool and pgx.Tx so repositories can run
// inside or outside a transaction.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	CopyFrom(ctx context.Context, tableName pgx.Identifier, columnNames []string, rowSrc pgx.CopyFromSource) (int64, error)
}

// Repository aggregates all domain-specific repositories.
type Repository struct {
	Movies    *MoviesRepository
	Vendors   *VendorsRepository
	Purchases *PurchasesRepository
	Prices    *PricesRepository
}

// New constructs a Repository backed by the provided store.
func New(st *store.Store) *Repository {
	return NewWithDB(st.Pool())
}

// NewWithPool allows constructing repositories directly from a pgx pool.
func NewWithPool(pool *pgxpool.Pool) *Repository {
	return NewWithDB(pool)
}

// NewWithDB builds repositories on any query executor.
func NewWithDB(db DBTX) *Repository {
	return &Repository{
		Movies:    &MoviesRepository{db: db},
		Vendors:   &VendorsRepository{db: db},
		Purchases: &PurchasesRepository{db: db},
		Prices:    &PricesRepository{db: db},
	}
}

// WithTx returns repositories bound to tx.
func (r *Repository) WithTx(tx pgx.Tx) *Repository {
	return NewWithDB(tx)
}

func translateError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "23505":
			return ErrConflict
		case "23503":
			return ErrInvalidReference
		}
	}
	return err
}
