package reconcile

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/Clark-Hu/pricewatch/internal/domain"
	"github.com/Clark-Hu/pricewatch/internal/repository"
	"github.com/Clark-Hu/pricewatch/internal/store"
)

// StoreCatalog backs a Pipeline with the postgres catalog.
type StoreCatalog struct {
	store     *store.Store
	repo      *repository.Repository
	backupDir string
}

// NewStoreCatalog builds the Catalog and Backuper for st. Backups land below backupDir.
func NewStoreCatalog(st *store.Store, backupDir string) *StoreCatalog {
	return &StoreCatalog{store: st, repo: repository.New(st), backupDir: backupDir}
}

func (c *StoreCatalog) Tracked(ctx context.Context) ([]domain.TrackedMovie, error) {
	return c.repo.Movies.Tracked(ctx)
}

func (c *StoreCatalog) MovieRefs(ctx context.Context) ([]domain.MovieRef, error) {
	return c.repo.Movies.References(ctx)
}

func (c *StoreCatalog) VendorRefs(ctx context.Context) ([]domain.Vendor, error) {
	return c.repo.Vendors.References(ctx)
}

// AppendPrices writes rows in a single transaction.
func (c *StoreCatalog) AppendPrices(ctx context.Context, rows []domain.PriceObservation) (int64, error) {
	var n int64
	err := c.store.WithTx(ctx, func(tx pgx.Tx) error {
		var err error
		n, err = c.repo.WithTx(tx).Prices.Append(ctx, rows)
		return err
	})
	if err != nil {
		return 0, err
	}
	return n, nil
}

// Backup exports the catalog into a directory dated runDate.
func (c *StoreCatalog) Backup(ctx context.Context, runDate time.Time) (string, error) {
	return c.store.Backup(ctx, c.backupDir, runDate)
}
