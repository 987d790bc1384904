package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"

	"github.com/Clark-Hu/pricewatch/internal/domain"
)

// PurchasesRepository manages the one purchase row each movie owns.
type PurchasesRepository struct {
	db DBTX
}

// PurchaseRecordParams fills in a placeholder purchase.
type PurchaseRecordParams struct {
	MovieID  int64
	Date     time.Time
	Amount   decimal.Decimal
	VendorID int
}

// CreatePlaceholder inserts an empty purchase row for a newly tracked movie.
func (r *PurchasesRepository) CreatePlaceholder(ctx context.Context, movieID int64) error {
	_, err := r.db.Exec(ctx, `INSERT INTO purchases (movie_id) VALUES ($1)`, movieID)
	return translateError(err)
}

// Record fills in the purchase for movieID. Movies without a purchase row
// yield ErrNotFound; unknown vendors yield ErrInvalidReference.
func (r *PurchasesRepository) Record(ctx context.Context, params PurchaseRecordParams) (domain.Purchase, error) {
	row := r.db.QueryRow(ctx, `
        UPDATE purchases
        SET purchase_date = $2, purchase_amount = $3, vendor_id = $4
        WHERE movie_id = $1
        RETURNING movie_id, purchase_date, purchase_amount, vendor_id
    `, params.MovieID, params.Date, toNumeric(params.Amount), params.VendorID)
	return scanPurchase(row)
}

// Get returns the purchase for movieID.
func (r *PurchasesRepository) Get(ctx context.Context, movieID int64) (domain.Purchase, error) {
	row := r.db.QueryRow(ctx, `
        SELECT movie_id, purchase_date, purchase_amount, vendor_id
        FROM purchases WHERE movie_id = $1
    `, movieID)
	return scanPurchase(row)
}

func scanPurchase(row interface{ Scan(...any) error }) (domain.Purchase, error) {
	var (
		p      domain.Purchase
		amount pgtype.Numeric
	)
	if err := row.Scan(&p.MovieID, &p.Date, &amount, &p.VendorID); err != nil {
		return domain.Purchase{}, translateError(err)
	}
	d, err := fromNullableNumeric(amount)
	if err != nil {
		return domain.Purchase{}, err
	}
	p.Amount = d
	return p, nil
}
