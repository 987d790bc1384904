package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/Clark-Hu/pricewatch/internal/domain"
)

// PricesRepository appends and reads the price history.
type PricesRepository struct {
	db DBTX
}

var priceColumns = []string{"movie_id", "vendor_id", "presentation_type", "price_value", "date"}

// Append bulk-inserts observations and returns the number of rows written.
// Existing rows are never touched.
func (r *PricesRepository) Append(ctx context.Context, rows []domain.PriceObservation) (int64, error) {
	if len(rows) == 0 {
		return 0, nil
	}
	src := pgx.CopyFromSlice(len(rows), func(i int) ([]any, error) {
		o := rows[i]
		return []any{o.MovieID, o.VendorID, string(o.PresentationType), toNumeric(o.PriceValue), o.Date}, nil
	})
	n, err := r.db.CopyFrom(ctx, pgx.Identifier{"prices"}, priceColumns, src)
	if err != nil {
		return 0, translateError(err)
	}
	return n, nil
}

// ListByMovie returns the history for one movie, newest first.
func (r *PricesRepository) ListByMovie(ctx context.Context, movieID int64) ([]domain.PriceObservation, error) {
	rows, err := r.db.Query(ctx, `
        SELECT movie_id, vendor_id, presentation_type, price_value, date
        FROM prices
        WHERE movie_id = $1
        ORDER BY date DESC, price_id
    `, movieID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]domain.PriceObservation, 0)
	for rows.Next() {
		o, err := scanObservation(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, o)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

// Latest returns the most recent observation per vendor and presentation type.
func (r *PricesRepository) Latest(ctx context.Context, movieID int64) ([]domain.PriceObservation, error) {
	rows, err := r.db.Query(ctx, `
        SELECT DISTINCT ON (vendor_id, presentation_type)
            movie_id, vendor_id, presentation_type, price_value, date
        FROM prices
        WHERE movie_id = $1
        ORDER BY vendor_id, presentation_type, date DESC, price_id DESC
    `, movieID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]domain.PriceObservation, 0)
	for rows.Next() {
		o, err := scanObservation(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, o)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

// CountOn returns the number of rows recorded on date.
func (r *PricesRepository) CountOn(ctx context.Context, date time.Time) (int64, error) {
	var n int64
	err := r.db.QueryRow(ctx, `SELECT count(*) FROM prices WHERE date = $1`, date).Scan(&n)
	return n, err
}

// Count returns the total number of price rows.
func (r *PricesRepository) Count(ctx context.Context) (int64, error) {
	var n int64
	err := r.db.QueryRow(ctx, `SELECT count(*) FROM prices`).Scan(&n)
	return n, err
}

func scanObservation(row pgx.Row) (domain.PriceObservation, error) {
	var (
		o      domain.PriceObservation
		ptype  string
		amount pgtype.Numeric
	)
	if err := row.Scan(&o.MovieID, &o.VendorID, &ptype, &amount, &o.Date); err != nil {
		return domain.PriceObservation{}, err
	}
	pt, err := domain.ParsePresentationType(ptype)
	if err != nil {
		return domain.PriceObservation{}, err
	}
	value, err := fromNumeric(amount)
	if err != nil {
		return domain.PriceObservation{}, fmt.Errorf("price_value: %w", err)
	}
	o.PresentationType = pt
	o.PriceValue = value
	return o, nil
}
