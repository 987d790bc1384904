package repository

import (
	"context"

	"github.com/Clark-Hu/pricewatch/internal/domain"
)

// VendorsRepository reads and maintains the vendor reference table.
type VendorsRepository struct {
	db DBTX
}

// References returns every (id, name) vendor row ordered by id.
func (r *VendorsRepository) References(ctx context.Context) ([]domain.Vendor, error) {
	rows, err := r.db.Query(ctx, `SELECT vendor_id, vendor_name FROM vendors ORDER BY vendor_id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]domain.Vendor, 0)
	for rows.Next() {
		var v domain.Vendor
		if err := rows.Scan(&v.ID, &v.Name); err != nil {
			return nil, err
		}
		items = append(items, v)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

// List is an alias of References for read endpoints.
func (r *VendorsRepository) List(ctx context.Context) ([]domain.Vendor, error) {
	return r.References(ctx)
}

// GetByID fetches one vendor.
func (r *VendorsRepository) GetByID(ctx context.Context, id int) (domain.Vendor, error) {
	var v domain.Vendor
	err := r.db.QueryRow(ctx, `SELECT vendor_id, vendor_name FROM vendors WHERE vendor_id = $1`, id).Scan(&v.ID, &v.Name)
	if err != nil {
		return domain.Vendor{}, translateError(err)
	}
	return v, nil
}

// Upsert inserts a vendor or renames the existing row with the same id.
// A name already used by another id yields ErrConflict.
func (r *VendorsRepository) Upsert(ctx context.Context, v domain.Vendor) (domain.Vendor, error) {
	var out domain.Vendor
	err := r.db.QueryRow(ctx, `
        INSERT INTO vendors (vendor_id, vendor_name)
        VALUES ($1, $2)
        ON CONFLICT (vendor_id) DO UPDATE SET vendor_name = EXCLUDED.vendor_name
        RETURNING vendor_id, vendor_name
    `, v.ID, v.Name).Scan(&out.ID, &out.Name)
	if err != nil {
		return domain.Vendor{}, translateError(err)
	}
	return out, nil
}
