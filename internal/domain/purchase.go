package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Purchase is the single purchase slot a movie owns. A freshly added movie
// carries a placeholder with every field but MovieID unset.
type Purchase struct {
	MovieID  int64
	Date     *time.Time
	Amount   *decimal.Decimal
	VendorID *int
}

// Recorded reports whether the placeholder has been filled in.
func (p Purchase) Recorded() bool {
	return p.Date != nil && p.Amount != nil
}
