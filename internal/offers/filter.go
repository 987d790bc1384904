// Package offers reduces lookup results to the purchase prices worth tracking.
package offers

import (
	"github.com/shopspring/decimal"

	"github.com/Clark-Hu/pricewatch/internal/domain"
	"github.com/Clark-Hu/pricewatch/internal/justwatch"
)

// MonetizationBuy marks an offer that sells the title outright.
const MonetizationBuy = "BUY"

// Record is a normalized purchase price, keyed by names until it is joined
// against the reference tables.
type Record struct {
	Movie            string
	Vendor           string
	PresentationType domain.PresentationType
	PriceValue       decimal.Decimal
}

// Eligible reports whether an offer is a priced HD or 4K purchase.
// A zero price is still a price.
func Eligible(o justwatch.Offer) bool {
	if o.PriceValue == nil || o.MonetizationType != MonetizationBuy {
		return false
	}
	_, err := domain.ParsePresentationType(o.PresentationType)
	return err == nil
}

// Normalize keeps the eligible offers of entry in their original order.
func Normalize(entry justwatch.MediaEntry) []Record {
	var out []Record
	for _, o := range entry.Offers {
		if !Eligible(o) {
			continue
		}
		out = append(out, Record{
			Movie:            entry.Title,
			Vendor:           o.PackageName,
			PresentationType: domain.PresentationType(o.PresentationType),
			PriceValue:       *o.PriceValue,
		})
	}
	return out
}
