package reconcile

import (
	"time"

	"github.com/Clark-Hu/pricewatch/internal/domain"
	"github.com/Clark-Hu/pricewatch/internal/offers"
)

// references indexes the reference tables by exact name. Movie names may
// repeat, so every id sharing a name is kept in table order.
type references struct {
	movies  map[string][]int64
	vendors map[string][]int
}

func newReferences(movies []domain.MovieRef, vendors []domain.Vendor) references {
	refs := references{
		movies:  make(map[string][]int64, len(movies)),
		vendors: make(map[string][]int, len(vendors)),
	}
	for _, m := range movies {
		refs.movies[m.Name] = append(refs.movies[m.Name], m.ID)
	}
	for _, v := range vendors {
		refs.vendors[v.Name] = append(refs.vendors[v.Name], v.ID)
	}
	return refs
}

// join resolves names to ids with inner-join semantics and stamps runDate on
// every row. Records with no movie or vendor match are reported through skip.
func (refs references) join(records []offers.Record, runDate time.Time, skip func(Skip)) []domain.PriceObservation {
	var out []domain.PriceObservation
	for _, rec := range records {
		movieIDs, ok := refs.movies[rec.Movie]
		if !ok {
			skip(Skip{Reason: SkipUnknownMovie, Movie: rec.Movie, Vendor: rec.Vendor})
			continue
		}
		vendorIDs, ok := refs.vendors[rec.Vendor]
		if !ok {
			skip(Skip{Reason: SkipUnknownVendor, Movie: rec.Movie, Vendor: rec.Vendor})
			continue
		}
		for _, movieID := range movieIDs {
			for _, vendorID := range vendorIDs {
				out = append(out, domain.PriceObservation{
					MovieID:          movieID,
					VendorID:         vendorID,
					PresentationType: rec.PresentationType,
					PriceValue:       rec.PriceValue,
					Date:             runDate,
				})
			}
		}
	}
	return out
}
