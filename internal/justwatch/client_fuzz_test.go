package justwatch

import (
	"strings"
	"testing"

	"github.com/shopspring/decimal"
)

func FuzzConvertNode(f *testing.F) {
	f.Add("Brazil", "/us/movie/brazil", "_4K", "BUY", int64(499), "1985-02-20")
	f.Add("", "", "", "", int64(0), "")

	f.Fuzz(func(t *testing.T, title, fullPath, presentation, monetization string, cents int64, releaseDate string) {
		var node titleNode
		node.Content.Title = title
		node.Content.FullPath = fullPath
		if releaseDate != "" {
			node.Content.OriginalReleaseDate = &releaseDate
		}
		price := decimal.New(cents, -2)
		offer := offerNode{MonetizationType: monetization, PresentationType: presentation}
		if cents%2 == 0 {
			offer.RetailPriceValue = &price
		}
		node.Offers = []offerNode{offer}

		entry := convertNode(node)
		if !strings.HasPrefix(entry.URL, siteURL) {
			t.Fatalf("url %q lacks site prefix", entry.URL)
		}
		if entry.Title != title {
			t.Fatalf("title changed: %q -> %q", title, entry.Title)
		}
		if len(entry.Offers) != 1 {
			t.Fatalf("offers = %d, want 1", len(entry.Offers))
		}
		if entry.Offers[0].PresentationType == "_4K" {
			t.Fatalf("_4K was not normalized")
		}
		if (offer.RetailPriceValue == nil) != (entry.Offers[0].PriceValue == nil) {
			t.Fatalf("price presence changed")
		}
	})
}
