package justwatch

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

const searchTitlesQuery = `query GetSearchTitles(
  $searchTitlesFilter: TitleFilter!,
  $country: Country!,
  $language: Language!,
  $first: Int!,
  $formatPoster: ImageFormat,
  $profile: PosterProfile,
  $filter: OfferFilter!
) {
  popularTitles(country: $country, filter: $searchTitlesFilter, first: $first, sortBy: POPULAR, sortRandomSeed: 0) {
    edges {
      node {
        objectId
        objectType
        content(country: $country, language: $language) {
          title
          fullPath
          originalReleaseYear
          originalReleaseDate
          runtime
          shortDescription
          posterUrl(profile: $profile, format: $formatPoster)
        }
        offers(country: $country, platform: WEB, filter: $filter) {
          monetizationType
          presentationType
          retailPriceValue
          currency
          package {
            clearName
            technicalName
          }
        }
      }
    }
  }
}`

type searchRequest struct {
	OperationName string          `json:"operationName"`
	Query         string          `json:"query"`
	Variables     searchVariables `json:"variables"`
}

type searchVariables struct {
	SearchTitlesFilter titleFilter `json:"searchTitlesFilter"`
	Country            string      `json:"country"`
	Language           string      `json:"language"`
	First              int         `json:"first"`
	FormatPoster       string      `json:"formatPoster"`
	Profile            string      `json:"profile"`
	Filter             offerFilter `json:"filter"`
}

type titleFilter struct {
	SearchQuery string `json:"searchQuery"`
}

type offerFilter struct {
	BestOnly bool `json:"bestOnly"`
}

func newSearchRequest(q Query) searchRequest {
	return searchRequest{
		OperationName: "GetSearchTitles",
		Query:         searchTitlesQuery,
		Variables: searchVariables{
			SearchTitlesFilter: titleFilter{SearchQuery: q.Title},
			Country:            q.Country,
			Language:           q.Language,
			First:              q.Limit,
			FormatPoster:       "JPG",
			Profile:            "S718",
			Filter:             offerFilter{BestOnly: q.BestOnly},
		},
	}
}

type searchResponse struct {
	Data struct {
		PopularTitles struct {
			Edges []struct {
				Node titleNode `json:"node"`
			} `json:"edges"`
		} `json:"popularTitles"`
	} `json:"data"`
	Errors []graphQLError `json:"errors"`
}

type graphQLError struct {
	Message string `json:"message"`
}

type titleNode struct {
	ObjectID   int    `json:"objectId"`
	ObjectType string `json:"objectType"`
	Content    struct {
		Title               string  `json:"title"`
		FullPath            string  `json:"fullPath"`
		OriginalReleaseYear *int    `json:"originalReleaseYear"`
		OriginalReleaseDate *string `json:"originalReleaseDate"`
		Runtime             *int    `json:"runtime"`
		ShortDescription    *string `json:"shortDescription"`
		PosterURL           *string `json:"posterUrl"`
	} `json:"content"`
	Offers []offerNode `json:"offers"`
}

type offerNode struct {
	MonetizationType string           `json:"monetizationType"`
	PresentationType string           `json:"presentationType"`
	RetailPriceValue *decimal.Decimal `json:"retailPriceValue"`
	Currency         string           `json:"currency"`
	Package          struct {
		ClearName     string `json:"clearName"`
		TechnicalName string `json:"technicalName"`
	} `json:"package"`
}

func convertNode(node titleNode) MediaEntry {
	entry := MediaEntry{
		Title:            node.Content.Title,
		URL:              siteURL + node.Content.FullPath,
		ReleaseYear:      node.Content.OriginalReleaseYear,
		RuntimeMinutes:   node.Content.Runtime,
		ShortDescription: node.Content.ShortDescription,
	}
	if node.Content.OriginalReleaseDate != nil {
		if d, err := time.Parse(time.DateOnly, *node.Content.OriginalReleaseDate); err == nil {
			entry.ReleaseDate = &d
		}
	}
	if node.Content.PosterURL != nil && *node.Content.PosterURL != "" {
		poster := *node.Content.PosterURL
		if strings.HasPrefix(poster, "/") {
			poster = imagesURL + poster
		}
		entry.Poster = &poster
	}

	entry.Offers = make([]Offer, 0, len(node.Offers))
	for _, o := range node.Offers {
		entry.Offers = append(entry.Offers, convertOffer(o))
	}
	return entry
}

func convertOffer(o offerNode) Offer {
	return Offer{
		PackageName:      o.Package.ClearName,
		MonetizationType: o.MonetizationType,
		PresentationType: normalizePresentation(o.PresentationType),
		PriceValue:       o.RetailPriceValue,
		Currency:         o.Currency,
	}
}

// normalizePresentation maps the upstream enum spelling onto the stored one.
func normalizePresentation(raw string) string {
	if raw == "_4K" {
		return "4K"
	}
	return raw
}
