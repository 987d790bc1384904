package domain

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// PresentationType is the video quality of an offer.
type PresentationType string

const (
	PresentationHD PresentationType = "HD"
	Presentation4K PresentationType = "4K"
)

// ParsePresentationType accepts the stored spellings only.
func ParsePresentationType(raw string) (PresentationType, error) {
	switch PresentationType(raw) {
	case PresentationHD, Presentation4K:
		return PresentationType(raw), nil
	default:
		return "", fmt.Errorf("unknown presentation type %q", raw)
	}
}

// PriceObservation is one appended row of the prices table.
type PriceObservation struct {
	MovieID          int64
	VendorID         int
	PresentationType PresentationType
	PriceValue       decimal.Decimal
	Date             time.Time
}

// DateOnly truncates t to its calendar day in t's location and returns it as UTC midnight.
func DateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
