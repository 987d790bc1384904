package reconcile

import (
	"strings"

	"github.com/Clark-Hu/pricewatch/internal/justwatch"
)

// StripWWW removes the "www." host prefix. Lookup urls never carry it.
func StripWWW(url string) string {
	return strings.ReplaceAll(url, "www.", "")
}

// MatchEntry returns the first entry whose url equals trackedURL once both
// sides are stripped. Comparison is exact and case-sensitive.
func MatchEntry(entries []justwatch.MediaEntry, trackedURL string) (justwatch.MediaEntry, bool) {
	target := StripWWW(trackedURL)
	for _, e := range entries {
		if StripWWW(e.URL) == target {
			return e, true
		}
	}
	return justwatch.MediaEntry{}, false
}
