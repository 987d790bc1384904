package reconcile

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

// Outcome describes how a run ended.
type Outcome string

const (
	OutcomeNothingToQuery Outcome = "nothing_to_query"
	OutcomeNoPrices       Outcome = "no_prices"
	OutcomeFinished       Outcome = "finished"
)

// SkipReason tags why an item produced no price row.
type SkipReason string

const (
	SkipNoMatch          SkipReason = "no_match"
	SkipNoEligibleOffers SkipReason = "no_eligible_offers"
	SkipUnknownMovie     SkipReason = "unknown_movie"
	SkipUnknownVendor    SkipReason = "unknown_vendor"
)

// Skip records one movie or offer that was left out of the run.
type Skip struct {
	Reason SkipReason `json:"reason"`
	Movie  string     `json:"movie"`
	URL    string     `json:"url,omitempty"`
	Vendor string     `json:"vendor,omitempty"`
}

// Report summarizes one pipeline run.
type Report struct {
	RunID      string             `json:"runId"`
	RunDate    time.Time          `json:"runDate"`
	Outcome    Outcome            `json:"outcome"`
	Tracked    int                `json:"tracked"`
	Matched    int                `json:"matched"`
	Records    int                `json:"records"`
	Appended   int64              `json:"appended"`
	Skips      []Skip             `json:"skips"`
	SkipCounts map[SkipReason]int `json:"skipCounts"`
	BackupPath string             `json:"backupPath,omitempty"`
}

func (r *Report) skip(s Skip) {
	r.Skips = append(r.Skips, s)
	r.SkipCounts[s.Reason]++
}

// SkipSummary renders the per-reason counts, e.g. "no_match=2 unknown_vendor=1".
// It is empty when nothing was skipped.
func (r Report) SkipSummary() string {
	reasons := make([]string, 0, len(r.SkipCounts))
	for reason := range r.SkipCounts {
		reasons = append(reasons, string(reason))
	}
	sort.Strings(reasons)

	parts := make([]string, 0, len(reasons))
	for _, reason := range reasons {
		parts = append(parts, fmt.Sprintf("%s=%d", reason, r.SkipCounts[SkipReason(reason)]))
	}
	return strings.Join(parts, " ")
}
