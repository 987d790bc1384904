// Package reconcile matches tracked movies to lookup offers and appends the
// resulting price observations to the catalog.
package reconcile

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/Clark-Hu/pricewatch/internal/domain"
	"github.com/Clark-Hu/pricewatch/internal/justwatch"
	"github.com/Clark-Hu/pricewatch/internal/offers"
)

// Catalog is the store surface a run reads and writes.
type Catalog interface {
	Tracked(ctx context.Context) ([]domain.TrackedMovie, error)
	MovieRefs(ctx context.Context) ([]domain.MovieRef, error)
	VendorRefs(ctx context.Context) ([]domain.Vendor, error)
	// AppendPrices writes all rows atomically or none of them.
	AppendPrices(ctx context.Context, rows []domain.PriceObservation) (int64, error)
}

// Backuper snapshots the catalog after a successful append.
type Backuper interface {
	Backup(ctx context.Context, runDate time.Time) (string, error)
}

// Options tunes lookups and scheduling.
type Options struct {
	Country       string
	Language      string
	Limit         int
	BestOnly      bool
	Concurrency   int
	LookupTimeout time.Duration
	// Now supplies the run date. Defaults to time.Now.
	Now func() time.Time
}

// Pipeline runs one reconciliation pass per call to Run.
type Pipeline struct {
	catalog Catalog
	lookup  justwatch.Client
	backup  Backuper
	opts    Options
	logger  logrus.FieldLogger
}

// New wires a pipeline. backup may be nil to skip the snapshot step.
func New(catalog Catalog, lookup justwatch.Client, backup Backuper, opts Options, logger logrus.FieldLogger) *Pipeline {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	if opts.Concurrency <= 0 {
		opts.Concurrency = 1
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Pipeline{catalog: catalog, lookup: lookup, backup: backup, opts: opts, logger: logger}
}

// lookupResult is what one tracked movie contributed.
type lookupResult struct {
	matched bool
	records []offers.Record
	skip    *Skip
}

// Run executes the pipeline once. Per-item problems are reported as skips;
// store or lookup failures abort the run with nothing appended.
func (p *Pipeline) Run(ctx context.Context) (Report, error) {
	report := Report{
		RunID:      uuid.NewString(),
		RunDate:    domain.DateOnly(p.opts.Now()),
		SkipCounts: make(map[SkipReason]int),
	}
	log := p.logger.WithFields(logrus.Fields{"run_id": report.RunID, "run_date": report.RunDate.Format(time.DateOnly)})

	tracked, err := p.catalog.Tracked(ctx)
	if err != nil {
		return report, fmt.Errorf("load tracked movies: %w", err)
	}
	report.Tracked = len(tracked)
	if len(tracked) == 0 {
		report.Outcome = OutcomeNothingToQuery
		log.Info("reconcile: no tracked movies")
		return report, nil
	}

	results, err := p.lookupAll(ctx, tracked)
	if err != nil {
		return report, err
	}

	var records []offers.Record
	for _, res := range results {
		if res.matched {
			report.Matched++
		}
		if res.skip != nil {
			p.logSkip(log, *res.skip)
			report.skip(*res.skip)
			continue
		}
		records = append(records, res.records...)
	}
	report.Records = len(records)

	var rows []domain.PriceObservation
	if len(records) > 0 {
		movies, err := p.catalog.MovieRefs(ctx)
		if err != nil {
			return report, fmt.Errorf("load movie references: %w", err)
		}
		vendors, err := p.catalog.VendorRefs(ctx)
		if err != nil {
			return report, fmt.Errorf("load vendor references: %w", err)
		}
		rows = newReferences(movies, vendors).join(records, report.RunDate, func(s Skip) {
			p.logSkip(log, s)
			report.skip(s)
		})
	}

	if len(rows) == 0 {
		report.Outcome = OutcomeNoPrices
		log.WithField("skips", report.SkipSummary()).Info("reconcile: no prices recorded")
		return report, nil
	}

	appended, err := p.catalog.AppendPrices(ctx, rows)
	if err != nil {
		return report, fmt.Errorf("append prices: %w", err)
	}
	report.Appended = appended

	if p.backup != nil {
		path, err := p.backup.Backup(ctx, report.RunDate)
		if err != nil {
			return report, fmt.Errorf("backup catalog: %w", err)
		}
		report.BackupPath = path
	}

	report.Outcome = OutcomeFinished
	log.WithFields(logrus.Fields{
		"tracked":  report.Tracked,
		"matched":  report.Matched,
		"appended": report.Appended,
		"skips":    report.SkipSummary(),
	}).Info("reconcile: run finished")
	return report, nil
}

// lookupAll fans out one search per tracked movie, bounded by Concurrency.
// Results keep the tracked order regardless of completion order. The first
// failure cancels the remaining lookups.
func (p *Pipeline) lookupAll(ctx context.Context, tracked []domain.TrackedMovie) ([]lookupResult, error) {
	results := make([]lookupResult, len(tracked))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.opts.Concurrency)
	for i, movie := range tracked {
		i, movie := i, movie
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			res, err := p.lookupOne(gctx, movie)
			if err != nil {
				return err
			}
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

func (p *Pipeline) lookupOne(ctx context.Context, movie domain.TrackedMovie) (lookupResult, error) {
	if p.opts.LookupTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.opts.LookupTimeout)
		defer cancel()
	}

	entries, err := p.lookup.Search(ctx, justwatch.Query{
		Title:    movie.Name,
		Country:  p.opts.Country,
		Language: p.opts.Language,
		Limit:    p.opts.Limit,
		BestOnly: p.opts.BestOnly,
	})
	if err != nil {
		return lookupResult{}, fmt.Errorf("lookup %q: %w", movie.Name, err)
	}

	entry, ok := MatchEntry(entries, movie.URL)
	if !ok {
		return lookupResult{skip: &Skip{Reason: SkipNoMatch, Movie: movie.Name, URL: movie.URL}}, nil
	}
	records := offers.Normalize(entry)
	if len(records) == 0 {
		return lookupResult{matched: true, skip: &Skip{Reason: SkipNoEligibleOffers, Movie: movie.Name, URL: movie.URL}}, nil
	}
	return lookupResult{matched: true, records: records}, nil
}

func (p *Pipeline) logSkip(log logrus.FieldLogger, s Skip) {
	log.WithFields(logrus.Fields{
		"reason": s.Reason,
		"movie":  s.Movie,
		"url":    s.URL,
		"vendor": s.Vendor,
	}).Warn("reconcile: skipped")
}
