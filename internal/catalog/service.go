// Package catalog holds the operator use cases that maintain the tracked
// movie list: adding movies, recording purchases and listing ids.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/Clark-Hu/pricewatch/internal/domain"
	"github.com/Clark-Hu/pricewatch/internal/justwatch"
	"github.com/Clark-Hu/pricewatch/internal/reconcile"
	"github.com/Clark-Hu/pricewatch/internal/repository"
	"github.com/Clark-Hu/pricewatch/internal/store"
)

var (
	// ErrAlreadyTracked is returned by AddMovie when the url is already in the catalog.
	ErrAlreadyTracked = errors.New("catalog: movie already tracked")
	// ErrNoMatch is returned by AddMovie when no lookup result carries the url.
	ErrNoMatch = errors.New("catalog: no lookup result matches url")
	// ErrNoPlaceholder is returned when a movie has no purchase row to fill in.
	ErrNoPlaceholder = errors.New("catalog: movie has no purchase placeholder")
	// ErrMovieNotFound is returned when a movie id does not exist.
	ErrMovieNotFound = fmt.Errorf("catalog: movie %w", repository.ErrNotFound)
	// ErrUnknownVendor is returned when a vendor id does not exist.
	ErrUnknownVendor = errors.New("catalog: unknown vendor")
	// ErrInvalidInput wraps argument validation failures.
	ErrInvalidInput = errors.New("catalog: invalid input")
)

// Options configures lookups issued while adding movies.
type Options struct {
	Country       string
	Language      string
	Limit         int
	BestOnly      bool
	LookupTimeout time.Duration
}

// Service implements the catalog use cases on top of the store.
type Service struct {
	store  *store.Store
	repo   *repository.Repository
	lookup justwatch.Client
	opts   Options
	logger logrus.FieldLogger
}

// NewService wires a Service.
func NewService(st *store.Store, lookup justwatch.Client, opts Options, logger logrus.FieldLogger) *Service {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Service{store: st, repo: repository.New(st), lookup: lookup, opts: opts, logger: logger}
}

// AddMovie looks up name, picks the result whose url matches, and stores the
// movie with its empty purchase row in one transaction. When the url is
// already tracked the existing movie is returned with ErrAlreadyTracked.
func (s *Service) AddMovie(ctx context.Context, name, url string) (domain.Movie, error) {
	name = strings.TrimSpace(name)
	url = strings.TrimSpace(url)
	if name == "" || url == "" {
		return domain.Movie{}, fmt.Errorf("%w: name and url are required", ErrInvalidInput)
	}

	existing, err := s.repo.Movies.GetByURL(ctx, url)
	switch {
	case err == nil:
		return existing, ErrAlreadyTracked
	case !errors.Is(err, repository.ErrNotFound):
		return domain.Movie{}, fmt.Errorf("check tracked url: %w", err)
	}

	lookupCtx := ctx
	if s.opts.LookupTimeout > 0 {
		var cancel context.CancelFunc
		lookupCtx, cancel = context.WithTimeout(ctx, s.opts.LookupTimeout)
		defer cancel()
	}
	entries, err := s.lookup.Search(lookupCtx, justwatch.Query{
		Title:    name,
		Country:  s.opts.Country,
		Language: s.opts.Language,
		Limit:    s.opts.Limit,
		BestOnly: s.opts.BestOnly,
	})
	if err != nil {
		return domain.Movie{}, fmt.Errorf("lookup %q: %w", name, err)
	}
	entry, ok := reconcile.MatchEntry(entries, url)
	if !ok {
		s.logger.WithFields(logrus.Fields{"movie": name, "url": url, "results": len(entries)}).Warn("catalog: no lookup match")
		return domain.Movie{}, ErrNoMatch
	}

	var movie domain.Movie
	err = s.store.WithTx(ctx, func(tx pgx.Tx) error {
		repo := s.repo.WithTx(tx)
		var err error
		movie, err = repo.Movies.Create(ctx, repository.MovieCreateParams{
			Name:             entry.Title,
			URL:              url,
			Poster:           entry.Poster,
			ReleaseDate:      entry.ReleaseDate,
			ReleaseYear:      entry.ReleaseYear,
			RuntimeMinutes:   entry.RuntimeMinutes,
			ShortDescription: entry.ShortDescription,
		})
		if err != nil {
			return err
		}
		return repo.Purchases.CreatePlaceholder(ctx, movie.ID)
	})
	if errors.Is(err, repository.ErrConflict) {
		return domain.Movie{}, ErrAlreadyTracked
	}
	if err != nil {
		return domain.Movie{}, fmt.Errorf("store movie: %w", err)
	}

	s.logger.WithFields(logrus.Fields{"movie": movie.Name, "movie_id": movie.ID, "url": url}).Info("catalog: movie added")
	return movie, nil
}

// PurchaseInput describes a completed purchase.
type PurchaseInput struct {
	MovieID  int64
	Date     time.Time
	Amount   decimal.Decimal
	VendorID int
}

// RecordPurchase fills in the purchase placeholder of a movie. Recording
// again replaces the previous values.
func (s *Service) RecordPurchase(ctx context.Context, in PurchaseInput) (domain.Purchase, error) {
	if in.Amount.IsNegative() {
		return domain.Purchase{}, fmt.Errorf("%w: amount must not be negative", ErrInvalidInput)
	}
	if in.Date.IsZero() {
		return domain.Purchase{}, fmt.Errorf("%w: date is required", ErrInvalidInput)
	}

	p, err := s.repo.Purchases.Record(ctx, repository.PurchaseRecordParams{
		MovieID:  in.MovieID,
		Date:     domain.DateOnly(in.Date),
		Amount:   in.Amount.Round(2),
		VendorID: in.VendorID,
	})
	switch {
	case errors.Is(err, repository.ErrInvalidReference):
		return domain.Purchase{}, ErrUnknownVendor
	case errors.Is(err, repository.ErrNotFound):
		if _, getErr := s.repo.Movies.GetByID(ctx, in.MovieID); errors.Is(getErr, repository.ErrNotFound) {
			return domain.Purchase{}, ErrMovieNotFound
		}
		return domain.Purchase{}, ErrNoPlaceholder
	case err != nil:
		return domain.Purchase{}, fmt.Errorf("record purchase: %w", err)
	}

	s.logger.WithFields(logrus.Fields{"movie_id": in.MovieID, "vendor_id": in.VendorID, "amount": in.Amount.StringFixed(2)}).Info("catalog: purchase recorded")
	return p, nil
}

// IndexEntry is one line of the name to id listing.
type IndexEntry struct {
	Identifier string `json:"identifier"`
	ID         int64  `json:"id"`
	Name       string `json:"name"`
}

// NameIndex lists movie ids by name. It is always read fresh from the store.
func (s *Service) NameIndex(ctx context.Context, excludePurchased bool) ([]IndexEntry, error) {
	refs, err := s.repo.Movies.NameIndex(ctx, excludePurchased)
	if err != nil {
		return nil, fmt.Errorf("load name index: %w", err)
	}
	out := make([]IndexEntry, 0, len(refs))
	for _, r := range refs {
		out = append(out, IndexEntry{Identifier: domain.Identifier(r.Name), ID: r.ID, Name: r.Name})
	}
	return out, nil
}

// PutVendor adds or renames a vendor.
func (s *Service) PutVendor(ctx context.Context, v domain.Vendor) (domain.Vendor, error) {
	v.Name = strings.TrimSpace(v.Name)
	if v.ID <= 0 || v.Name == "" {
		return domain.Vendor{}, fmt.Errorf("%w: vendor id and name are required", ErrInvalidInput)
	}
	out, err := s.repo.Vendors.Upsert(ctx, v)
	if err != nil {
		return domain.Vendor{}, fmt.Errorf("put vendor: %w", err)
	}
	return out, nil
}
