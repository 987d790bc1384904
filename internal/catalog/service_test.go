package catalog

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Clark-Hu/pricewatch/internal/domain"
	"github.com/Clark-Hu/pricewatch/internal/justwatch"
	"github.com/Clark-Hu/pricewatch/internal/logging"
	"github.com/Clark-Hu/pricewatch/internal/repository"
	"github.com/Clark-Hu/pricewatch/internal/store"
	"github.com/Clark-Hu/pricewatch/internal/store/storetest"
)

type fakeLookup struct {
	entries []justwatch.MediaEntry
	err     error
	calls   int
}

func (f *fakeLookup) Search(context.Context, justwatch.Query) ([]justwatch.MediaEntry, error) {
	f.calls++
	return f.entries, f.err
}

func newTestService(t *testing.T, lookup justwatch.Client) (*Service, *repository.Repository) {
	t.Helper()
	st := store.NewWithPool(storetest.NewPool(t), logging.Discard())
	svc := NewService(st, lookup, Options{Country: "US", Language: "en", Limit: 15, LookupTimeout: time.Second}, logging.Discard())
	return svc, repository.New(st)
}

func brazilEntries() []justwatch.MediaEntry {
	year := 1985
	runtime := 142
	poster := "https://images.justwatch.com/poster/1/s718/brazil.jpg"
	return []justwatch.MediaEntry{
		{Title: "Brazil (1944)", URL: "https://justwatch.com/us/movie/brazil-1944"},
		{Title: "Brazil", URL: "https://justwatch.com/us/movie/brazil", ReleaseYear: &year, RuntimeMinutes: &runtime, Poster: &poster},
	}
}

func TestAddMovieStoresEntryAndPlaceholder(t *testing.T) {
	lookup := &fakeLookup{entries: brazilEntries()}
	svc, repo := newTestService(t, lookup)
	ctx := context.Background()

	movie, err := svc.AddMovie(ctx, "brazil", "https://www.justwatch.com/us/movie/brazil")
	require.NoError(t, err)

	assert.Equal(t, "Brazil", movie.Name, "name comes from the matched entry")
	assert.Equal(t, "https://www.justwatch.com/us/movie/brazil", movie.URL, "url is stored as given")
	require.NotNil(t, movie.ReleaseYear)
	assert.Equal(t, 1985, *movie.ReleaseYear)
	require.NotNil(t, movie.RuntimeMinutes)
	assert.Equal(t, 142, *movie.RuntimeMinutes)

	p, err := repo.Purchases.Get(ctx, movie.ID)
	require.NoError(t, err)
	assert.False(t, p.Recorded())

	again, err := svc.AddMovie(ctx, "Brazil", "https://www.justwatch.com/us/movie/brazil")
	assert.ErrorIs(t, err, ErrAlreadyTracked)
	assert.Equal(t, movie.ID, again.ID)
	assert.Equal(t, 1, lookup.calls, "tracked urls are not looked up again")
}

func TestAddMovieNoMatch(t *testing.T) {
	svc, repo := newTestService(t, &fakeLookup{entries: brazilEntries()})

	_, err := svc.AddMovie(context.Background(), "Brazil", "https://justwatch.com/us/movie/brazil-2030")
	assert.ErrorIs(t, err, ErrNoMatch)

	movies, err := repo.Movies.List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, movies)
}

func TestAddMovieLookupFailure(t *testing.T) {
	svc, _ := newTestService(t, &fakeLookup{err: errors.New("dial tcp: refused")})

	_, err := svc.AddMovie(context.Background(), "Brazil", "https://justwatch.com/us/movie/brazil")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "refused")
}

func TestAddMovieValidatesInput(t *testing.T) {
	svc, _ := newTestService(t, &fakeLookup{})

	_, err := svc.AddMovie(context.Background(), " ", "https://justwatch.com/us/movie/brazil")
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestRecordPurchase(t *testing.T) {
	svc, repo := newTestService(t, &fakeLookup{entries: brazilEntries()})
	ctx := context.Background()

	movie, err := svc.AddMovie(ctx, "Brazil", "https://justwatch.com/us/movie/brazil")
	require.NoError(t, err)

	date := time.Date(2024, time.March, 25, 15, 0, 0, 0, time.UTC)
	p, err := svc.RecordPurchase(ctx, PurchaseInput{MovieID: movie.ID, Date: date, Amount: decimal.RequireFromString("4.99"), VendorID: 1})
	require.NoError(t, err)
	assert.True(t, p.Recorded())
	assert.True(t, p.Date.Equal(time.Date(2024, time.March, 25, 0, 0, 0, 0, time.UTC)))

	// Recording again replaces the values.
	_, err = svc.RecordPurchase(ctx, PurchaseInput{MovieID: movie.ID, Date: date, Amount: decimal.RequireFromString("9.99"), VendorID: 7})
	require.NoError(t, err)
	p, err = repo.Purchases.Get(ctx, movie.ID)
	require.NoError(t, err)
	assert.True(t, p.Amount.Equal(decimal.RequireFromString("9.99")))
	assert.Equal(t, 7, *p.VendorID)

	_, err = svc.RecordPurchase(ctx, PurchaseInput{MovieID: movie.ID, Date: date, Amount: decimal.NewFromInt(1), VendorID: 404})
	assert.ErrorIs(t, err, ErrUnknownVendor)

	_, err = svc.RecordPurchase(ctx, PurchaseInput{MovieID: 999, Date: date, Amount: decimal.NewFromInt(1), VendorID: 1})
	assert.ErrorIs(t, err, ErrMovieNotFound)
	assert.ErrorIs(t, err, repository.ErrNotFound)

	_, err = svc.RecordPurchase(ctx, PurchaseInput{MovieID: movie.ID, Date: date, Amount: decimal.NewFromInt(-1), VendorID: 1})
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestRecordPurchaseWithoutPlaceholder(t *testing.T) {
	svc, repo := newTestService(t, &fakeLookup{})
	ctx := context.Background()

	movie, err := repo.Movies.Create(ctx, repository.MovieCreateParams{Name: "Orphan", URL: "https://justwatch.com/us/movie/orphan"})
	require.NoError(t, err)

	_, err = svc.RecordPurchase(ctx, PurchaseInput{MovieID: movie.ID, Date: time.Now(), Amount: decimal.NewFromInt(3), VendorID: 1})
	assert.ErrorIs(t, err, ErrNoPlaceholder)
}

func TestNameIndex(t *testing.T) {
	lookup := &fakeLookup{entries: []justwatch.MediaEntry{
		{Title: "Mission: Impossible - Fallout", URL: "https://justwatch.com/us/movie/fallout"},
		{Title: "Brazil", URL: "https://justwatch.com/us/movie/brazil"},
	}}
	svc, _ := newTestService(t, lookup)
	ctx := context.Background()

	fallout, err := svc.AddMovie(ctx, "Fallout", "https://justwatch.com/us/movie/fallout")
	require.NoError(t, err)
	brazil, err := svc.AddMovie(ctx, "Brazil", "https://justwatch.com/us/movie/brazil")
	require.NoError(t, err)

	_, err = svc.RecordPurchase(ctx, PurchaseInput{MovieID: brazil.ID, Date: time.Now(), Amount: decimal.NewFromInt(5), VendorID: 1})
	require.NoError(t, err)

	all, err := svc.NameIndex(ctx, false)
	require.NoError(t, err)
	assert.Equal(t, []IndexEntry{
		{Identifier: "Mission_Impossible___Fallout", ID: fallout.ID, Name: "Mission: Impossible - Fallout"},
		{Identifier: "Brazil", ID: brazil.ID, Name: "Brazil"},
	}, all)

	open, err := svc.NameIndex(ctx, true)
	require.NoError(t, err)
	require.Len(t, open, 1)
	assert.Equal(t, fallout.ID, open[0].ID)
}

func TestPutVendor(t *testing.T) {
	svc, repo := newTestService(t, &fakeLookup{})
	ctx := context.Background()

	v, err := svc.PutVendor(ctx, domain.Vendor{ID: 8, Name: " Kanopy "})
	require.NoError(t, err)
	assert.Equal(t, domain.Vendor{ID: 8, Name: "Kanopy"}, v)

	got, err := repo.Vendors.GetByID(ctx, 8)
	require.NoError(t, err)
	assert.Equal(t, "Kanopy", got.Name)

	_, err = svc.PutVendor(ctx, domain.Vendor{ID: 0, Name: "Nope"})
	assert.ErrorIs(t, err, ErrInvalidInput)
}
