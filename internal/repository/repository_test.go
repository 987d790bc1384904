package repository

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/Clark-Hu/pricewatch/internal/domain"
	"github.com/Clark-Hu/pricewatch/internal/store/storetest"
)

type testEnv struct {
	ctx        context.Context
	repository *Repository
}

func newTestEnv(t testing.TB) *testEnv {
	t.Helper()
	pool := storetest.NewPool(t)
	return &testEnv{ctx: context.Background(), repository: NewWithPool(pool)}
}

func mustCreateMovie(t testing.TB, env *testEnv, name, url string) domain.Movie {
	t.Helper()
	year := 1985
	movie, err := env.repository.Movies.Create(env.ctx, MovieCreateParams{
		Name:        name,
		URL:         url,
		ReleaseYear: &year,
	})
	if err != nil {
		t.Fatalf("create movie %q: %v", name, err)
	}
	if err := env.repository.Purchases.CreatePlaceholder(env.ctx, movie.ID); err != nil {
		t.Fatalf("create placeholder %q: %v", name, err)
	}
	return movie
}

func TestMoviesRepository_CreateGetList(t *testing.T) {
	env := newTestEnv(t)

	brazil := mustCreateMovie(t, env, "Brazil", "https://justwatch.com/us/movie/brazil")
	alien := mustCreateMovie(t, env, "Alien", "https://justwatch.com/us/movie/alien")

	got, err := env.repository.Movies.GetByURL(env.ctx, brazil.URL)
	if err != nil {
		t.Fatalf("GetByURL: %v", err)
	}
	if got.ID != brazil.ID || got.ReleaseYear == nil || *got.ReleaseYear != 1985 {
		t.Fatalf("GetByURL = %+v, want %+v", got, brazil)
	}
	if got.ReleaseDate != nil || got.Poster != nil {
		t.Fatalf("optional fields should stay nil: %+v", got)
	}

	if _, err := env.repository.Movies.GetByID(env.ctx, 9999); !errors.Is(err, ErrNotFound) {
		t.Fatalf("GetByID unknown = %v, want ErrNotFound", err)
	}

	list, err := env.repository.Movies.List(env.ctx)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(list) != 2 || list[0].ID != alien.ID || list[1].ID != brazil.ID {
		t.Fatalf("List = %+v, want alien then brazil", list)
	}

	_, err = env.repository.Movies.Create(env.ctx, MovieCreateParams{Name: "Brazil again", URL: brazil.URL})
	if !errors.Is(err, ErrConflict) {
		t.Fatalf("duplicate url = %v, want ErrConflict", err)
	}
}

func TestMoviesRepository_TrackedIsDistinct(t *testing.T) {
	env := newTestEnv(t)

	mustCreateMovie(t, env, "Brazil", "https://justwatch.com/us/movie/brazil")
	mustCreateMovie(t, env, "Brazil", "https://justwatch.com/us/movie/brazil-1944")

	tracked, err := env.repository.Movies.Tracked(env.ctx)
	if err != nil {
		t.Fatalf("Tracked: %v", err)
	}
	if len(tracked) != 2 {
		t.Fatalf("Tracked len = %d, want 2", len(tracked))
	}

	refs, err := env.repository.Movies.References(env.ctx)
	if err != nil {
		t.Fatalf("References: %v", err)
	}
	if len(refs) != 2 || refs[0].Name != "Brazil" || refs[1].Name != "Brazil" {
		t.Fatalf("References = %+v", refs)
	}
}

func TestMoviesRepository_NameIndexExcludePurchased(t *testing.T) {
	env := newTestEnv(t)

	bought := mustCreateMovie(t, env, "Brazil", "https://justwatch.com/us/movie/brazil")
	pending := mustCreateMovie(t, env, "Alien", "https://justwatch.com/us/movie/alien")

	_, err := env.repository.Purchases.Record(env.ctx, PurchaseRecordParams{
		MovieID:  bought.ID,
		Date:     time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
		Amount:   decimal.RequireFromString("4.99"),
		VendorID: 1,
	})
	if err != nil {
		t.Fatalf("Record: %v", err)
	}

	all, err := env.repository.Movies.NameIndex(env.ctx, false)
	if err != nil {
		t.Fatalf("NameIndex(false): %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("NameIndex(false) len = %d, want 2", len(all))
	}

	open, err := env.repository.Movies.NameIndex(env.ctx, true)
	if err != nil {
		t.Fatalf("NameIndex(true): %v", err)
	}
	if len(open) != 1 || open[0].ID != pending.ID {
		t.Fatalf("NameIndex(true) = %+v, want only %d", open, pending.ID)
	}
}

func TestVendorsRepository_SeedAndUpsert(t *testing.T) {
	env := newTestEnv(t)

	vendors, err := env.repository.Vendors.References(env.ctx)
	if err != nil {
		t.Fatalf("References: %v", err)
	}
	if len(vendors) == 0 {
		t.Fatalf("expected seeded vendors")
	}
	found := false
	for _, v := range vendors {
		if v.Name == "Fandango At Home" && v.ID == 7 {
			found = true
		}
	}
	if !found {
		t.Fatalf("seeded vendors missing Fandango At Home/7: %+v", vendors)
	}

	v, err := env.repository.Vendors.Upsert(env.ctx, domain.Vendor{ID: 42, Name: "Kanopy"})
	if err != nil {
		t.Fatalf("Upsert new: %v", err)
	}
	if v.ID != 42 || v.Name != "Kanopy" {
		t.Fatalf("Upsert = %+v", v)
	}
	if _, err := env.repository.Vendors.Upsert(env.ctx, domain.Vendor{ID: 42, Name: "Kanopy Plus"}); err != nil {
		t.Fatalf("Upsert rename: %v", err)
	}
	got, err := env.repository.Vendors.GetByID(env.ctx, 42)
	if err != nil || got.Name != "Kanopy Plus" {
		t.Fatalf("GetByID after rename = %+v, %v", got, err)
	}
	if _, err := env.repository.Vendors.Upsert(env.ctx, domain.Vendor{ID: 43, Name: "Kanopy Plus"}); !errors.Is(err, ErrConflict) {
		t.Fatalf("duplicate vendor name = %v, want ErrConflict", err)
	}
}

func TestPurchasesRepository_PlaceholderAndRecord(t *testing.T) {
	env := newTestEnv(t)

	movie := mustCreateMovie(t, env, "Brazil", "https://justwatch.com/us/movie/brazil")

	p, err := env.repository.Purchases.Get(env.ctx, movie.ID)
	if err != nil {
		t.Fatalf("Get placeholder: %v", err)
	}
	if p.Recorded() || p.VendorID != nil {
		t.Fatalf("placeholder should be empty: %+v", p)
	}

	date := time.Date(2024, 3, 25, 0, 0, 0, 0, time.UTC)
	p, err = env.repository.Purchases.Record(env.ctx, PurchaseRecordParams{
		MovieID:  movie.ID,
		Date:     date,
		Amount:   decimal.RequireFromString("7.99"),
		VendorID: 7,
	})
	if err != nil {
		t.Fatalf("Record: %v", err)
	}
	if !p.Recorded() || !p.Amount.Equal(decimal.RequireFromString("7.99")) || !p.Date.Equal(date) || *p.VendorID != 7 {
		t.Fatalf("Record = %+v", p)
	}

	_, err = env.repository.Purchases.Record(env.ctx, PurchaseRecordParams{MovieID: 9999, Date: date, Amount: decimal.NewFromInt(1), VendorID: 1})
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("Record unknown movie = %v, want ErrNotFound", err)
	}
	_, err = env.repository.Purchases.Record(env.ctx, PurchaseRecordParams{MovieID: movie.ID, Date: date, Amount: decimal.NewFromInt(1), VendorID: 999})
	if !errors.Is(err, ErrInvalidReference) {
		t.Fatalf("Record unknown vendor = %v, want ErrInvalidReference", err)
	}
}

func TestPricesRepository_AppendOnly(t *testing.T) {
	env := newTestEnv(t)

	movie := mustCreateMovie(t, env, "Brazil", "https://justwatch.com/us/movie/brazil")
	day := time.Date(2024, 3, 25, 0, 0, 0, 0, time.UTC)
	rows := []domain.PriceObservation{
		{MovieID: movie.ID, VendorID: 7, PresentationType: domain.Presentation4K, PriceValue: decimal.RequireFromString("4.99"), Date: day},
		{MovieID: movie.ID, VendorID: 7, PresentationType: domain.PresentationHD, PriceValue: decimal.Zero, Date: day},
	}

	for i := 0; i < 2; i++ {
		n, err := env.repository.Prices.Append(env.ctx, rows)
		if err != nil {
			t.Fatalf("Append #%d: %v", i, err)
		}
		if n != 2 {
			t.Fatalf("Append #%d wrote %d, want 2", i, n)
		}
	}

	count, err := env.repository.Prices.Count(env.ctx)
	if err != nil {
		t.Fatalf("Count: %v", err)
	}
	if count != 4 {
		t.Fatalf("Count = %d, want 4 after two appends", count)
	}
	onDay, err := env.repository.Prices.CountOn(env.ctx, day)
	if err != nil || onDay != 4 {
		t.Fatalf("CountOn = %d, %v; want 4", onDay, err)
	}

	history, err := env.repository.Prices.ListByMovie(env.ctx, movie.ID)
	if err != nil {
		t.Fatalf("ListByMovie: %v", err)
	}
	if len(history) != 4 {
		t.Fatalf("ListByMovie len = %d, want 4", len(history))
	}
	if !history[0].PriceValue.Equal(decimal.RequireFromString("4.99")) || history[0].PresentationType != domain.Presentation4K {
		t.Fatalf("first row = %+v", history[0])
	}
	if !history[1].PriceValue.IsZero() {
		t.Fatalf("zero price should survive, got %s", history[1].PriceValue)
	}
	if !history[0].Date.Equal(day) {
		t.Fatalf("date = %v, want %v", history[0].Date, day)
	}

	if n, err := env.repository.Prices.Append(env.ctx, nil); err != nil || n != 0 {
		t.Fatalf("Append(nil) = %d, %v", n, err)
	}
}

func TestPricesRepository_Latest(t *testing.T) {
	env := newTestEnv(t)

	movie := mustCreateMovie(t, env, "Brazil", "https://justwatch.com/us/movie/brazil")
	day1 := time.Date(2024, 3, 25, 0, 0, 0, 0, time.UTC)
	day2 := day1.AddDate(0, 0, 1)
	obs := func(vendor int, pt domain.PresentationType, value string, day time.Time) domain.PriceObservation {
		return domain.PriceObservation{MovieID: movie.ID, VendorID: vendor, PresentationType: pt, PriceValue: decimal.RequireFromString(value), Date: day}
	}
	_, err := env.repository.Prices.Append(env.ctx, []domain.PriceObservation{
		obs(1, domain.PresentationHD, "9.99", day1),
		obs(1, domain.PresentationHD, "7.99", day2),
		obs(1, domain.Presentation4K, "12.99", day1),
		obs(7, domain.PresentationHD, "4.99", day2),
	})
	if err != nil {
		t.Fatalf("Append: %v", err)
	}

	latest, err := env.repository.Prices.Latest(env.ctx, movie.ID)
	if err != nil {
		t.Fatalf("Latest: %v", err)
	}
	if len(latest) != 3 {
		t.Fatalf("Latest len = %d, want 3: %+v", len(latest), latest)
	}
	for _, o := range latest {
		if o.VendorID == 1 && o.PresentationType == domain.PresentationHD && !o.PriceValue.Equal(decimal.RequireFromString("7.99")) {
			t.Fatalf("vendor 1 HD latest = %s, want 7.99", o.PriceValue)
		}
	}
}

func TestPricesRepository_AppendRejectsUnknownVendor(t *testing.T) {
	env := newTestEnv(t)

	movie := mustCreateMovie(t, env, "Brazil", "https://justwatch.com/us/movie/brazil")
	_, err := env.repository.Prices.Append(env.ctx, []domain.PriceObservation{{
		MovieID:          movie.ID,
		VendorID:         999,
		PresentationType: domain.PresentationHD,
		PriceValue:       decimal.NewFromInt(3),
		Date:             time.Date(2024, 3, 25, 0, 0, 0, 0, time.UTC),
	}})
	if !errors.Is(err, ErrInvalidReference) {
		t.Fatalf("Append unknown vendor = %v, want ErrInvalidReference", err)
	}
}

func TestRepository_WithTxRollsBack(t *testing.T) {
	pool := storetest.NewPool(t)
	ctx := context.Background()
	repo := NewWithPool(pool)

	tx, err := pool.Begin(ctx)
	if err != nil {
		t.Fatalf("begin: %v", err)
	}
	if _, err := repo.WithTx(tx).Movies.Create(ctx, MovieCreateParams{Name: "Brazil", URL: "https://justwatch.com/us/movie/brazil"}); err != nil {
		t.Fatalf("create in tx: %v", err)
	}
	if err := tx.Rollback(ctx); err != nil && !errors.Is(err, pgx.ErrTxClosed) {
		t.Fatalf("rollback: %v", err)
	}

	movies, err := repo.Movies.List(ctx)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(movies) != 0 {
		t.Fatalf("rolled back insert is visible: %+v", movies)
	}
}

func TestPricesRepository_ConcurrentAppends(t *testing.T) {
	env := newTestEnv(t)

	movie := mustCreateMovie(t, env, "Brazil", "https://justwatch.com/us/movie/brazil")
	const workers = 8
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := env.repository.Prices.Append(env.ctx, []domain.PriceObservation{{
				MovieID:          movie.ID,
				VendorID:         1,
				PresentationType: domain.PresentationHD,
				PriceValue:       decimal.NewFromInt(int64(i)),
				Date:             time.Date(2024, 3, 25, 0, 0, 0, 0, time.UTC),
			}})
			if err != nil {
				t.Errorf("append %d: %v", i, err)
			}
		}(i)
	}
	wg.Wait()

	count, err := env.repository.Prices.Count(env.ctx)
	if err != nil {
		t.Fatalf("Count: %v", err)
	}
	if count != workers {
		t.Fatalf("Count = %d, want %d", count, workers)
	}
}

func BenchmarkPricesRepositoryAppend(b *testing.B) {
	env := newTestEnv(b)

	movie := mustCreateMovie(b, env, "Bench Movie", "https://justwatch.com/us/movie/bench")
	batch := make([]domain.PriceObservation, 50)
	for i := range batch {
		batch[i] = domain.PriceObservation{
			MovieID:          movie.ID,
			VendorID:         1 + i%7,
			PresentationType: domain.PresentationHD,
			PriceValue:       decimal.New(int64(i), -2),
			Date:             time.Date(2024, 3, 25, 0, 0, 0, 0, time.UTC),
		}
	}
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := env.repository.Prices.Append(env.ctx, batch); err != nil {
			b.Fatalf("append: %v", fmt.Errorf("iteration %d: %w", i, err))
		}
	}
}
