package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/Clark-Hu/pricewatch/internal/domain"
)

// MoviesRepository provides persistence helpers for movie entities.
type MoviesRepository struct {
	db DBTX
}

const movieColumns = `
    movie_id,
    movie_name,
    url,
    poster,
    release_date,
    release_year,
    runtime_minutes,
    short_description
`

// MovieCreateParams bundles the fields stored for a newly tracked movie.
type MovieCreateParams struct {
	Name             string
	URL              string
	Poster           *string
	ReleaseDate      *time.Time
	ReleaseYear      *int
	RuntimeMinutes   *int
	ShortDescription *string
}

// Create inserts a new movie row and returns the stored entity. A duplicate
// url yields ErrConflict.
func (r *MoviesRepository) Create(ctx context.Context, params MovieCreateParams) (domain.Movie, error) {
	query := fmt.Sprintf(`
        INSERT INTO movies (movie_name, url, poster, release_date, release_year, runtime_minutes, short_description)
        VALUES ($1,$2,$3,$4,$5,$6,$7)
        RETURNING %s
    `, movieColumns)

	row := r.db.QueryRow(ctx, query, params.Name, params.URL, params.Poster, params.ReleaseDate, params.ReleaseYear, params.RuntimeMinutes, params.ShortDescription)
	movie, err := scanMovie(row)
	if err != nil {
		return domain.Movie{}, translateError(err)
	}
	return movie, nil
}

// Tracked returns the distinct (name, url) pairs the price pipeline queries for.
func (r *MoviesRepository) Tracked(ctx context.Context) ([]domain.TrackedMovie, error) {
	rows, err := r.db.Query(ctx, `SELECT DISTINCT movie_name, url FROM movies ORDER BY movie_name, url`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []domain.TrackedMovie
	for rows.Next() {
		var m domain.TrackedMovie
		if err := rows.Scan(&m.Name, &m.URL); err != nil {
			return nil, err
		}
		results = append(results, m)
	}
	return results, rows.Err()
}

// References returns every (id, name) row used when joining offers to movies.
func (r *MoviesRepository) References(ctx context.Context) ([]domain.MovieRef, error) {
	return r.refs(ctx, `SELECT movie_id, movie_name FROM movies ORDER BY movie_id`)
}

// NameIndex lists movie ids by name. With excludePurchased only movies whose
// purchase has not been recorded are returned.
func (r *MoviesRepository) NameIndex(ctx context.Context, excludePurchased bool) ([]domain.MovieRef, error) {
	if !excludePurchased {
		return r.References(ctx)
	}
	return r.refs(ctx, `
        SELECT m.movie_id, m.movie_name
        FROM movies m
        LEFT JOIN purchases p ON p.movie_id = m.movie_id
        WHERE p.purchase_date IS NULL OR p.purchase_amount IS NULL
        ORDER BY m.movie_id
    `)
}

func (r *MoviesRepository) refs(ctx context.Context, query string) ([]domain.MovieRef, error) {
	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []domain.MovieRef
	for rows.Next() {
		var ref domain.MovieRef
		if err := rows.Scan(&ref.ID, &ref.Name); err != nil {
			return nil, err
		}
		results = append(results, ref)
	}
	return results, rows.Err()
}

// GetByID fetches a movie by its identifier.
func (r *MoviesRepository) GetByID(ctx context.Context, id int64) (domain.Movie, error) {
	query := fmt.Sprintf(`SELECT %s FROM movies WHERE movie_id = $1`, movieColumns)
	movie, err := scanMovie(r.db.QueryRow(ctx, query, id))
	if err != nil {
		return domain.Movie{}, translateError(err)
	}
	return movie, nil
}

// GetByURL fetches a movie by its tracked url.
func (r *MoviesRepository) GetByURL(ctx context.Context, url string) (domain.Movie, error) {
	query := fmt.Sprintf(`SELECT %s FROM movies WHERE url = $1`, movieColumns)
	movie, err := scanMovie(r.db.QueryRow(ctx, query, url))
	if err != nil {
		return domain.Movie{}, translateError(err)
	}
	return movie, nil
}

// List returns every movie ordered by name.
func (r *MoviesRepository) List(ctx context.Context) ([]domain.Movie, error) {
	query := fmt.Sprintf(`SELECT %s FROM movies ORDER BY movie_name, movie_id`, movieColumns)
	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]domain.Movie, 0)
	for rows.Next() {
		movie, err := scanMovie(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, movie)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

func scanMovie(row pgx.Row) (domain.Movie, error) {
	var movie domain.Movie
	err := row.Scan(
		&movie.ID,
		&movie.Name,
		&movie.URL,
		&movie.Poster,
		&movie.ReleaseDate,
		&movie.ReleaseYear,
		&movie.RuntimeMinutes,
		&movie.ShortDescription,
	)
	if err != nil {
		return domain.Movie{}, err
	}
	return movie, nil
}
