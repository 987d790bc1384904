package domain

import "time"

// Movie represents a tracked movie in the catalog store.
type Movie struct {
	ID               int64
	Name             string
	URL              string
	Poster           *string
	ReleaseDate      *time.Time
	ReleaseYear      *int
	RuntimeMinutes   *int
	ShortDescription *string
}

// TrackedMovie is the (name, url) pair the price pipeline queries for.
type TrackedMovie struct {
	Name string
	URL  string
}

// MovieRef is a row of the movie reference table used for joins.
type MovieRef struct {
	ID   int64
	Name string
}
