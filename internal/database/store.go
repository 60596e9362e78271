package database

import (
	"context"
	"errors"

	"bandfest/internal/lineup"
)

// ErrNotFound is returned when no artist exists for a slug.
var ErrNotFound = errors.New("artist not found")

// ArtistStore defines the persistence operations for lineup artists.
// Both the BoltDB and SQLite backends implement it.
type ArtistStore interface {
	PutArtist(ctx context.Context, artist lineup.Artist) error
	GetArtist(ctx context.Context, slug string) (lineup.Artist, error)
	DeleteArtist(ctx context.Context, slug string) error
	ListArtists(ctx context.Context) ([]lineup.Artist, error)
	CountArtists(ctx context.Context) (int, error)
	Close() error
}

// Seed stores artists only when the store is empty. It returns the number of
// artists written.
func Seed(ctx context.Context, store ArtistStore, artists []lineup.Artist) (int, error) {
	n, err := store.CountArtists(ctx)
	if err != nil {
		return 0, err
	}
	if n > 0 {
		return 0, nil
	}
	for _, a := range artists {
		if err := store.PutArtist(ctx, a); err != nil {
			return 0, err
		}
	}
	return len(artists), nil
}
