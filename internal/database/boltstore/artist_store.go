package boltstore

import (
	"context"
	"encoding/json"
	"fmt"

	"bandfest/internal/database"
	"bandfest/internal/lineup"
	"bandfest/internal/metrics"
	"bandfest/internal/tracing"

	bolt "go.etcd.io/bbolt"
)

const backend = "bolt"

// ArtistStore persists lineup artists as JSON values keyed by slug.
type ArtistStore struct {
	db *bolt.DB
}

var _ database.ArtistStore = (*ArtistStore)(nil)

// PutArtist creates or replaces the artist stored under its slug.
func (s *ArtistStore) PutArtist(ctx context.Context, artist lineup.Artist) (err error) {
	_, span := tracing.StoreSpan(ctx, backend, "put", artist.Slug)
	defer func() {
		tracing.EndWithError(span, err)
		span.End()
	}()
	metrics.StoreOperationsTotal.WithLabelValues(backend, "put").Inc()

	if err := artist.Validate(); err != nil {
		return err
	}

	data, err := json.Marshal(artist)
	if err != nil {
		return fmt.Errorf("failed to encode artist: %w", err)
	}

	return s.db.Update(func(tx *bolt.Tx) error {
		bucket := tx.Bucket(BucketArtists)
		if bucket == nil {
			return fmt.Errorf("bucket %s missing", BucketArtists)
		}
		return bucket.Put([]byte(artist.Slug), data)
	})
}

// GetArtist returns the artist stored under slug, or database.ErrNotFound.
func (s *ArtistStore) GetArtist(ctx context.Context, slug string) (artist lineup.Artist, err error) {
	_, span := tracing.StoreSpan(ctx, backend, "get", slug)
	defer func() {
		tracing.EndWithError(span, err)
		span.End()
	}()
	metrics.StoreOperationsTotal.WithLabelValues(backend, "get").Inc()

	err = s.db.View(func(tx *bolt.Tx) error {
		bucket := tx.Bucket(BucketArtists)
		if bucket == nil {
			return database.ErrNotFound
		}

		data := bucket.Get([]byte(slug))
		if data == nil {
			return database.ErrNotFound
		}
		return json.Unmarshal(data, &artist)
	})
	return artist, err
}

// DeleteArtist removes an artist. It returns database.ErrNotFound if the slug
// is unknown.
func (s *ArtistStore) DeleteArtist(ctx context.Context, slug string) (err error) {
	_, span := tracing.StoreSpan(ctx, backend, "delete", slug)
	defer func() {
		tracing.EndWithError(span, err)
		span.End()
	}()
	metrics.StoreOperationsTotal.WithLabelValues(backend, "delete").Inc()

	return s.db.Update(func(tx *bolt.Tx) error {
		bucket := tx.Bucket(BucketArtists)
		if bucket == nil || bucket.Get([]byte(slug)) == nil {
			return database.ErrNotFound
		}
		return bucket.Delete([]byte(slug))
	})
}

// ListArtists returns all artists in lineup order.
func (s *ArtistStore) ListArtists(ctx context.Context) (artists []lineup.Artist, err error) {
	_, span := tracing.StoreSpan(ctx, backend, "list", "")
	defer func() {
		tracing.EndWithError(span, err)
		span.End()
	}()
	metrics.StoreOperationsTotal.WithLabelValues(backend, "list").Inc()

	err = s.db.View(func(tx *bolt.Tx) error {
		bucket := tx.Bucket(BucketArtists)
		if bucket == nil {
			return nil
		}

		return bucket.ForEach(func(k, v []byte) error {
			var a lineup.Artist
			if err := json.Unmarshal(v, &a); err != nil {
				return fmt.Errorf("failed to decode artist %s: %w", k, err)
			}
			artists = append(artists, a)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}

	lineup.SortForLineup(artists)
	return artists, nil
}

// CountArtists returns the number of stored artists.
func (s *ArtistStore) CountArtists(ctx context.Context) (int, error) {
	var count int

	err := s.db.View(func(tx *bolt.Tx) error {
		bucket := tx.Bucket(BucketArtists)
		if bucket == nil {
			return nil
		}

		count = bucket.Stats().KeyN
		return nil
	})

	return count, err
}

// Close is a no-op; the owning Store closes the database.
func (s *ArtistStore) Close() error {
	return nil
}
