// Package sqlitestore provides SQLite-backed store implementations.
package sqlitestore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"bandfest/internal/database"
	"bandfest/internal/lineup"
	"bandfest/internal/metrics"
	"bandfest/internal/tracing"

	"github.com/XSAM/otelsql"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	_ "modernc.org/sqlite"
)

const backend = "sqlite"

const schema = `
CREATE TABLE IF NOT EXISTS lineup_artists (
	slug       TEXT PRIMARY KEY,
	data       TEXT NOT NULL,
	updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
)`

// ArtistStore implements database.ArtistStore using SQLite.
// Artists are stored as JSON documents keyed by slug.
type ArtistStore struct {
	db *sql.DB
}

// Ensure ArtistStore implements the interface at compile time.
var _ database.ArtistStore = (*ArtistStore)(nil)

// Open opens (creating if needed) the SQLite database at path and applies the
// schema. Queries are traced through otelsql.
func Open(ctx context.Context, path string) (*ArtistStore, error) {
	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	db, err := otelsql.Open("sqlite", path, otelsql.WithAttributes(semconv.DBSystemSqlite))
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// SQLite allows a single writer.
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}

	return &ArtistStore{db: db}, nil
}

// NewArtistStore wraps an existing database. The schema must already be applied.
func NewArtistStore(db *sql.DB) *ArtistStore {
	return &ArtistStore{db: db}
}

func (s *ArtistStore) PutArtist(ctx context.Context, artist lineup.Artist) (err error) {
	ctx, span := tracing.StoreSpan(ctx, backend, "put", artist.Slug)
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
		return fmt.Errorf("encode artist: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO lineup_artists (slug, data, updated_at)
		VALUES (?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(slug) DO UPDATE SET
			data       = excluded.data,
			updated_at = excluded.updated_at
	`, artist.Slug, string(data))
	if err != nil {
		return fmt.Errorf("put artist: %w", err)
	}
	return nil
}

func (s *ArtistStore) GetArtist(ctx context.Context, slug string) (artist lineup.Artist, err error) {
	ctx, span := tracing.StoreSpan(ctx, backend, "get", slug)
	defer func() {
		tracing.EndWithError(span, err)
		span.End()
	}()
	metrics.StoreOperationsTotal.WithLabelValues(backend, "get").Inc()

	var data string
	err = s.db.QueryRowContext(ctx, `SELECT data FROM lineup_artists WHERE slug = ?`, slug).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return artist, database.ErrNotFound
	}
	if err != nil {
		return artist, fmt.Errorf("get artist: %w", err)
	}

	if err := json.Unmarshal([]byte(data), &artist); err != nil {
		return artist, fmt.Errorf("decode artist %s: %w", slug, err)
	}
	return artist, nil
}

func (s *ArtistStore) DeleteArtist(ctx context.Context, slug string) (err error) {
	ctx, span := tracing.StoreSpan(ctx, backend, "delete", slug)
	defer func() {
		tracing.EndWithError(span, err)
		span.End()
	}()
	metrics.StoreOperationsTotal.WithLabelValues(backend, "delete").Inc()

	res, err := s.db.ExecContext(ctx, `DELETE FROM lineup_artists WHERE slug = ?`, slug)
	if err != nil {
		return fmt.Errorf("delete artist: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete artist: %w", err)
	}
	if n == 0 {
		return database.ErrNotFound
	}
	return nil
}

func (s *ArtistStore) ListArtists(ctx context.Context) (artists []lineup.Artist, err error) {
	ctx, span := tracing.StoreSpan(ctx, backend, "list", "")
	defer func() {
		tracing.EndWithError(span, err)
		span.End()
	}()
	metrics.StoreOperationsTotal.WithLabelValues(backend, "list").Inc()

	rows, err := s.db.QueryContext(ctx, `SELECT slug, data FROM lineup_artists`)
	if err != nil {
		return nil, fmt.Errorf("list artists: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var slug, data string
		if err := rows.Scan(&slug, &data); err != nil {
			return nil, fmt.Errorf("scan artist: %w", err)
		}
		var a lineup.Artist
		if err := json.Unmarshal([]byte(data), &a); err != nil {
			return nil, fmt.Errorf("decode artist %s: %w", slug, err)
		}
		artists = append(artists, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list artists: %w", err)
	}

	lineup.SortForLineup(artists)
	return artists, nil
}

func (s *ArtistStore) CountArtists(ctx context.Context) (int, error) {
	var count int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM lineup_artists`).Scan(&count); err != nil {
		return 0, fmt.Errorf("count artists: %w", err)
	}
	return count, nil
}

// Close closes the underlying database.
func (s *ArtistStore) Close() error {
	return s.db.Close()
}
