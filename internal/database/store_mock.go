package database

import (
	"context"

	"bandfest/internal/lineup"
)

// MockStore is a mock implementation of the ArtistStore interface for testing.
// Uses function fields to allow tests to inject custom behavior.
type MockStore struct {
	PutArtistFunc    func(ctx context.Context, artist lineup.Artist) error
	GetArtistFunc    func(ctx context.Context, slug string) (lineup.Artist, error)
	DeleteArtistFunc func(ctx context.Context, slug string) error
	ListArtistsFunc  func(ctx context.Context) ([]lineup.Artist, error)
	CountArtistsFunc func(ctx context.Context) (int, error)
	CloseFunc        func() error
}

var _ ArtistStore = (*MockStore)(nil)

// PutArtist calls the mock function or returns nil if not set
func (m *MockStore) PutArtist(ctx context.Context, artist lineup.Artist) error {
	if m.PutArtistFunc != nil {
		return m.PutArtistFunc(ctx, artist)
	}
	return nil
}

// GetArtist calls the mock function or returns ErrNotFound if not set
func (m *MockStore) GetArtist(ctx context.Context, slug string) (lineup.Artist, error) {
	if m.GetArtistFunc != nil {
		return m.GetArtistFunc(ctx, slug)
	}
	return lineup.Artist{}, ErrNotFound
}

// DeleteArtist calls the mock function or returns nil if not set
func (m *MockStore) DeleteArtist(ctx context.Context, slug string) error {
	if m.DeleteArtistFunc != nil {
		return m.DeleteArtistFunc(ctx, slug)
	}
	return nil
}

// ListArtists calls the mock function or returns an empty list if not set
func (m *MockStore) ListArtists(ctx context.Context) ([]lineup.Artist, error) {
	if m.ListArtistsFunc != nil {
		return m.ListArtistsFunc(ctx)
	}
	return nil, nil
}

// CountArtists calls the mock function or returns 0 if not set
func (m *MockStore) CountArtists(ctx context.Context) (int, error) {
	if m.CountArtistsFunc != nil {
		return m.CountArtistsFunc(ctx)
	}
	return 0, nil
}

// Close calls the mock function or returns nil if not set
func (m *MockStore) Close() error {
	if m.CloseFunc != nil {
		return m.CloseFunc()
	}
	return nil
}
