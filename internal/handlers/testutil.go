package handlers

import (
	"context"
	"sort"
	"sync"

	"bandfest/internal/database"
	"bandfest/internal/lineup"
	"bandfest/internal/live"
)

// TestFixtures contains sample data for testing
type TestFixtures struct {
	Headliner lineup.Artist
	Opener    lineup.Artist
}

// NewTestFixtures creates a set of sample test data
func NewTestFixtures() *TestFixtures {
	return &TestFixtures{
		Headliner: lineup.Artist{
			Slug:        "jabbawaukee",
			Name:        "Jabbawaukee",
			Bio:         "Jabbawaukee is a Southern New England based quartet playing psychedelic funk and jam rock!",
			Picture:     "/assets/images/lineup/jabbawaukee.webp",
			IsHeadliner: true,
			StartTime:   1690683300000,
			Facebook:    "https://www.facebook.com/JABBAWAUKEE/",
			Instagram:   "https://www.instagram.com/jabbawaukee_band/",
			Website:     "https://www.jabbawaukee.com",
			Spotify:     "https://open.spotify.com/artist/1CBlzYSiHvEO86x2UO85u4",
			YouTube:     "https://www.youtube.com/channel/UCjNsiyNaoh7-Xp6rtCgq4BA",
			Apple:       "https://music.apple.com/us/artist/jabbawaukee/1593104536",
		},
		Opener: lineup.Artist{
			Slug:      "the-openers",
			Name:      "The Openers",
			Bio:       "First on stage.",
			Picture:   "/assets/images/lineup/openers.webp",
			Rotation:  lineup.RotationLeft,
			StartTime: 1690670000000,
		},
	}
}

// TestContext bundles a handler with an in-memory store and live hub
type TestContext struct {
	Handler   *Handler
	MockStore *database.MockStore
	Hub       *live.Hub
	Fixtures  *TestFixtures
}

// NewTestContext creates a handler backed by an in-memory MockStore seeded
// with the fixtures. Tests can override individual MockStore funcs.
func NewTestContext() *TestContext {
	fixtures := NewTestFixtures()
	store := newMemoryStore(fixtures.Headliner, fixtures.Opener)
	hub := live.NewHub()

	return &TestContext{
		Handler:   NewHandler(store, hub, Config{LiveURL: "/ws/lineup"}),
		MockStore: store,
		Hub:       hub,
		Fixtures:  fixtures,
	}
}

func newMemoryStore(seed ...lineup.Artist) *database.MockStore {
	var mu sync.Mutex
	artists := make(map[string]lineup.Artist)
	for _, a := range seed {
		artists[a.Slug] = a
	}

	return &database.MockStore{
		PutArtistFunc: func(ctx context.Context, a lineup.Artist) error {
			if err := a.Validate(); err != nil {
				return err
			}
			mu.Lock()
			defer mu.Unlock()
			artists[a.Slug] = a
			return nil
		},
		GetArtistFunc: func(ctx context.Context, slug string) (lineup.Artist, error) {
			mu.Lock()
			defer mu.Unlock()
			a, ok := artists[slug]
			if !ok {
				return lineup.Artist{}, database.ErrNotFound
			}
			return a, nil
		},
		DeleteArtistFunc: func(ctx context.Context, slug string) error {
			mu.Lock()
			defer mu.Unlock()
			if _, ok := artists[slug]; !ok {
				return database.ErrNotFound
			}
			delete(artists, slug)
			return nil
		},
		ListArtistsFunc: func(ctx context.Context) ([]lineup.Artist, error) {
			mu.Lock()
			defer mu.Unlock()
			list := make([]lineup.Artist, 0, len(artists))
			for _, a := range artists {
				list = append(list, a)
			}
			sort.Slice(list, func(i, j int) bool { return list[i].Slug < list[j].Slug })
			lineup.SortForLineup(list)
			return list, nil
		},
		CountArtistsFunc: func(ctx context.Context) (int, error) {
			mu.Lock()
			defer mu.Unlock()
			return len(artists), nil
		},
	}
}
