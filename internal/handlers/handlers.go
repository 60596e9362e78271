package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"bandfest/internal/database"
	"bandfest/internal/lineup"
	"bandfest/internal/live"
	"bandfest/internal/web/components"

	"github.com/a-h/templ"
	"github.com/rs/zerolog/log"
)

// maxArtistBody bounds artist payloads on the write API
const maxArtistBody = 64 << 10

// Config holds handler configuration options
type Config struct {
	// Title is shown as the lineup page heading
	Title string

	// LiveURL is the websocket path advertised to the page for live updates.
	// Empty disables the live script.
	LiveURL string
}

// Handler contains all HTTP handler methods and their dependencies.
// Dependencies are injected via the constructor for better testability.
type Handler struct {
	store  database.ArtistStore
	hub    *live.Hub
	config Config
}

// NewHandler creates a new Handler with all required dependencies.
func NewHandler(store database.ArtistStore, hub *live.Hub, config Config) *Handler {
	if config.Title == "" {
		config.Title = "Bandfest Lineup"
	}
	return &Handler{
		store:  store,
		hub:    hub,
		config: config,
	}
}

// render buffers a component so a failed render can still produce a clean 500.
func render(w http.ResponseWriter, r *http.Request, c templ.Component) {
	var buf bytes.Buffer
	if err := c.Render(r.Context(), &buf); err != nil {
		log.Error().Err(err).Str("path", r.URL.Path).Msg("Failed to render component")
		http.Error(w, "Failed to render page", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write(buf.Bytes())
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}

// HandleLineupPage renders the full lineup.
func (h *Handler) HandleLineupPage(w http.ResponseWriter, r *http.Request) {
	artists, err := h.store.ListArtists(r.Context())
	if err != nil {
		log.Error().Err(err).Msg("Failed to list artists")
		http.Error(w, "Failed to load lineup", http.StatusInternalServerError)
		return
	}

	render(w, r, components.LineupPage(components.NewPageData(h.config.Title, h.config.LiveURL, artists)))
}

// HandleCardFragment renders a single card from query attributes, e.g.
// /lineup/card?name=Jabbawaukee&rotation=left&youtube=...
func (h *Handler) HandleCardFragment(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	attrs := make(map[string]string, len(query))
	for name := range query {
		attrs[name] = query.Get(name)
	}

	render(w, r, components.LineupCard(lineup.FromAttributes(attrs)))
}

// HandleArtistCard renders the card of a stored artist.
func (h *Handler) HandleArtistCard(w http.ResponseWriter, r *http.Request) {
	slug := r.PathValue("slug")

	artist, err := h.store.GetArtist(r.Context(), slug)
	if errors.Is(err, database.ErrNotFound) {
		http.Error(w, "Artist not found", http.StatusNotFound)
		return
	}
	if err != nil {
		log.Error().Err(err).Str("slug", slug).Msg("Failed to get artist")
		http.Error(w, "Failed to load artist", http.StatusInternalServerError)
		return
	}

	render(w, r, components.LineupCard(artist))
}

// HandleArtistPut creates or replaces an artist and pushes the new card to
// live subscribers.
func (h *Handler) HandleArtistPut(w http.ResponseWriter, r *http.Request) {
	slug := r.PathValue("slug")
	if slug == "" || lineup.Slugify(slug) != slug {
		http.Error(w, "Invalid artist slug", http.StatusBadRequest)
		return
	}
	if lineup.IsReservedSlug(slug) {
		http.Error(w, "Artist slug is reserved", http.StatusBadRequest)
		return
	}
	if !strings.Contains(r.Header.Get("Content-Type"), "application/json") {
		http.Error(w, "Content-Type must be application/json", http.StatusUnsupportedMediaType)
		return
	}

	var artist lineup.Artist
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxArtistBody))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&artist); err != nil {
		http.Error(w, "Invalid artist payload", http.StatusBadRequest)
		return
	}
	artist.Slug = slug

	if err := h.store.PutArtist(r.Context(), artist); err != nil {
		log.Error().Err(err).Str("slug", slug).Msg("Failed to store artist")
		http.Error(w, "Failed to store artist", http.StatusInternalServerError)
		return
	}

	log.Info().Str("slug", slug).Str("name", artist.Name).Msg("Artist updated")
	h.publishCard(r.Context(), artist)

	writeJSON(w, http.StatusOK, newArtistResponse(artist))
}

// HandleArtistDelete removes an artist from the lineup.
func (h *Handler) HandleArtistDelete(w http.ResponseWriter, r *http.Request) {
	slug := r.PathValue("slug")

	err := h.store.DeleteArtist(r.Context(), slug)
	if errors.Is(err, database.ErrNotFound) {
		http.Error(w, "Artist not found", http.StatusNotFound)
		return
	}
	if err != nil {
		log.Error().Err(err).Str("slug", slug).Msg("Failed to delete artist")
		http.Error(w, "Failed to delete artist", http.StatusInternalServerError)
		return
	}

	log.Info().Str("slug", slug).Msg("Artist removed")
	if h.hub != nil {
		h.hub.Broadcast(live.Update{Slug: slug, Deleted: true})
	}

	w.WriteHeader(http.StatusNoContent)
}

// HandleLive streams card updates over a websocket.
func (h *Handler) HandleLive(w http.ResponseWriter, r *http.Request) {
	if h.hub == nil {
		http.Error(w, "Live updates disabled", http.StatusNotFound)
		return
	}
	h.hub.ServeWS(w, r)
}

func (h *Handler) publishCard(ctx context.Context, artist lineup.Artist) {
	if h.hub == nil {
		return
	}

	var buf bytes.Buffer
	if err := components.LineupCard(artist).Render(ctx, &buf); err != nil {
		log.Warn().Err(err).Str("slug", artist.Slug).Msg("Failed to render card for live update")
		return
	}
	h.hub.Broadcast(live.Update{Slug: artist.Slug, HTML: buf.String()})
}
