package handlers

import (
	"net/http"

	"bandfest/internal/lineup"

	"github.com/google/go-querystring/query"
	"github.com/rs/zerolog/log"
)

// artistResponse is the JSON shape of an artist on the API
type artistResponse struct {
	lineup.Artist
	Socials []socialResponse `json:"socials"`
	CardURL string           `json:"cardUrl"`
}

type socialResponse struct {
	Social lineup.Social `json:"social"`
	Href   string        `json:"href"`
	Title  string        `json:"title"`
	Icon   string        `json:"icon"`
}

// cardURL builds the fragment URL that renders the artist's card from
// attributes alone.
func cardURL(a lineup.Artist) string {
	v, err := query.Values(a)
	if err != nil {
		log.Warn().Err(err).Str("slug", a.Slug).Msg("Failed to encode card attributes")
		return "/lineup/" + a.Slug
	}
	return "/lineup/card?" + v.Encode()
}

func newArtistResponse(a lineup.Artist) artistResponse {
	resp := artistResponse{
		Artist:  a,
		Socials: []socialResponse{},
		CardURL: cardURL(a),
	}
	links, _ := a.SocialLinks()
	for _, l := range links {
		resp.Socials = append(resp.Socials, socialResponse{
			Social: l.Social,
			Href:   l.Href,
			Title:  l.Title,
			Icon:   l.Icon,
		})
	}
	return resp
}

// HandleLineupAPI returns the lineup as JSON.
func (h *Handler) HandleLineupAPI(w http.ResponseWriter, r *http.Request) {
	artists, err := h.store.ListArtists(r.Context())
	if err != nil {
		log.Error().Err(err).Msg("Failed to list artists")
		http.Error(w, "Failed to load lineup", http.StatusInternalServerError)
		return
	}

	resp := make([]artistResponse, 0, len(artists))
	for _, a := range artists {
		resp = append(resp, newArtistResponse(a))
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"artists": resp,
		"count":   len(resp),
	})
}
