package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"bandfest/internal/database"
	"bandfest/internal/lineup"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func parseHTML(t *testing.T, rec *httptest.ResponseRecorder) *goquery.Document {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(rec.Body.String()))
	require.NoError(t, err)
	return doc
}

func TestHandleLineupPage(t *testing.T) {
	tc := NewTestContext()

	req := httptest.NewRequest(http.MethodGet, "/lineup", nil)
	rec := httptest.NewRecorder()
	tc.Handler.HandleLineupPage(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/html")

	doc := parseHTML(t, rec)
	assert.Equal(t, 2, doc.Find("article").Length())
	assert.Equal(t, "jabbawaukee", doc.Find(".lineup__slot").First().AttrOr("data-slug", ""))
	assert.Equal(t, 1, doc.Find("#card-the-openers div.-rotate-12").Length())
	assert.Equal(t, 6, doc.Find("#card-jabbawaukee ul li").Length())
	assert.Equal(t, 0, doc.Find("#card-the-openers ul").Length())
}

func TestHandleLineupPage_StoreError(t *testing.T) {
	tc := NewTestContext()
	tc.MockStore.ListArtistsFunc = func(ctx context.Context) ([]lineup.Artist, error) {
		return nil, errors.New("disk on fire")
	}

	rec := httptest.NewRecorder()
	tc.Handler.HandleLineupPage(rec, httptest.NewRequest(http.MethodGet, "/lineup", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestHandleCardFragment(t *testing.T) {
	tc := NewTestContext()

	t.Run("basic attributes", func(t *testing.T) {
		q := url.Values{}
		q.Set("name", "Jabbawaukee")
		q.Set("bio", "funk")
		q.Set("picture", "/j.webp")

		rec := httptest.NewRecorder()
		tc.Handler.HandleCardFragment(rec, httptest.NewRequest(http.MethodGet, "/lineup/card?"+q.Encode(), nil))
		require.Equal(t, http.StatusOK, rec.Code)

		doc := parseHTML(t, rec)
		assert.Equal(t, "Jabbawaukee", doc.Find("h2").Text())
		assert.Equal(t, "funk", doc.Find("p").Text())
		assert.Equal(t, "Picture of Jabbawaukee", doc.Find("picture img").AttrOr("alt", ""))
		assert.Equal(t, 1, doc.Find("div.rotate-0").Length())
		assert.Equal(t, 0, doc.Find("ul").Length())
	})

	t.Run("rotation and socials", func(t *testing.T) {
		q := url.Values{}
		q.Set("name", "Jabbawaukee")
		q.Set("rotation", "right")
		q.Set("youtube", "https://www.youtube.com/channel/UCjNsiyNaoh7-Xp6rtCgq4BA")

		rec := httptest.NewRecorder()
		tc.Handler.HandleCardFragment(rec, httptest.NewRequest(http.MethodGet, "/lineup/card?"+q.Encode(), nil))

		doc := parseHTML(t, rec)
		assert.Equal(t, 1, doc.Find("div.rotate-12").Length())
		link := doc.Find(`ul li a[title="Jabbawaukee's Youtube page"]`)
		require.Equal(t, 1, link.Length())
		assert.Equal(t, "https://www.youtube.com/channel/UCjNsiyNaoh7-Xp6rtCgq4BA", link.AttrOr("href", ""))
	})
}

func TestHandleArtistCard(t *testing.T) {
	tc := NewTestContext()

	t.Run("found", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/lineup/jabbawaukee", nil)
		req.SetPathValue("slug", "jabbawaukee")
		rec := httptest.NewRecorder()
		tc.Handler.HandleArtistCard(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "Jabbawaukee", parseHTML(t, rec).Find("h2").Text())
	})

	t.Run("not found", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/lineup/nobody", nil)
		req.SetPathValue("slug", "nobody")
		rec := httptest.NewRecorder()
		tc.Handler.HandleArtistCard(rec, req)

		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func TestHandleLineupAPI(t *testing.T) {
	tc := NewTestContext()

	rec := httptest.NewRecorder()
	tc.Handler.HandleLineupAPI(rec, httptest.NewRequest(http.MethodGet, "/api/lineup", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Count   int `json:"count"`
		Artists []struct {
			Slug    string `json:"slug"`
			Name    string `json:"name"`
			CardURL string `json:"cardUrl"`
			Socials []struct {
				Social string `json:"social"`
				Title  string `json:"title"`
			} `json:"socials"`
		} `json:"artists"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))

	assert.Equal(t, 2, body.Count)
	require.Len(t, body.Artists, 2)
	headliner := body.Artists[0]
	assert.Equal(t, "jabbawaukee", headliner.Slug)
	require.Len(t, headliner.Socials, 6)
	assert.Equal(t, "youtube", headliner.Socials[0].Social)
	assert.Equal(t, "Jabbawaukee's Youtube page", headliner.Socials[0].Title)

	// The card URL alone reproduces the card.
	u, err := url.Parse(headliner.CardURL)
	require.NoError(t, err)
	assert.Equal(t, "/lineup/card", u.Path)
	assert.Equal(t, "Jabbawaukee", u.Query().Get("name"))
	assert.Empty(t, u.Query().Get("slug"))

	assert.Empty(t, body.Artists[1].Socials)
}

func TestHandleArtistPut(t *testing.T) {
	tc := NewTestContext()
	updates := tc.Hub.Subscribe()
	defer tc.Hub.Unsubscribe(updates)

	newPut := func(slug, body, contentType string) *http.Request {
		req := httptest.NewRequest(http.MethodPut, "/api/artists/"+slug, strings.NewReader(body))
		req.Header.Set("Content-Type", contentType)
		req.SetPathValue("slug", slug)
		return req
	}

	t.Run("creates artist and broadcasts card", func(t *testing.T) {
		rec := httptest.NewRecorder()
		tc.Handler.HandleArtistPut(rec, newPut("new-band",
			`{"name":"New Band","bio":"fresh","picture":"/n.webp","rotation":"right","spotify":"https://sp"}`,
			"application/json"))

		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		stored, err := tc.MockStore.GetArtist(context.Background(), "new-band")
		require.NoError(t, err)
		assert.Equal(t, "New Band", stored.Name)
		assert.Equal(t, lineup.RotationRight, stored.Rotation)

		u := <-updates
		assert.Equal(t, "new-band", u.Slug)
		assert.Contains(t, u.HTML, "rotate-12")
		assert.Contains(t, u.HTML, "New Band&#39;s Spotify page")
	})

	t.Run("unknown rotation is unrotated", func(t *testing.T) {
		rec := httptest.NewRecorder()
		tc.Handler.HandleArtistPut(rec, newPut("tilted", `{"name":"Tilted","rotation":"sideways"}`, "application/json"))
		require.Equal(t, http.StatusOK, rec.Code)
		<-updates

		stored, err := tc.MockStore.GetArtist(context.Background(), "tilted")
		require.NoError(t, err)
		assert.Equal(t, lineup.RotationNone, stored.Rotation)
	})

	t.Run("rejects bad slug", func(t *testing.T) {
		rec := httptest.NewRecorder()
		tc.Handler.HandleArtistPut(rec, newPut("Bad_Slug", `{"name":"x"}`, "application/json"))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("rejects reserved slug", func(t *testing.T) {
		rec := httptest.NewRecorder()
		tc.Handler.HandleArtistPut(rec, newPut("card", `{"name":"Card"}`, "application/json"))
		assert.Equal(t, http.StatusBadRequest, rec.Code)

		_, err := tc.MockStore.GetArtist(context.Background(), "card")
		assert.ErrorIs(t, err, database.ErrNotFound)
	})

	t.Run("rejects non-json", func(t *testing.T) {
		rec := httptest.NewRecorder()
		tc.Handler.HandleArtistPut(rec, newPut("x", `name=x`, "application/x-www-form-urlencoded"))
		assert.Equal(t, http.StatusUnsupportedMediaType, rec.Code)
	})

	t.Run("rejects unknown fields", func(t *testing.T) {
		rec := httptest.NewRecorder()
		tc.Handler.HandleArtistPut(rec, newPut("x", `{"name":"x","tiktok":"nope"}`, "application/json"))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("store failure", func(t *testing.T) {
		tc := NewTestContext()
		tc.MockStore.PutArtistFunc = func(ctx context.Context, a lineup.Artist) error {
			return errors.New("read-only")
		}
		rec := httptest.NewRecorder()
		tc.Handler.HandleArtistPut(rec, newPut("x", `{"name":"x"}`, "application/json"))
		assert.Equal(t, http.StatusInternalServerError, rec.Code)
	})
}

func TestHandleArtistDelete(t *testing.T) {
	tc := NewTestContext()
	updates := tc.Hub.Subscribe()
	defer tc.Hub.Unsubscribe(updates)

	req := httptest.NewRequest(http.MethodDelete, "/api/artists/the-openers", nil)
	req.SetPathValue("slug", "the-openers")
	rec := httptest.NewRecorder()
	tc.Handler.HandleArtistDelete(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	_, err := tc.MockStore.GetArtist(context.Background(), "the-openers")
	assert.ErrorIs(t, err, database.ErrNotFound)

	u := <-updates
	assert.Equal(t, "the-openers", u.Slug)
	assert.True(t, u.Deleted)

	t.Run("missing", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodDelete, "/api/artists/the-openers", nil)
		req.SetPathValue("slug", "the-openers")
		rec := httptest.NewRecorder()
		tc.Handler.HandleArtistDelete(rec, req)
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func TestHandleLive_Disabled(t *testing.T) {
	h := NewHandler(&database.MockStore{}, nil, Config{})

	rec := httptest.NewRecorder()
	h.HandleLive(rec, httptest.NewRequest(http.MethodGet, "/ws/lineup", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
