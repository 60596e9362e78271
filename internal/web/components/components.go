// Package components renders the lineup card and the page that hosts it.
//
// Markup lives in embedded html/template files (templates/cards for cards,
// templates for pages) and is exposed as templ components so it composes with
// anything else that renders through templ.
package components

import (
	"context"
	"embed"
	"html"
	"html/template"
	"io"
	"io/fs"
	"strings"

	"bandfest/internal/lineup"
	"bandfest/internal/metrics"
	"bandfest/internal/tracing"

	"github.com/a-h/templ"
)

var (
	//go:embed templates
	templateFS embed.FS

	//go:embed static
	staticFS embed.FS

	templates = template.Must(template.New("").Funcs(template.FuncMap{
		"urlAttr": urlAttr,
	}).ParseFS(templateFS,
		"templates/*.tmpl",
		"templates/cards/*.tmpl",
	))
)

// blockedURL replaces links whose scheme would run script when followed.
const blockedURL = "about:invalid#blocked"

// urlAttr renders name="value" with value HTML-escaped but otherwise left as
// given, so pictures and social links reach the page byte for byte. Only
// script-bearing schemes are rejected.
func urlAttr(name, value string) template.HTMLAttr {
	if isScriptURL(value) {
		value = blockedURL
	}
	return template.HTMLAttr(name + `="` + html.EscapeString(value) + `"`)
}

// isScriptURL reports whether u uses the javascript: or vbscript: scheme.
// Browsers strip leading spaces and ignore tabs and newlines inside the
// scheme, so the check does too.
func isScriptURL(u string) bool {
	scheme, _, ok := strings.Cut(u, ":")
	if !ok {
		return false
	}
	scheme = strings.Map(func(r rune) rune {
		if r == '\t' || r == '\n' || r == '\r' {
			return -1
		}
		return r
	}, scheme)
	scheme = strings.ToLower(strings.TrimLeftFunc(scheme, func(r rune) bool {
		return r <= ' '
	}))
	return scheme == "javascript" || scheme == "vbscript"
}

// Static returns the embedded static assets (served under /static/).
func Static() fs.FS {
	sub, err := fs.Sub(staticFS, "static")
	if err != nil {
		panic(err)
	}
	return sub
}

// CardData is the view model of one lineup card
type CardData struct {
	Slug          string
	IsHeadliner   bool
	Name          string
	Bio           string
	Picture       string
	PictureAlt    string
	RotationClass string
	// Socials is nil when the artist has no social links, which suppresses the
	// list element entirely.
	Socials []lineup.SocialLink
}

// NewCardData builds the view model for an artist.
func NewCardData(a lineup.Artist) CardData {
	data := CardData{
		Slug:          a.Slug,
		IsHeadliner:   a.IsHeadliner,
		Name:          a.Name,
		Bio:           a.Bio,
		Picture:       a.Picture,
		PictureAlt:    a.PictureAlt(),
		RotationClass: a.Rotation.Class(),
	}
	if links, ok := a.SocialLinks(); ok {
		data.Socials = links
	}
	return data
}

// PageData contains data for rendering the lineup page
type PageData struct {
	Title   string
	LiveURL string
	Cards   []CardData
}

// NewPageData builds page data for artists in the order given.
func NewPageData(title, liveURL string, artists []lineup.Artist) PageData {
	cards := make([]CardData, 0, len(artists))
	for _, a := range artists {
		cards = append(cards, NewCardData(a))
	}
	return PageData{Title: title, LiveURL: liveURL, Cards: cards}
}

// LineupCard renders a single artist card.
func LineupCard(a lineup.Artist) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) (err error) {
		ctx, span := tracing.RenderSpan(ctx, "lineup-card", a.Name)
		defer func() {
			tracing.EndWithError(span, err)
			span.End()
		}()

		metrics.CardRendersTotal.WithLabelValues(a.Rotation.Label()).Inc()
		return templ.FromGoHTML(templates.Lookup("lineup-card"), NewCardData(a)).Render(ctx, w)
	})
}

// LineupPage renders the full lineup document.
func LineupPage(data PageData) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) (err error) {
		ctx, span := tracing.RenderSpan(ctx, "lineup-page", data.Title)
		defer func() {
			tracing.EndWithError(span, err)
			span.End()
		}()

		metrics.PageRendersTotal.Inc()
		return templ.FromGoHTML(templates.Lookup("lineup-page"), data).Render(ctx, w)
	})
}
