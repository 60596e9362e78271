// Package element provides an attribute-driven lineup card: attributes are
// written one at a time, renders are deferred and coalesced, and callers wait
// on UpdateComplete before inspecting the output.
package element

import (
	"bytes"
	"context"
	"errors"
	"io"
	"maps"
	"strings"
	"sync"

	"bandfest/internal/lineup"
	"bandfest/internal/metrics"
	"bandfest/internal/web/components"

	"github.com/PuerkitoBio/goquery"
	"github.com/rs/zerolog/log"
)

// TagName is the custom element name the card is registered under in pages.
const TagName = "bf-lineup-card"

// ErrRemoved is returned by UpdateComplete after the card has been removed.
var ErrRemoved = errors.New("lineup card has been removed")

// renderCard renders one snapshot of a card. Tests swap it to hold a render
// in flight.
var renderCard = func(ctx context.Context, a lineup.Artist, w io.Writer) error {
	return components.LineupCard(a).Render(ctx, w)
}

// Card is a lineup card driven by attribute writes. The zero value is not
// usable; create cards with New.
type Card struct {
	mu      sync.Mutex
	attrs   map[string]string
	pending bool
	done    chan struct{}
	removed bool
	html    []byte
	err     error

	// renderMu serialises render cycles so the last snapshot taken is always
	// the last one published.
	renderMu sync.Mutex
}

// New creates a card and schedules its first render.
func New() *Card {
	c := &Card{attrs: make(map[string]string)}
	c.mu.Lock()
	c.requestUpdateLocked()
	c.mu.Unlock()
	return c
}

// SetAttribute sets an attribute and schedules a render.
func (c *Card) SetAttribute(name, value string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.removed {
		return
	}
	if old, ok := c.attrs[name]; ok && old == value {
		return
	}
	c.attrs[name] = value
	c.requestUpdateLocked()
}

// RemoveAttribute deletes an attribute and schedules a render.
func (c *Card) RemoveAttribute(name string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.removed {
		return
	}
	if _, ok := c.attrs[name]; !ok {
		return
	}
	delete(c.attrs, name)
	c.requestUpdateLocked()
}

// Attribute returns the current value of an attribute.
func (c *Card) Attribute(name string) (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.attrs[name]
	return v, ok
}

// SetArtist replaces every card attribute with those of a.
func (c *Card) SetArtist(a lineup.Artist) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.removed {
		return
	}
	c.attrs = a.Attributes()
	c.requestUpdateLocked()
}

// Artist returns the artist described by the current attributes.
func (c *Card) Artist() lineup.Artist {
	c.mu.Lock()
	defer c.mu.Unlock()
	return lineup.FromAttributes(c.attrs)
}

func (c *Card) requestUpdateLocked() {
	if c.pending {
		return
	}
	c.pending = true
	done := make(chan struct{})
	c.done = done
	go c.performUpdate(done)
}

func (c *Card) performUpdate(done chan struct{}) {
	defer close(done)

	c.renderMu.Lock()
	defer c.renderMu.Unlock()

	c.mu.Lock()
	c.pending = false
	if c.removed {
		c.mu.Unlock()
		return
	}
	attrs := maps.Clone(c.attrs)
	c.mu.Unlock()

	var buf bytes.Buffer
	err := renderCard(context.Background(), lineup.FromAttributes(attrs), &buf)
	if err != nil {
		log.Error().Err(err).Str("name", attrs[lineup.AttrName]).Msg("Failed to render lineup card")
	}

	c.mu.Lock()
	if c.removed {
		c.mu.Unlock()
		return
	}
	c.html = buf.Bytes()
	c.err = err
	c.mu.Unlock()

	metrics.ElementUpdatesTotal.Inc()
}

// UpdateComplete blocks until every attribute write made before the call is
// reflected in the rendered output. It returns the render error, if any.
func (c *Card) UpdateComplete(ctx context.Context) error {
	c.mu.Lock()
	if c.removed {
		c.mu.Unlock()
		return ErrRemoved
	}
	done := c.done
	c.mu.Unlock()

	select {
	case <-done:
	case <-ctx.Done():
		return ctx.Err()
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	return c.err
}

// HTML returns the markup of the last completed render.
func (c *Card) HTML() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return string(c.html)
}

// Document parses the last completed render for selector queries.
func (c *Card) Document() (*goquery.Document, error) {
	return goquery.NewDocumentFromReader(strings.NewReader(c.HTML()))
}

// Remove disposes the card. Later attribute writes are ignored.
func (c *Card) Remove() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.removed = true
	c.html = nil
}
