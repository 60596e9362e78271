// Package live pushes re-rendered lineup cards to connected browsers.
package live

import (
	"net/http"
	"sync"
	"time"

	"bandfest/internal/metrics"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

// Update is one message on the live lineup stream
type Update struct {
	Slug    string `json:"slug"`
	HTML    string `json:"html,omitempty"`
	Deleted bool   `json:"deleted,omitempty"`
}

const (
	// subscriberBuffer is how many updates a subscriber may lag behind before
	// it is dropped.
	subscriberBuffer = 16
	writeTimeout     = 10 * time.Second
	pingInterval     = 30 * time.Second
)

// Hub fans updates out to subscribers. A subscriber whose buffer is full is
// dropped rather than blocking the broadcaster.
type Hub struct {
	mu   sync.Mutex
	subs map[chan Update]struct{}
}

// NewHub creates an empty hub.
func NewHub() *Hub {
	return &Hub{subs: make(map[chan Update]struct{})}
}

// Subscribe registers a new subscriber. The returned channel is closed when
// the subscriber is unsubscribed or dropped.
func (h *Hub) Subscribe() chan Update {
	ch := make(chan Update, subscriberBuffer)
	h.mu.Lock()
	h.subs[ch] = struct{}{}
	n := len(h.subs)
	h.mu.Unlock()
	metrics.LiveSubscribers.Set(float64(n))
	return ch
}

// Unsubscribe removes a subscriber. It is safe to call more than once.
func (h *Hub) Unsubscribe(ch chan Update) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.removeLocked(ch)
}

func (h *Hub) removeLocked(ch chan Update) {
	if _, ok := h.subs[ch]; !ok {
		return
	}
	delete(h.subs, ch)
	close(ch)
	metrics.LiveSubscribers.Set(float64(len(h.subs)))
}

// Broadcast delivers u to every subscriber without blocking.
func (h *Hub) Broadcast(u Update) {
	h.mu.Lock()
	defer h.mu.Unlock()

	metrics.LiveBroadcastsTotal.Inc()
	for ch := range h.subs {
		select {
		case ch <- u:
		default:
			log.Warn().Str("slug", u.Slug).Msg("live: dropping slow subscriber")
			metrics.LiveDroppedTotal.Inc()
			h.removeLocked(ch)
		}
	}
}

// Count returns the number of subscribers.
func (h *Hub) Count() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs)
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
}

// ServeWS upgrades the request and streams updates until the client goes away.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already written an error response
		log.Debug().Err(err).Msg("live: websocket upgrade failed")
		return
	}
	defer conn.Close()

	ch := h.Subscribe()
	defer h.Unsubscribe(ch)

	// Reader goroutine: we never expect messages, but reading is required to
	// process control frames and notice the close.
	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ping := time.NewTicker(pingInterval)
	defer ping.Stop()

	for {
		select {
		case <-closed:
			return
		case <-r.Context().Done():
			return
		case u, ok := <-ch:
			if !ok {
				conn.WriteControl(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseTryAgainLater, "too slow"),
					time.Now().Add(writeTimeout))
				return
			}
			conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := conn.WriteJSON(u); err != nil {
				log.Debug().Err(err).Msg("live: write failed")
				return
			}
		case <-ping.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeTimeout)); err != nil {
				return
			}
		}
	}
}
