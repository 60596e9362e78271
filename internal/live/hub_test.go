package live

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHub_Broadcast(t *testing.T) {
	h := NewHub()
	a := h.Subscribe()
	b := h.Subscribe()
	assert.Equal(t, 2, h.Count())

	h.Broadcast(Update{Slug: "jabbawaukee", HTML: "<article></article>"})

	assert.Equal(t, "jabbawaukee", (<-a).Slug)
	assert.Equal(t, "<article></article>", (<-b).HTML)

	h.Unsubscribe(a)
	h.Unsubscribe(a)
	assert.Equal(t, 1, h.Count())

	_, ok := <-a
	assert.False(t, ok, "unsubscribed channel should be closed")
}

func TestHub_DropsSlowSubscriber(t *testing.T) {
	h := NewHub()
	slow := h.Subscribe()

	for i := 0; i <= subscriberBuffer; i++ {
		h.Broadcast(Update{Slug: "x"})
	}

	assert.Equal(t, 0, h.Count())

	drained := 0
	for range slow {
		drained++
	}
	assert.Equal(t, subscriberBuffer, drained)
}

func TestHub_ServeWS(t *testing.T) {
	h := NewHub()
	srv := httptest.NewServer(http.HandlerFunc(h.ServeWS))
	defer srv.Close()

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer conn.Close()

	require.Eventually(t, func() bool { return h.Count() == 1 }, time.Second, 5*time.Millisecond)

	h.Broadcast(Update{Slug: "opener", Deleted: true})

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var got Update
	require.NoError(t, conn.ReadJSON(&got))
	assert.Equal(t, Update{Slug: "opener", Deleted: true}, got)

	conn.Close()
	require.Eventually(t, func() bool { return h.Count() == 0 }, time.Second, 5*time.Millisecond)
}
