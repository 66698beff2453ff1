package server

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"battleship/internal/codec"
)

func (h *hub) subscribers() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

func TestBroadcastDoesNotWaitOnStalledClient(t *testing.T) {
	h := newHub(zerolog.Nop())
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h.serve(w, r, codec.Event{Type: codec.EventSubscribed, MatchID: "m"})
	}))
	t.Cleanup(func() {
		h.close()
		ts.Close()
	})

	// Never read from this connection so its socket buffers fill up.
	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(ts.URL, "http"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	require.Eventually(t, func() bool { return h.subscribers() == 1 }, 5*time.Second, 10*time.Millisecond)

	big := strings.Repeat("x", 64<<10)
	done := make(chan struct{})
	go func() {
		defer close(done)
		for range 1000 {
			h.broadcast(codec.Event{Type: codec.EventBadStrike, MatchID: big})
		}
	}()
	select {
	case <-done:
	case <-time.After(3 * time.Second):
		t.Fatal("broadcast blocked on a client that does not read")
	}
	require.Eventually(t, func() bool { return h.subscribers() == 0 }, 5*time.Second, 10*time.Millisecond,
		"the stalled client is dropped once its queue is full")
}

func TestBroadcastReachesReadingClient(t *testing.T) {
	h := newHub(zerolog.Nop())
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h.serve(w, r, codec.Event{Type: codec.EventSubscribed, MatchID: "m"})
	}))
	t.Cleanup(func() {
		h.close()
		ts.Close()
	})
	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(ts.URL, "http"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	hello := readEvent(t, conn)
	require.Equal(t, codec.EventSubscribed, hello.Type)
	h.broadcast(codec.Event{Type: codec.EventFleetDestroyed, MatchID: "m"})
	require.Equal(t, codec.EventFleetDestroyed, readEvent(t, conn).Type)
}
