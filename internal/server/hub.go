package server

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"battleship/internal/codec"
	"battleship/internal/game"
	"battleship/internal/stats"
)

const (
	writeWait = 5 * time.Second
	sendQueue = 64
)

// client is one websocket subscriber. Only its writer goroutine writes to
// conn.
type client struct {
	conn *websocket.Conn
	send chan []byte
}

// hub fans match events out to every connected websocket client.
type hub struct {
	log      zerolog.Logger
	upgrader websocket.Upgrader

	mu      sync.Mutex
	clients map[*client]struct{}
}

func newHub(log zerolog.Logger) *hub {
	return &hub{
		log:      log,
		upgrader: websocket.Upgrader{CheckOrigin: func(r *http.Request) bool { return true }},
		clients:  make(map[*client]struct{}),
	}
}

// serve upgrades the request and queues hello before any broadcast can
// reach the new client.
func (h *hub) serve(w http.ResponseWriter, r *http.Request, hello codec.Event) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn().Err(err).Msg("websocket upgrade failed")
		return
	}
	data, _ := json.Marshal(hello)
	c := &client{conn: conn, send: make(chan []byte, sendQueue)}
	c.send <- data
	h.mu.Lock()
	h.clients[c] = struct{}{}
	n := len(h.clients)
	h.mu.Unlock()
	h.log.Debug().Int("clients", n).Msg("event subscriber connected")

	go h.writePump(c)
	// Clients only listen; reading detects the close.
	go func() {
		defer h.drop(c)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
}

func (h *hub) writePump(c *client) {
	for data := range c.send {
		_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
			h.drop(c)
			return
		}
	}
}

func (h *hub) drop(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.dropLocked(c)
}

func (h *hub) dropLocked(c *client) {
	if _, ok := h.clients[c]; !ok {
		return
	}
	delete(h.clients, c)
	close(c.send)
	_ = c.conn.Close()
}

// broadcast never waits on a client; one whose queue is full is dropped.
func (h *hub) broadcast(ev codec.Event) {
	data, err := json.Marshal(ev)
	if err != nil {
		h.log.Error().Err(err).Str("event", string(ev.Type)).Msg("encode event")
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		select {
		case c.send <- data:
		default:
			h.log.Warn().Str("event", string(ev.Type)).Msg("event subscriber too slow, dropped")
			h.dropLocked(c)
		}
	}
}

func (h *hub) close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		h.dropLocked(c)
	}
}

// broadcaster is the match.Observer of one match.
type broadcaster struct {
	hub     *hub
	matchID string
}

func (b broadcaster) emit(t codec.EventType, out *game.Outcome, sum *stats.Summary) {
	b.hub.broadcast(codec.Event{Type: t, MatchID: b.matchID, Outcome: out, Summary: sum})
}

func (b broadcaster) LuckyStrike(o game.Outcome) { b.emit(codec.EventLuckyStrike, &o, nil) }
func (b broadcaster) BadStrike(o game.Outcome)   { b.emit(codec.EventBadStrike, &o, nil) }
func (b broadcaster) ShipSunk(o game.Outcome)    { b.emit(codec.EventShipSunk, &o, nil) }
func (b broadcaster) FleetDestroyed()            { b.emit(codec.EventFleetDestroyed, nil, nil) }
func (b broadcaster) Statistics(s stats.Summary) { b.emit(codec.EventStatistics, nil, &s) }
