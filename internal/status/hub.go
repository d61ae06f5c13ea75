// Package status pushes satellite state snapshots to websocket clients.
package status

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/lexiqai/voice-satellite/internal/observability"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// Clients only send control frames.
	maxMessageSize = 512

	sendBuffer = 16
)

var upgrader = websocket.Upgrader{
	CheckOrigin:     func(r *http.Request) bool { return true },
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
}

// SnapshotFunc returns the value serialized to clients. It must be safe to
// call from any goroutine.
type SnapshotFunc func() any

// Hub maintains the set of connected clients and broadcasts snapshots.
type Hub struct {
	logger   zerolog.Logger
	snapshot SnapshotFunc

	register  chan *client
	broadcast chan struct{}

	mu      sync.RWMutex
	clients map[*client]struct{}
}

type client struct {
	hub  *Hub
	conn *websocket.Conn
	send chan []byte
}

func NewHub(logger zerolog.Logger, snapshot SnapshotFunc) *Hub {
	return &Hub{
		logger:    logger.With().Str("component", "status").Logger(),
		snapshot:  snapshot,
		register:  make(chan *client),
		broadcast: make(chan struct{}, 1),
		clients:   make(map[*client]struct{}),
	}
}

// Run serves registrations and broadcasts until ctx is done.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			h.mu.Lock()
			for c := range h.clients {
				delete(h.clients, c)
				close(c.send)
			}
			observability.SetStatusClients(0)
			h.mu.Unlock()
			return

		case c := <-h.register:
			h.mu.Lock()
			h.clients[c] = struct{}{}
			observability.SetStatusClients(len(h.clients))
			h.mu.Unlock()
			h.logger.Debug().
				Str("remote", c.conn.RemoteAddr().String()).
				Int("clients", h.ClientCount()).
				Msg("Status client registered")
			if payload, ok := h.encode(); ok {
				h.deliver(c, payload)
			}

		case <-h.broadcast:
			payload, ok := h.encode()
			if !ok {
				continue
			}
			h.mu.RLock()
			targets := make([]*client, 0, len(h.clients))
			for c := range h.clients {
				targets = append(targets, c)
			}
			h.mu.RUnlock()
			for _, c := range targets {
				h.deliver(c, payload)
			}
		}
	}
}

// Notify schedules a broadcast of the current snapshot. Notifications that
// arrive while one is pending are coalesced. It never blocks.
func (h *Hub) Notify() {
	select {
	case h.broadcast <- struct{}{}:
	default:
	}
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// ServeHTTP upgrades the request and registers the client.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn().Err(err).Msg("Status websocket upgrade failed")
		return
	}
	c := &client{hub: h, conn: conn, send: make(chan []byte, sendBuffer)}
	h.register <- c

	go c.writePump()
	go c.readPump()
}

func (h *Hub) encode() ([]byte, bool) {
	payload, err := json.Marshal(h.snapshot())
	if err != nil {
		h.logger.Error().Err(err).Msg("Failed to encode status snapshot")
		observability.RecordError("encode", "status")
		return nil, false
	}
	return payload, true
}

// deliver queues payload for c, dropping clients that fall behind. The
// membership check and the send happen under h.mu so a concurrent remove
// cannot close c.send in between.
func (h *Hub) deliver(c *client, payload []byte) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[c]; !ok {
		return
	}
	select {
	case c.send <- payload:
	default:
		h.logger.Warn().Str("remote", c.conn.RemoteAddr().String()).Msg("Status client too slow, dropping")
		h.removeLocked(c)
	}
}

func (h *Hub) remove(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.removeLocked(c)
}

func (h *Hub) removeLocked(c *client) {
	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		close(c.send)
		observability.SetStatusClients(len(h.clients))
	}
}

// readPump discards client messages and detects disconnects.
func (c *client) readPump() {
	defer func() {
		c.hub.remove(c)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.hub.logger.Debug().Err(err).Msg("Status client read failed")
			}
			return
		}
	}
}

func (c *client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case payload, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
