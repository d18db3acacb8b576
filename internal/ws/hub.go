// Package ws fans station availability changes out to connected clients.
package ws

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"voltgrid/internal/observability"
)

const writeTimeout = 5 * time.Second

// StationUpdate is the payload broadcast when a station's availability changes.
type StationUpdate struct {
	StationID   string    `json:"station_id"`
	Status      string    `json:"status"`
	Operational bool      `json:"operational"`
	At          time.Time `json:"at"`
}

// Hub tracks subscriber connections and broadcasts updates.
type Hub struct {
	mu           sync.RWMutex
	clients      map[*client]struct{}
	pingInterval time.Duration
	logger       *zap.Logger
}

// NewHub builds the hub.
func NewHub(pingInterval time.Duration, logger *zap.Logger) *Hub {
	if pingInterval <= 0 {
		pingInterval = 30 * time.Second
	}
	return &Hub{
		clients:      make(map[*client]struct{}),
		pingInterval: pingInterval,
		logger:       logger,
	}
}

// Register adds a subscriber connection and blocks until it closes. The read
// loop only drains control frames; subscribers never send data.
func (h *Hub) Register(conn *websocket.Conn) {
	c := &client{conn: conn}

	h.mu.Lock()
	h.clients[c] = struct{}{}
	h.mu.Unlock()
	observability.WSClients.Inc()

	defer func() {
		h.remove(c)
		_ = conn.Close()
	}()

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (h *Hub) remove(c *client) {
	h.mu.Lock()
	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		observability.WSClients.Dec()
	}
	h.mu.Unlock()
}

// Broadcast sends the update to every subscriber; clients that fail to accept
// the write are dropped.
func (h *Hub) Broadcast(update StationUpdate) {
	payload, err := json.Marshal(update)
	if err != nil {
		h.logger.Warn("failed to encode station update", zap.Error(err))
		return
	}

	h.mu.RLock()
	clients := make([]*client, 0, len(h.clients))
	for c := range h.clients {
		clients = append(clients, c)
	}
	h.mu.RUnlock()

	for _, c := range clients {
		if err := c.write(websocket.TextMessage, payload); err != nil {
			h.logger.Debug("dropping slow ws client", zap.Error(err))
			h.remove(c)
			_ = c.conn.Close()
		}
	}
}

// Start runs the keepalive ping loop until ctx is cancelled.
func (h *Hub) Start(ctx context.Context) {
	ticker := time.NewTicker(h.pingInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			h.mu.RLock()
			for c := range h.clients {
				_ = c.write(websocket.PingMessage, nil)
			}
			h.mu.RUnlock()
		}
	}
}

type client struct {
	mu   sync.Mutex
	conn *websocket.Conn
}

func (c *client) write(messageType int, payload []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	_ = c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	return c.conn.WriteMessage(messageType, payload)
}
