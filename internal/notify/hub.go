// Package notify pushes order events to connected users over websockets
package notify

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
	"github.com/xtrntr/ihome/internal/models"
)

const (
	writeWait = 5 * time.Second
	// events queued per connection before it is dropped as stalled
	sendBuffer = 16
)

// TokenVerifier resolves a bearer token to a user id
type TokenVerifier interface {
	GetUserFromToken(token string) (int, error)
}

// Event is the message written to a user's connections
type Event struct {
	Type  string       `json:"type"`
	Order models.Order `json:"order"`
}

// client owns one connection. Only its writePump writes to conn.
type client struct {
	conn *websocket.Conn
	send chan []byte
}

func newClient(conn *websocket.Conn) *client {
	return &client{conn: conn, send: make(chan []byte, sendBuffer)}
}

// Hub tracks the open connections of every user. A user may hold several.
type Hub struct {
	verifier TokenVerifier
	logger   *logrus.Logger
	upgrader websocket.Upgrader

	mu      sync.RWMutex
	clients map[int]map[*client]bool
}

// NewHub creates a hub that authenticates sockets with verifier
func NewHub(verifier TokenVerifier, logger *logrus.Logger) *Hub {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Hub{
		verifier: verifier,
		logger:   logger,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true // tokens, not cookies, authenticate the socket
			},
		},
		clients: make(map[int]map[*client]bool),
	}
}

// OrderChanged queues the order for every connection of recipientID without
// waiting on the network. Connections whose queue is full are closed and
// forgotten.
func (h *Hub) OrderChanged(order models.Order, recipientID int) {
	data, err := json.Marshal(Event{Type: "order", Order: order})
	if err != nil {
		h.logger.WithError(err).Error("Failed to marshal order event")
		return
	}

	// send channels are only closed under the write lock
	var stalled []*client
	h.mu.RLock()
	for c := range h.clients[recipientID] {
		select {
		case c.send <- data:
		default:
			stalled = append(stalled, c)
		}
	}
	h.mu.RUnlock()

	for _, c := range stalled {
		h.logger.WithField("user_id", recipientID).Warn("Dropping stalled websocket connection")
		h.remove(recipientID, c)
	}
}

// writePump writes queued events until the client is removed
func (h *Hub) writePump(userID int, c *client) {
	for data := range c.send {
		c.conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
			h.logger.WithError(err).WithField("user_id", userID).Warn("Failed to send order event")
			h.remove(userID, c)
			return
		}
	}
}

// ServeWS authenticates the ?token= query parameter and keeps the upgraded
// connection registered until the client goes away
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	userID, err := h.verifier.GetUserFromToken(r.URL.Query().Get("token"))
	if err != nil {
		http.Error(w, `{"error": "invalid token"}`, http.StatusUnauthorized)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.WithError(err).Warn("Failed to upgrade connection")
		return
	}

	c := newClient(conn)
	h.add(userID, c)
	go h.writePump(userID, c)
	h.logger.WithField("user_id", userID).Debug("Websocket connected")

	// Keep connection alive and handle disconnection
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			h.remove(userID, c)
			return
		}
	}
}

func (h *Hub) add(userID int, c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.clients[userID] == nil {
		h.clients[userID] = make(map[*client]bool)
	}
	h.clients[userID][c] = true
}

func (h *Hub) remove(userID int, c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if !h.clients[userID][c] {
		return
	}
	delete(h.clients[userID], c)
	if len(h.clients[userID]) == 0 {
		delete(h.clients, userID)
	}
	close(c.send)
	c.conn.Close()
}

// Connections is the number of open connections of userID
func (h *Hub) Connections(userID int) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[userID])
}

// Close drops every connection
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for userID, conns := range h.clients {
		for c := range conns {
			close(c.send)
			c.conn.Close()
		}
		delete(h.clients, userID)
	}
}
