// Package ws pushes dashboard refresh hints to connected clients. The
// payload carries only the user and the month that changed; the client
// refetches metrics over HTTP.
package ws

import (
	"encoding/json"
	"log/slog"
	"sync"

	"github.com/gorilla/websocket"
)

type client struct {
	conn   *websocket.Conn
	userID string
}

// Hub routes refresh notifications to the websocket connections of a
// single user. Connections of other users never see the message.
type Hub struct {
	clients    map[*client]bool
	broadcast  chan userMessage
	register   chan *client
	unregister chan *client
	done       chan struct{}
	stopOnce   sync.Once
}

type userMessage struct {
	userID string
	body   []byte
}

func NewHub() *Hub {
	return &Hub{
		clients:    make(map[*client]bool),
		broadcast:  make(chan userMessage, 16),
		register:   make(chan *client),
		unregister: make(chan *client),
		done:       make(chan struct{}),
	}
}

// Start runs the hub loop until Stop is called.
func (h *Hub) Start() {
	go func() {
		for {
			select {
			case <-h.done:
				for c := range h.clients {
					c.conn.Close()
					delete(h.clients, c)
				}
				return
			case c := <-h.register:
				h.clients[c] = true
				slog.Debug("WebSocket client connected", "user_id", c.userID, "total_clients", len(h.clients))
			case c := <-h.unregister:
				if _, ok := h.clients[c]; ok {
					delete(h.clients, c)
					c.conn.Close()
				}
				slog.Debug("WebSocket client disconnected", "user_id", c.userID, "total_clients", len(h.clients))
			case msg := <-h.broadcast:
				for c := range h.clients {
					if c.userID != msg.userID {
						continue
					}
					if err := c.conn.WriteMessage(websocket.TextMessage, msg.body); err != nil {
						slog.Warn("Failed to write to WebSocket client", "user_id", c.userID, "error", err)
						c.conn.Close()
						delete(h.clients, c)
					}
				}
			}
		}
	}()
}

// Stop closes all connections and ends the hub loop.
func (h *Hub) Stop() {
	h.stopOnce.Do(func() { close(h.done) })
}

// BroadcastTransactionChange notifies a user's connections that a
// transaction changed in the given month.
func (h *Hub) BroadcastTransactionChange(userID string, year, month int) {
	payload := map[string]any{
		"type":    "transactions_changed",
		"user_id": userID,
		"year":    year,
		"month":   month,
	}

	body, err := json.Marshal(payload)
	if err != nil {
		slog.Error("Failed to marshal WebSocket payload", "error", err)
		return
	}

	select {
	case h.broadcast <- userMessage{userID: userID, body: body}:
	case <-h.done:
	}
}

// Register attaches an upgraded connection to the hub and blocks reading
// it until the peer disconnects. The read loop discards inbound frames;
// the protocol is push-only.
func (h *Hub) Register(conn *websocket.Conn, userID string) {
	c := &client{conn: conn, userID: userID}

	select {
	case h.register <- c:
	case <-h.done:
		conn.Close()
		return
	}

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}

	select {
	case h.unregister <- c:
	case <-h.done:
	}
}
