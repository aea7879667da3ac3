package api

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"alert-monitor/internal/logging"
	"alert-monitor/internal/models"
)

const (
	maxConnections = 10
	sendBuffer     = 16
	writeTimeout   = 10 * time.Second
)

// client owns one connection. Only its writer goroutine writes to conn.
type client struct {
	conn *websocket.Conn
	send chan []byte
}

// Hub broadcasts monitor events to connected websocket clients.
// Publish never blocks: a client whose queue is full is disconnected.
type Hub struct {
	connections map[*websocket.Conn]*client
	mutex       sync.Mutex
	logger      *logging.Logger
}

func NewHub(logger *logging.Logger) *Hub {
	return &Hub{connections: make(map[*websocket.Conn]*client), logger: logger}
}

// AddConnection registers conn and starts its writer. It reports false when the hub is full.
func (h *Hub) AddConnection(conn *websocket.Conn) bool {
	h.mutex.Lock()
	defer h.mutex.Unlock()
	if len(h.connections) >= maxConnections {
		h.logger.Warnf("Max websocket connections reached (%d)", maxConnections)
		return false
	}
	c := &client{conn: conn, send: make(chan []byte, sendBuffer)}
	h.connections[conn] = c
	go h.writePump(c)
	h.logger.Infof("Added WebSocket connection (total: %d)", len(h.connections))
	return true
}

func (h *Hub) RemoveConnection(conn *websocket.Conn) {
	h.mutex.Lock()
	defer h.mutex.Unlock()
	if h.drop(conn) {
		h.logger.Infof("Removed WebSocket connection (remaining: %d)", len(h.connections))
	}
}

// drop must be called with h.mutex held.
func (h *Hub) drop(conn *websocket.Conn) bool {
	c, ok := h.connections[conn]
	if !ok {
		return false
	}
	delete(h.connections, conn)
	close(c.send)
	conn.Close()
	return true
}

func (h *Hub) writePump(c *client) {
	for data := range c.send {
		c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
		if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
			h.logger.Errorf("Failed to send WebSocket message: %v", err)
			h.RemoveConnection(c.conn)
			return
		}
	}
}

// Publish queues ev for every client, disconnecting clients that fall behind.
func (h *Hub) Publish(ev models.Event) {
	data, err := json.Marshal(ev)
	if err != nil {
		h.logger.Errorf("Failed to encode event %s: %v", ev.Type, err)
		return
	}
	h.mutex.Lock()
	defer h.mutex.Unlock()
	for conn, c := range h.connections {
		select {
		case c.send <- data:
		default:
			h.logger.Warn("WebSocket client is not reading, disconnecting")
			h.drop(conn)
		}
	}
}

// Count returns the number of connected clients.
func (h *Hub) Count() int {
	h.mutex.Lock()
	defer h.mutex.Unlock()
	return len(h.connections)
}

// Close disconnects every client.
func (h *Hub) Close() {
	h.mutex.Lock()
	defer h.mutex.Unlock()
	for conn := range h.connections {
		h.drop(conn)
	}
}
