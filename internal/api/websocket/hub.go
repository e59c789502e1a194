package websocket

import (
	"context"
	"sync"

	"github.com/platformbuilds/lineboard/internal/monitoring"
	"github.com/platformbuilds/lineboard/pkg/logger"
)

// Hub tracks open dashboard connections and fans notifications out to them.
type Hub struct {
	clients    map[*Client]struct{}
	register   chan *Client
	unregister chan *Client
	broadcast  chan Message
	logger     logger.Logger
	mu         sync.RWMutex
	done       chan struct{}
}

func NewHub(logger logger.Logger) *Hub {
	return &Hub{
		clients:    make(map[*Client]struct{}),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan Message, 8),
		logger:     logger,
		done:       make(chan struct{}),
	}
}

// Run serves registrations until ctx is done, then cancels every client.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = struct{}{}
			h.mu.Unlock()
			monitoring.WebSocketOpened(client.stream)
			h.logger.Info("WebSocket client connected", "clientId", client.id, "unit", client.unit, "stream", client.stream)

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				monitoring.WebSocketClosed(client.stream)
			}
			h.mu.Unlock()
			h.logger.Info("WebSocket client disconnected", "clientId", client.id, "unit", client.unit)

		case msg := <-h.broadcast:
			h.mu.RLock()
			for client := range h.clients {
				client.notify(msg)
			}
			h.mu.RUnlock()

		case <-ctx.Done():
			h.mu.Lock()
			for client := range h.clients {
				client.cancel()
				delete(h.clients, client)
				monitoring.WebSocketClosed(client.stream)
			}
			h.mu.Unlock()
			return
		}
	}
}

// Broadcast queues msg for every connected client; each client also
// recomputes immediately. It never blocks once the hub has stopped.
func (h *Hub) Broadcast(msg Message) {
	select {
	case h.broadcast <- msg:
	case <-h.done:
	}
}

// Count returns the number of open connections.
func (h *Hub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

func (h *Hub) add(c *Client) bool {
	select {
	case h.register <- c:
		return true
	case <-h.done:
		return false
	}
}

func (h *Hub) remove(c *Client) {
	select {
	case h.unregister <- c:
	case <-h.done:
	}
}
