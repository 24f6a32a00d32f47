package websocket

import (
	"sync"

	"github.com/Chungws/lmarena-clone/pkg/logger"
)

// Hub manages WebSocket connections and fan-out. Connections are anonymous
// and push-only: clients receive leaderboard refresh events, nothing else.
type Hub struct {
	clients map[*Client]bool
	mu      sync.RWMutex

	broadcast  chan *Message
	register   chan *Client
	unregister chan *Client
}

// Message is one event pushed to connected clients.
type Message struct {
	Type    string `json:"type"`
	Payload any    `json:"payload"`
}

func NewHub() *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		broadcast:  make(chan *Message, 256),
		register:   make(chan *Client),
		unregister: make(chan *Client),
	}
}

// Run processes register, unregister and broadcast events. Call in its own
// goroutine.
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.registerClient(client)

		case client := <-h.unregister:
			h.unregisterClient(client)

		case message := <-h.broadcast:
			h.broadcastMessage(message)
		}
	}
}

func (h *Hub) registerClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.clients[client] = true
	logger.Info("WebSocket client registered", "totalClients", len(h.clients))
}

func (h *Hub) unregisterClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, exists := h.clients[client]; exists {
		delete(h.clients, client)
		close(client.send)
		logger.Info("WebSocket client unregistered", "totalClients", len(h.clients))
	}
}

func (h *Hub) broadcastMessage(message *Message) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for client := range h.clients {
		select {
		case client.send <- message:
		default:
			// Slow consumer, drop the connection.
			logger.Warn("Client send channel full, unregistering")
			go func(c *Client) {
				h.unregister <- c
			}(client)
		}
	}
}

// Broadcast sends an event to every connected client.
func (h *Hub) Broadcast(msgType string, payload any) {
	h.broadcast <- &Message{
		Type:    msgType,
		Payload: payload,
	}
}
