package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/Chungws/lmarena-clone/internal/websocket"
)

type WebSocketHandler struct {
	hub *websocket.Hub
}

func NewWebSocketHandler(hub *websocket.Hub) *WebSocketHandler {
	return &WebSocketHandler{
		hub: hub,
	}
}

// HandleWebSocket upgrades the connection and subscribes the client to
// leaderboard refresh events.
func (h *WebSocketHandler) HandleWebSocket(c *gin.Context) {
	websocket.ServeWs(h.hub, c.Writer, c.Request)
}
