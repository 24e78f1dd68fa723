package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/PepaPanda/uu-backend-project/internal/websocket"
)

type WebSocketHandler struct {
	hub *websocket.Hub
}

func NewWebSocketHandler(hub *websocket.Hub) *WebSocketHandler {
	return &WebSocketHandler{hub: hub}
}

// HandleWebSocket upgrades HTTP connection to WebSocket
func (h *WebSocketHandler) HandleWebSocket(c *gin.Context) {
	actor, ok := identity(c)
	if !ok {
		return
	}

	h.hub.ServeWS(c, actor.UserID)
}

// GetOnlineUsers returns list of currently online users
func (h *WebSocketHandler) GetOnlineUsers(c *gin.Context) {
	if _, ok := identity(c); !ok {
		return
	}

	onlineUsers := h.hub.GetOnlineUsers()

	c.JSON(http.StatusOK, gin.H{
		"online_users": onlineUsers,
		"count":        len(onlineUsers),
	})
}
