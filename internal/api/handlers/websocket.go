package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/playpool/eightball/internal/config"
	"github.com/playpool/eightball/internal/ws"
)

// HandleGameWebSocket handles real-time match communication
func HandleGameWebSocket(hub *ws.Hub, cfg *config.Config) gin.HandlerFunc {
	return ws.HandleWebSocket(hub, cfg.JWTSecret)
}
