package api

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/playpool/eightball/internal/api/handlers"
	"github.com/playpool/eightball/internal/config"
	"github.com/playpool/eightball/internal/game"
	"github.com/playpool/eightball/internal/logger"
	"github.com/playpool/eightball/internal/middleware"
	"github.com/playpool/eightball/internal/ws"
)

// SetupRoutes configures all API routes
func SetupRoutes(router *gin.Engine, gm *game.Manager, hub *ws.Hub, cfg *config.Config) {
	router.Use(middleware.CORSMiddleware(cfg))

	if cfg.Environment != "production" {
		router.Use(func(c *gin.Context) {
			c.Header("Cache-Control", "no-store, no-cache, must-revalidate, max-age=0")
			c.Next()
		})
		logger.Log.Info("[DEV MODE] no-cache headers enabled for all routes")
	}

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := router.Group("/api/v1")
	{
		v1.GET("/health", handlers.HealthCheck(gm))

		rooms := v1.Group("/rooms")
		{
			rooms.GET("", handlers.ListRooms(gm))
			rooms.POST("/bot", handlers.CreateBotRoom(gm, cfg))
			rooms.POST("/:id/join", handlers.JoinRoom(gm, cfg))
			rooms.GET("/:id", handlers.GetRoom(gm))
			rooms.GET("/:id/ws", middleware.WebSocketOriginCheck(cfg), handlers.HandleGameWebSocket(hub, cfg))
		}
	}
}
