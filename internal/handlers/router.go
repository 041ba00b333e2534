package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"casino-settlement/internal/middleware"
	"casino-settlement/internal/services"
)

type RouterDeps struct {
	Engine        *services.Engine
	Store         *services.RedisService
	JWT           *services.JWTService
	Hub           *WebSocketHub
	Logger        *zap.Logger
	BetsPerMinute int
}

func NewRouter(d RouterDeps) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), middleware.RequestLogger(d.Logger))

	router.Use(func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	})

	router.GET("/healthz", func(c *gin.Context) {
		if err := d.Store.Ping(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	userHandler := NewUserHandler(d.Engine)
	gameHandler := NewGameHandler(d.Engine)
	wsHandler := NewWebSocketHandler(d.Engine, d.Hub)

	protected := router.Group("/api")
	protected.Use(middleware.AuthMiddleware(d.JWT))
	{
		protected.POST("/place-bet",
			middleware.RateLimitMiddleware(d.Store, "place-bet", d.BetsPerMinute, time.Minute),
			gameHandler.PlaceBet,
		)
		protected.GET("/me", userHandler.GetCurrentUser)
		protected.GET("/history", gameHandler.GetGameHistory)
		protected.GET("/games/active", gameHandler.GetActiveGames)
		protected.POST("/verify", gameHandler.VerifyGame)
		protected.GET("/fairness", gameHandler.GetNextSeed)
		protected.GET("/ws", wsHandler.HandleWebSocket)
	}

	return router
}
