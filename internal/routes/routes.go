package routes

import (
	"net/http"

	"creatorhub_backend/internal/handlers"
	"creatorhub_backend/internal/logger"
	"creatorhub_backend/internal/middleware"
	"creatorhub_backend/ws"

	"github.com/gin-gonic/gin"
)

// RegisterRoutes регистрирует все HTTP и WebSocket маршруты.
func RegisterRoutes(
	ginRouter *gin.Engine,
	appHandlers *handlers.AppHandlers,
	wsHandler *ws.WebSocketHandler,
) {
	ginRouter.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// Регистрация HTTP API v1
	api := ginRouter.Group("/api/v1")
	{
		appHandlers.AuthHandler.RegisterRoutes(api)
		appHandlers.ContentHandler.RegisterRoutes(api)
		appHandlers.SubscriptionHandler.RegisterRoutes(api)
		appHandlers.NotificationHandler.RegisterRoutes(api)
		appHandlers.AdminHandler.RegisterRoutes(api)
	}

	// Локальные файлы раздаются с корня: так их адресует LocalStorage.GetURL.
	if appHandlers.FileHandler != nil {
		appHandlers.FileHandler.RegisterRoutes(&ginRouter.RouterGroup)
	}

	if wsHandler != nil {
		wsGroup := ginRouter.Group("/ws")
		wsGroup.Use(middleware.AuthMiddleware())
		{
			wsGroup.GET("", wsHandler.ServeWS)
		}
		logger.Info("WebSocket route /ws registered")
	}
}
