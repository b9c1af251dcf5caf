package ws

import (
	"net/http"

	"creatorhub_backend/internal/logger"
	"creatorhub_backend/pkg/apperrors"
	"creatorhub_backend/pkg/contextkeys"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // origin проверяет CORS на уровне роутера
	},
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
}

type WebSocketHandler struct {
	Manager *WebSocketManager
}

func NewWebSocketHandler(manager *WebSocketManager) *WebSocketHandler {
	return &WebSocketHandler{Manager: manager}
}

// ServeWS upgrades an authenticated request. Browsers cannot set headers on
// a websocket handshake, so the auth middleware also accepts ?access_token=.
func (h *WebSocketHandler) ServeWS(c *gin.Context) {
	userID := c.GetString(contextkeys.UserIDKey)
	if userID == "" {
		apperrors.HandleError(c, apperrors.NewUnauthorizedError("Authentication required"))
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		logger.CtxWithError(c.Request.Context(), "websocket upgrade failed", err)
		return
	}

	client := newClient(h.Manager, conn, userID)
	h.Manager.register <- client
	logger.CtxInfo(c.Request.Context(), "websocket connected", "user_id", userID)

	go client.writePump()
	go client.readPump()
}
