package handler

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"alacritas/backend/internal/push"
	"alacritas/backend/internal/session"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// The browser client connects from a different origin in development.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// ServeWS upgrades the connection and attaches it to the view-push hub. The
// token travels as a query parameter because browsers cannot set headers on
// WebSocket dials.
func (h *Handler) ServeWS(hub *push.Hub) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, err := session.ValidateToken(c.Query("token"))
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid token or expired"})
			return
		}

		conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			log.Printf("handler: websocket upgrade failed: %v", err)
			return
		}

		client := push.NewWebSocketClient(actor, conn, hub)
		hub.RegisterCh <- client
		client.Run()
	}
}
