package ws

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"pegfall/internal/logger"
	"pegfall/internal/service"
)

// HandleWS upgrades /ws?room=CODE[&token=TICKET] and attaches the socket
// to the room. A ticket is required only when ticket auth is configured.
func HandleWS(hub *Hub, allowedOrigin string) gin.HandlerFunc {
	upgrader := websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			if allowedOrigin == "" {
				return true
			}
			return r.Header.Get("Origin") == allowedOrigin
		},
	}

	return func(c *gin.Context) {
		subject := ""
		if service.TicketsEnabled() {
			token := c.Query("token")
			if token == "" {
				c.JSON(http.StatusUnauthorized, gin.H{"error": "token required"})
				return
			}
			sub, err := service.ParseTicket(token)
			if err != nil {
				c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
				return
			}
			subject = sub
		}

		conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			logger.Debug("ws upgrade failed", "error", err)
			return
		}

		client := NewClient(conn, subject)
		room, err := hub.Attach(c.Query("room"), client.ID, client)
		if err != nil {
			logger.Warn("ws attach failed", "room", c.Query("room"), "error", err)
			_ = conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseTryAgainLater, err.Error()),
				time.Now().Add(writeWait))
			_ = conn.Close()
			return
		}
		go client.Run(room)
	}
}
