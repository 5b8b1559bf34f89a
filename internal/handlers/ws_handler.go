package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// Events upgrades the connection and subscribes it to the notification
// hub. The client only listens; incoming frames are drained to keep
// control messages flowing and to notice the disconnect.
func (h *Handlers) Events(c *gin.Context) {
	upgrader := websocket.Upgrader{
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			return origin == "" || origin == h.Config.CORSOrigin
		},
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.Log.Warn("websocket upgrade failed", zap.Error(err))
		return
	}

	h.Hub.Register(conn)

	go func() {
		defer h.Hub.Unregister(conn)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
}
