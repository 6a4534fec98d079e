package server

import (
	"net/http"

	"geopulse-relay-svc/src/internal/dependency"
	"geopulse-relay-svc/src/internal/hub"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Clients connect from mobile apps and arbitrary dev hosts; origin
	// checks are left to the deployment edge.
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

func setupSocketRoute(deps *dependency.Manager) {
	deps.Router.GET("/ws", func(c *gin.Context) {
		conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			log.WithError(err).Warn("WebSocket upgrade failed")
			return
		}

		client := hub.NewClient(conn, deps.Hub, c.Request.RemoteAddr)
		deps.Hub.Register(client)
	})
}
