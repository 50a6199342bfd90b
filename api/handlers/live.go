package handlers

import (
	"net/http"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/neuradyne/omnivision-api/live"
)

// Live exported for testing purposes
type Live struct {
	Hub *live.Hub
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// the dashboard and the api are served from the same origin; the
	// bearer check already gates this route
	CheckOrigin: func(r *http.Request) bool { return true },
}

// ServeWS upgrades an authenticated dashboard connection onto the live feed.
func (l Live) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already written the error response
		zap.S().With(err).Error("failed to upgrade live feed connection")
		return
	}
	l.Hub.Register(conn)
}
