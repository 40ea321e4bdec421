package services

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/anteneh-g/tambola-backend/store"
	"github.com/anteneh-g/tambola-backend/utils/logger"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// WSHandler subscribes a client to one game's snapshot stream. The current
// snapshot is pushed immediately so a reconnecting client re-derives its
// phase without waiting for the next change.
func WSHandler(hub *Hub, st store.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		gameID := c.Param("game_id")
		g, err := st.Game(c.Request.Context(), gameID)
		if err != nil {
			if errors.Is(err, store.ErrGameNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"error": "game not found"})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load game"})
			return
		}

		conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			logger.Errorf("[ws] upgrade failed for game %s: %v", gameID, err)
			return
		}

		client := &Client{
			gameID: gameID,
			conn:   conn,
			hub:    hub,
			send:   make(chan []byte, 32),
		}
		hub.addClient(client)

		if b, err := json.Marshal(stateMessage{Type: "state", Game: g}); err == nil {
			client.Send(b)
		}
	}
}
