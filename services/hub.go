package services

import (
	"encoding/json"
	"sync"

	"github.com/anteneh-g/tambola-backend/models"
	"github.com/anteneh-g/tambola-backend/utils/logger"
)

// Hub fans full game snapshots out to every subscriber of a game. It is the
// live sync layer: any store write republishes the whole resource, repeated
// pushes are expected and clients must treat them idempotently.
type Hub struct {
	mu    sync.RWMutex
	games map[string]map[*Client]bool
}

func NewHub() *Hub {
	return &Hub{games: make(map[string]map[*Client]bool)}
}

// stateMessage is the read-only derived view pushed to host and viewer
// clients alike.
type stateMessage struct {
	Type string       `json:"type"`
	Game *models.Game `json:"game"`
}

func (h *Hub) addClient(c *Client) {
	h.mu.Lock()
	if h.games[c.gameID] == nil {
		h.games[c.gameID] = make(map[*Client]bool)
	}
	h.games[c.gameID][c] = true
	total := len(h.games[c.gameID])
	h.mu.Unlock()

	go c.writePump()
	go c.readPump()

	logger.Infof("[hub] client joined game %s (total=%d)", c.gameID, total)
}

func (h *Hub) removeClient(c *Client) {
	h.mu.Lock()
	if set, ok := h.games[c.gameID]; ok {
		if set[c] {
			delete(set, c)
			c.Close()
		}
		if len(set) == 0 {
			delete(h.games, c.gameID)
		}
	}
	h.mu.Unlock()
}

// Publish pushes a fresh snapshot to every subscriber of the game. Wired to
// store change notifications, so every committed write reaches all clients.
func (h *Hub) Publish(g *models.Game) {
	h.mu.RLock()
	set := h.games[g.ID]
	clients := make([]*Client, 0, len(set))
	for c := range set {
		clients = append(clients, c)
	}
	h.mu.RUnlock()

	if len(clients) == 0 {
		return
	}

	b, err := json.Marshal(stateMessage{Type: "state", Game: g})
	if err != nil {
		logger.Errorf("[hub] marshal snapshot for game %s: %v", g.ID, err)
		return
	}
	for _, c := range clients {
		c.Send(b)
	}
}
