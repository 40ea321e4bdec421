package game

import (
	"time"

	"github.com/anteneh-g/tambola-backend/models"
)

type EventType string

const (
	EventNumberCalled EventType = "numberCalled"
	EventPrizeWon     EventType = "prizeWon"
	EventGameOver     EventType = "gameOver"
)

// Event is one discrete announcement. Seq increases monotonically per game
// so downstream consumers (audio announcers, notification bots) can drop
// repeated deliveries of the same logical event on their own.
type Event struct {
	Seq     int64           `json:"seq"`
	GameID  string          `json:"game_id"`
	Type    EventType       `json:"type"`
	Number  int             `json:"number,omitempty"`
	PrizeID string          `json:"prize_id,omitempty"`
	Winners []models.Winner `json:"winners,omitempty"`
	At      time.Time       `json:"at"`
}

// Sink receives engine events. Implementations must not block the call loop;
// slow consumers drop rather than stall.
type Sink interface {
	Emit(ev Event)
}

// NopSink discards events. Used when no announcement backend is configured.
type NopSink struct{}

func (NopSink) Emit(Event) {}
