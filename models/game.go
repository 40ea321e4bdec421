package models

import (
	"time"

	"gorm.io/datatypes"
)

// GameStatus is the single source of truth for game phase. The old
// isActive/isCountdown/gameOver flag combination allowed impossible states,
// so phase is one enum.
type GameStatus string

const (
	StatusSetup     GameStatus = "setup"
	StatusCountdown GameStatus = "countdown"
	StatusActive    GameStatus = "active"
	StatusPaused    GameStatus = "paused"
	StatusFinished  GameStatus = "finished"
)

// MaxNumber is the highest callable number in a Tambola session.
const MaxNumber = 90

type Game struct {
	ID          string     `gorm:"primaryKey;size:36" json:"id"`
	HostID      string     `gorm:"index;size:36" json:"host_id"`
	MaxTickets  int        `json:"max_tickets"`
	TicketPrice float64    `json:"ticket_price"`
	Status      GameStatus `gorm:"size:16;default:setup" json:"status"`

	// CalledNumbers is append-only while active; each value in [1,90] at
	// most once. SessionNumbers is the full pre-shuffled permutation fixed
	// at countdown start, so the next call is always the first session
	// number not yet called.
	CalledNumbers  datatypes.JSONSlice[int] `json:"called_numbers"`
	SessionNumbers datatypes.JSONSlice[int] `json:"-"`

	CurrentNumber *int `json:"current_number,omitempty"`
	CountdownTime int  `json:"countdown_time"`

	Tickets []Ticket `gorm:"foreignKey:GameID" json:"tickets,omitempty"`
	Prizes  []Prize  `gorm:"foreignKey:GameID" json:"prizes,omitempty"`

	CreatedAt time.Time  `json:"created_at"`
	StartedAt *time.Time `json:"started_at,omitempty"`
	EndedAt   *time.Time `json:"ended_at,omitempty"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// Called reports whether n has already been drawn in this game.
func (g *Game) Called(n int) bool {
	for _, c := range g.CalledNumbers {
		if c == n {
			return true
		}
	}
	return false
}

// PoolExhausted reports whether every number of the session has been called.
func (g *Game) PoolExhausted() bool {
	return len(g.CalledNumbers) >= MaxNumber
}

// BookedTickets returns the game's booked tickets in ticket-id order.
func (g *Game) BookedTickets() []Ticket {
	out := make([]Ticket, 0, len(g.Tickets))
	for _, t := range g.Tickets {
		if t.IsBooked {
			out = append(out, t)
		}
	}
	return out
}

// PrizeByID looks up a prize record on the loaded game.
func (g *Game) PrizeByID(id string) *Prize {
	for i := range g.Prizes {
		if g.Prizes[i].ID == id {
			return &g.Prizes[i]
		}
	}
	return nil
}
