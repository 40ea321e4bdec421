package models

import (
	"time"

	"gorm.io/datatypes"
)

// PrizePattern identifies one winning pattern.
type PrizePattern string

const (
	PatternQuickFive   PrizePattern = "quickFive"
	PatternTopLine     PrizePattern = "topLine"
	PatternMiddleLine  PrizePattern = "middleLine"
	PatternBottomLine  PrizePattern = "bottomLine"
	PatternFourCorners PrizePattern = "fourCorners"
	PatternStarCorner  PrizePattern = "starCorner"
	PatternHalfSheet   PrizePattern = "halfSheet"
	PatternFullHouse   PrizePattern = "fullHouse"
)

// KnownPatterns lists every supported pattern identifier.
var KnownPatterns = []PrizePattern{
	PatternQuickFive,
	PatternTopLine,
	PatternMiddleLine,
	PatternBottomLine,
	PatternFourCorners,
	PatternStarCorner,
	PatternHalfSheet,
	PatternFullHouse,
}

// ValidPattern reports whether p is a supported pattern identifier.
func ValidPattern(p PrizePattern) bool {
	for _, k := range KnownPatterns {
		if k == p {
			return true
		}
	}
	return false
}

// Winner records one winning ticket of a prize. A single win event may carry
// several winners when one call completes multiple tickets at once.
type Winner struct {
	TicketID    string `json:"ticket_id"`
	PlayerName  string `json:"player_name"`
	PlayerPhone string `json:"player_phone"`
}

type Prize struct {
	ID      string       `gorm:"primaryKey;size:36" json:"id"`
	GameID  string       `gorm:"size:36;index" json:"game_id"`
	Name    string       `gorm:"size:64" json:"name"`
	Pattern PrizePattern `gorm:"size:24" json:"pattern"`
	Order   int          `gorm:"column:eval_order" json:"order"`

	// Won flips false->true at most once per game run and only reverts on an
	// explicit reset. Winners are fixed once set.
	Won           bool                         `json:"won"`
	WinningNumber *int                         `json:"winning_number,omitempty"`
	WonAt         *time.Time                   `json:"won_at,omitempty"`
	Winners       datatypes.JSONType[[]Winner] `json:"winners"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
