package models

import (
	"time"

	"gorm.io/datatypes"
)

// TicketRows, TicketCols and TicketNumbers describe the standard Tambola
// layout: 3 rows of 9 columns, 5 numbers per row, blanks stored as 0.
const (
	TicketRows    = 3
	TicketCols    = 9
	TicketNumbers = 15

	// SheetSize tickets form one base sheet; positions 1-3 and 4-6 are the
	// two half-sheet units.
	SheetSize     = 6
	HalfSheetSize = 3
)

// Grid is a 3x9 ticket layout. Zero means blank cell.
type Grid [TicketRows][TicketCols]int

type Ticket struct {
	ID       uint   `gorm:"primaryKey" json:"-"`
	TicketID string `gorm:"size:8;uniqueIndex:idx_game_ticket" json:"ticket_id"`
	GameID   string `gorm:"size:36;uniqueIndex:idx_game_ticket;index" json:"game_id"`

	Grid datatypes.JSONType[Grid] `json:"grid"`

	// SetID groups the 6 tickets of one base sheet; Position is 1..6 within
	// the sheet. Both are fixed at generation time and drive the half-sheet
	// prize grouping.
	SetID    int `json:"set_id"`
	Position int `json:"position"`

	IsBooked    bool       `json:"is_booked"`
	PlayerName  string     `json:"player_name,omitempty"`
	PlayerPhone string     `json:"player_phone,omitempty"`
	BookedAt    *time.Time `json:"booked_at,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Numbers returns the ticket's 15 numbers in row-major order.
func (t *Ticket) Numbers() []int {
	g := t.Grid.Data()
	out := make([]int, 0, TicketNumbers)
	for r := 0; r < TicketRows; r++ {
		for c := 0; c < TicketCols; c++ {
			if g[r][c] != 0 {
				out = append(out, g[r][c])
			}
		}
	}
	return out
}

// Row returns the numbers of one grid row, left to right.
func (t *Ticket) Row(r int) []int {
	g := t.Grid.Data()
	out := make([]int, 0, 5)
	for c := 0; c < TicketCols; c++ {
		if g[r][c] != 0 {
			out = append(out, g[r][c])
		}
	}
	return out
}

// Corners returns the first and last numbers of the top and bottom rows.
func (t *Ticket) Corners() []int {
	top := t.Row(0)
	bottom := t.Row(TicketRows - 1)
	if len(top) == 0 || len(bottom) == 0 {
		return nil
	}
	return []int{top[0], top[len(top)-1], bottom[0], bottom[len(bottom)-1]}
}

// Center returns the middle number of the middle row.
func (t *Ticket) Center() (int, bool) {
	mid := t.Row(1)
	if len(mid) == 0 {
		return 0, false
	}
	return mid[len(mid)/2], true
}

// MarkedCount counts ticket numbers present in the called set.
func (t *Ticket) MarkedCount(called map[int]bool) int {
	n := 0
	for _, v := range t.Numbers() {
		if called[v] {
			n++
		}
	}
	return n
}
