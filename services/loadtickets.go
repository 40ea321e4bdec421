package services

import (
	"encoding/json"
	"fmt"
	"os"
	"sync"

	"gorm.io/datatypes"

	"github.com/anteneh-g/tambola-backend/models"
	"github.com/anteneh-g/tambola-backend/store"
	"github.com/anteneh-g/tambola-backend/utils/logger"
)

// TicketDef is one entry of the pre-generated 600-ticket set. Grid
// generation itself lives outside this service; the set ships as
// tickets.json and never changes at runtime.
type TicketDef struct {
	TicketID string      `json:"ticket_id"`
	SetID    int         `json:"set_id"`
	Position int         `json:"position"`
	Grid     models.Grid `json:"grid"`
}

const FullTicketSet = 600

var (
	ticketSet   []TicketDef
	ticketSetMu sync.RWMutex
)

// LoadTickets reads the ticket set from path.
func LoadTickets(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read ticket set: %w", err)
	}
	var defs []TicketDef
	if err := json.Unmarshal(data, &defs); err != nil {
		return fmt.Errorf("unmarshal ticket set: %w", err)
	}
	for _, d := range defs {
		if err := validateDef(d); err != nil {
			return err
		}
	}

	ticketSetMu.Lock()
	ticketSet = defs
	ticketSetMu.Unlock()

	logger.Infof("[tickets] loaded %d tickets", len(defs))
	return nil
}

// SetTicketSet replaces the loaded set in-process. Test seam.
func SetTicketSet(defs []TicketDef) {
	ticketSetMu.Lock()
	ticketSet = defs
	ticketSetMu.Unlock()
}

func validateDef(d TicketDef) error {
	count := 0
	for r := 0; r < models.TicketRows; r++ {
		rowCount := 0
		for c := 0; c < models.TicketCols; c++ {
			if n := d.Grid[r][c]; n != 0 {
				if n < 1 || n > models.MaxNumber {
					return fmt.Errorf("ticket %s has out-of-range number %d", d.TicketID, n)
				}
				rowCount++
			}
		}
		if rowCount != 5 {
			return fmt.Errorf("ticket %s row %d has %d numbers, want 5", d.TicketID, r, rowCount)
		}
		count += rowCount
	}
	if count != models.TicketNumbers {
		return fmt.Errorf("ticket %s has %d numbers, want %d", d.TicketID, count, models.TicketNumbers)
	}
	if d.Position < 1 || d.Position > models.SheetSize {
		return fmt.Errorf("ticket %s has invalid sheet position %d", d.TicketID, d.Position)
	}
	return nil
}

// TicketsForGame materializes the first n set entries as unbooked tickets of
// the given game.
func TicketsForGame(gameID string, n int) ([]models.Ticket, error) {
	ticketSetMu.RLock()
	defer ticketSetMu.RUnlock()

	if n < 1 || n > len(ticketSet) {
		return nil, store.Validationf("ticket count %d out of range [1,%d]", n, len(ticketSet))
	}
	out := make([]models.Ticket, 0, n)
	for _, d := range ticketSet[:n] {
		out = append(out, models.Ticket{
			TicketID: d.TicketID,
			GameID:   gameID,
			Grid:     datatypes.NewJSONType(d.Grid),
			SetID:    d.SetID,
			Position: d.Position,
		})
	}
	return out, nil
}
