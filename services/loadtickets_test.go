package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/anteneh-g/tambola-backend/models"
	"github.com/anteneh-g/tambola-backend/store"
)

func TestValidateDef(t *testing.T) {
	good := makeDef("A001", 1, 1, 1)
	assert.NoError(t, validateDef(good))

	short := good
	short.Grid[0][4] = 0
	assert.Error(t, validateDef(short), "a row with four numbers is invalid")

	outOfRange := good
	outOfRange.Grid[2][0] = 91
	assert.Error(t, validateDef(outOfRange))

	badPos := good
	badPos.Position = 7
	assert.Error(t, validateDef(badPos))
}

func TestTicketsForGame(t *testing.T) {
	seedTicketSet(t)

	tickets, err := TicketsForGame("game-1", 3)
	require.NoError(t, err)
	require.Len(t, tickets, 3)
	for i, tk := range tickets {
		assert.Equal(t, "game-1", tk.GameID)
		assert.False(t, tk.IsBooked)
		assert.Equal(t, i+1, tk.Position)
		assert.Len(t, tk.Numbers(), models.TicketNumbers)
	}

	_, err = TicketsForGame("game-1", 0)
	assert.True(t, store.IsValidation(err))
	_, err = TicketsForGame("game-1", 7)
	assert.True(t, store.IsValidation(err), "requesting more tickets than the set holds is rejected")
}
