package game

import (
	"sort"

	"github.com/anteneh-g/tambola-backend/models"
)

// Win is one newly-won prize: every ticket that satisfied the pattern on the
// same evaluation pass is a co-winner of the single win instant.
type Win struct {
	PrizeID string
	Pattern models.PrizePattern
	Winners []models.Winner
}

// Evaluate tests every booked ticket against every unwon prize using the
// game's current called numbers, including the number just appended. It is
// pure: recording the wins (and re-checking that each prize is still unwon)
// is the caller's job, inside the same atomic update that appended the call.
//
// Prizes are evaluated in their configured order so dependent side effects
// (announcement ordering) are reproducible; one prize's result never feeds
// into another's in the same pass.
func Evaluate(g *models.Game) []Win {
	tickets := g.BookedTickets()
	if len(tickets) == 0 {
		return nil
	}

	called := make(map[int]bool, len(g.CalledNumbers))
	for _, n := range g.CalledNumbers {
		called[n] = true
	}

	prizes := append([]models.Prize(nil), g.Prizes...)
	sort.SliceStable(prizes, func(i, j int) bool { return prizes[i].Order < prizes[j].Order })

	var wins []Win
	for _, p := range prizes {
		if p.Won {
			continue
		}
		var winners []models.Winner
		if p.Pattern == models.PatternHalfSheet {
			winners = halfSheetWinners(tickets, called)
		} else {
			for _, t := range tickets {
				if satisfies(&t, p.Pattern, called) {
					winners = append(winners, toWinner(&t))
				}
			}
		}
		if len(winners) > 0 {
			wins = append(wins, Win{PrizeID: p.ID, Pattern: p.Pattern, Winners: winners})
		}
	}
	return wins
}

func toWinner(t *models.Ticket) models.Winner {
	return models.Winner{
		TicketID:    t.TicketID,
		PlayerName:  t.PlayerName,
		PlayerPhone: t.PlayerPhone,
	}
}

func satisfies(t *models.Ticket, pattern models.PrizePattern, called map[int]bool) bool {
	switch pattern {
	case models.PatternQuickFive:
		return t.MarkedCount(called) >= 5
	case models.PatternTopLine:
		return allCalled(t.Row(0), called)
	case models.PatternMiddleLine:
		return allCalled(t.Row(1), called)
	case models.PatternBottomLine:
		return allCalled(t.Row(2), called)
	case models.PatternFourCorners:
		return allCalled(t.Corners(), called)
	case models.PatternStarCorner:
		center, ok := t.Center()
		if !ok {
			return false
		}
		return allCalled(append(t.Corners(), center), called)
	case models.PatternFullHouse:
		return t.MarkedCount(called) == models.TicketNumbers
	default:
		return false
	}
}

func allCalled(nums []int, called map[int]bool) bool {
	if len(nums) == 0 {
		return false
	}
	for _, n := range nums {
		if !called[n] {
			return false
		}
	}
	return true
}

// halfSheetWinners finds complete half-sheet units: the 3 consecutive
// tickets at sheet positions 1-3 or 4-6 of one base set, all booked, each
// with at least 2 marked numbers. All tickets of every qualifying unit are
// co-winners; a ticket from the other half never joins, even if it
// individually qualifies.
func halfSheetWinners(tickets []models.Ticket, called map[int]bool) []models.Winner {
	type unit struct {
		setID int
		half  int
	}
	groups := make(map[unit][]*models.Ticket)
	for i := range tickets {
		t := &tickets[i]
		if t.Position < 1 || t.Position > models.SheetSize {
			continue
		}
		u := unit{setID: t.SetID, half: (t.Position - 1) / models.HalfSheetSize}
		groups[u] = append(groups[u], t)
	}

	keys := make([]unit, 0, len(groups))
	for u := range groups {
		keys = append(keys, u)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].setID != keys[j].setID {
			return keys[i].setID < keys[j].setID
		}
		return keys[i].half < keys[j].half
	})

	var winners []models.Winner
	for _, u := range keys {
		group := groups[u]
		if len(group) != models.HalfSheetSize {
			continue
		}
		qualified := true
		for _, t := range group {
			if t.MarkedCount(called) < 2 {
				qualified = false
				break
			}
		}
		if !qualified {
			continue
		}
		sort.Slice(group, func(i, j int) bool { return group[i].Position < group[j].Position })
		for _, t := range group {
			winners = append(winners, toWinner(t))
		}
	}
	return winners
}
