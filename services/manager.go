package services

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/anteneh-g/tambola-backend/game"
	"github.com/anteneh-g/tambola-backend/models"
	"github.com/anteneh-g/tambola-backend/store"
	"github.com/anteneh-g/tambola-backend/utils/logger"
)

// RecentFinishedWindow bounds how old a finished game may be and still be
// surfaced for review on host reconnect instead of silently ignored.
const RecentFinishedWindow = 15 * time.Minute

// resumeScanLimit caps how many of a host's games the reconnect scan loads.
const resumeScanLimit = 10

// Manager owns the per-game progression controllers of this process and the
// game/ticket lifecycle operations in front of the store. Games are fully
// independent: one controller failing never touches another's loop.
type Manager struct {
	st      store.Store
	checker game.HostChecker
	sink    game.Sink
	cfg     game.Config

	mu          sync.Mutex
	controllers map[string]*game.Controller
}

func NewManager(st store.Store, checker game.HostChecker, sink game.Sink, cfg game.Config) *Manager {
	return &Manager{
		st:          st,
		checker:     checker,
		sink:        sink,
		cfg:         cfg,
		controllers: make(map[string]*game.Controller),
	}
}

// Controller returns the process-local controller for a game, creating it on
// first use.
func (m *Manager) Controller(gameID string) *game.Controller {
	m.mu.Lock()
	defer m.mu.Unlock()
	if c, ok := m.controllers[gameID]; ok {
		return c
	}
	c := game.NewController(gameID, m.st, m.checker, m.sink, m.cfg)
	c.OnGameGone(func() {
		logger.Infof("[manager] dropping controller for vanished game %s", gameID)
		m.Remove(gameID)
	})
	m.controllers[gameID] = c
	return c
}

// Remove tears down the local controller for a game that no longer exists.
func (m *Manager) Remove(gameID string) {
	m.mu.Lock()
	c, ok := m.controllers[gameID]
	if ok {
		delete(m.controllers, gameID)
	}
	m.mu.Unlock()
	if ok {
		c.Stop()
	}
}

type PrizeSelection struct {
	Name    string              `json:"name" binding:"required"`
	Pattern models.PrizePattern `json:"pattern" binding:"required"`
	Order   int                 `json:"order"`
}

type CreateGameRequest struct {
	MaxTickets  int              `json:"max_tickets" binding:"required"`
	TicketPrice float64          `json:"ticket_price"`
	Prizes      []PrizeSelection `json:"prizes" binding:"required"`
}

// CreateGame validates host configuration, materializes the ticket set and
// prize records, and persists the new game in setup.
func (m *Manager) CreateGame(ctx context.Context, hostID string, req CreateGameRequest) (*models.Game, error) {
	if req.MaxTickets < 1 || req.MaxTickets > FullTicketSet {
		return nil, store.Validationf("max tickets %d out of range [1,%d]", req.MaxTickets, FullTicketSet)
	}
	if req.TicketPrice < 0 {
		return nil, store.Validationf("ticket price cannot be negative")
	}
	if len(req.Prizes) == 0 {
		return nil, store.Validationf("at least one prize must be selected")
	}
	for _, p := range req.Prizes {
		if !models.ValidPattern(p.Pattern) {
			return nil, store.Validationf("unknown prize pattern %q", p.Pattern)
		}
	}

	gameID := uuid.NewString()
	tickets, err := TicketsForGame(gameID, req.MaxTickets)
	if err != nil {
		return nil, err
	}

	prizes := make([]models.Prize, 0, len(req.Prizes))
	for i, p := range req.Prizes {
		order := p.Order
		if order == 0 {
			order = i + 1
		}
		prizes = append(prizes, models.Prize{
			ID:      uuid.NewString(),
			GameID:  gameID,
			Name:    p.Name,
			Pattern: p.Pattern,
			Order:   order,
		})
	}

	g := &models.Game{
		ID:          gameID,
		HostID:      hostID,
		MaxTickets:  req.MaxTickets,
		TicketPrice: req.TicketPrice,
		Status:      models.StatusSetup,
		Tickets:     tickets,
		Prizes:      prizes,
	}
	if err := m.st.CreateGame(ctx, g); err != nil {
		return nil, err
	}
	logger.Infof("[manager] host %s created game %s (%d tickets, %d prizes)", hostID, gameID, len(tickets), len(prizes))
	return g, nil
}

// UpdateGameConfig changes ticket price pre-start. Configuration is frozen
// once the game leaves setup.
func (m *Manager) UpdateGameConfig(ctx context.Context, gameID string, ticketPrice float64) (*models.Game, error) {
	if ticketPrice < 0 {
		return nil, store.Validationf("ticket price cannot be negative")
	}
	return m.st.AtomicUpdate(ctx, gameID, func(g *models.Game) error {
		if g.Status != models.StatusSetup {
			return store.Validationf("game is %s, configuration is frozen after start", g.Status)
		}
		g.TicketPrice = ticketPrice
		return nil
	})
}

type BookTicketRequest struct {
	PlayerName  string `json:"player_name" binding:"required"`
	PlayerPhone string `json:"player_phone"`
}

// BookTicket books one ticket for a player. Booking is one-way: a booked
// ticket stays booked, reset included.
func (m *Manager) BookTicket(ctx context.Context, gameID, ticketID string, req BookTicketRequest) (*models.Game, error) {
	if req.PlayerName == "" {
		return nil, store.Validationf("player name is required")
	}
	return m.st.AtomicUpdate(ctx, gameID, func(g *models.Game) error {
		if g.Status != models.StatusSetup && g.Status != models.StatusCountdown {
			return store.Validationf("game is %s, bookings are closed", g.Status)
		}
		for i := range g.Tickets {
			t := &g.Tickets[i]
			if t.TicketID != ticketID {
				continue
			}
			if t.IsBooked {
				return store.Validationf("ticket %s is already booked", ticketID)
			}
			now := time.Now()
			t.IsBooked = true
			t.PlayerName = req.PlayerName
			t.PlayerPhone = req.PlayerPhone
			t.BookedAt = &now
			return nil
		}
		return store.Validationf("ticket %s not found in game", ticketID)
	})
}

// HostGames lists a host's recent games, newest first.
func (m *Manager) HostGames(ctx context.Context, hostID string, limit int) ([]models.Game, error) {
	return m.st.GamesByHost(ctx, hostID, limit)
}

// ResumeHost re-attaches call loops on host reconnect: active or
// counting-down games resume driving locally without re-creating state, and
// games finished within the recency window are surfaced for review rather
// than silently left behind.
func (m *Manager) ResumeHost(ctx context.Context, hostID string) (resumed []string, review []models.Game, err error) {
	games, err := m.st.GamesByHost(ctx, hostID, resumeScanLimit)
	if err != nil {
		return nil, nil, err
	}
	now := time.Now()
	for _, g := range games {
		switch g.Status {
		case models.StatusActive, models.StatusCountdown:
			if err := m.Controller(g.ID).Drive(ctx); err != nil {
				logger.Errorf("[manager] resume drive for game %s: %v", g.ID, err)
				continue
			}
			logger.Infof("[manager] resumed driving game %s (%s)", g.ID, g.Status)
			resumed = append(resumed, g.ID)
		case models.StatusFinished:
			if g.EndedAt != nil && now.Sub(*g.EndedAt) <= RecentFinishedWindow {
				review = append(review, g)
			}
		}
	}
	return resumed, review, nil
}
