package store

import (
	"context"
	"errors"
	"reflect"
	"strings"
	"sync"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/anteneh-g/tambola-backend/models"
	"github.com/anteneh-g/tambola-backend/utils/logger"
)

const (
	maxUpdateAttempts = 3
	initialBackoff    = 100 * time.Millisecond
)

// GormStore persists games in Postgres. Per-game serialization comes from a
// SELECT ... FOR UPDATE on the game row inside one transaction, so two
// concurrent AtomicUpdate calls on the same game never interleave, even when
// they originate from duplicate tabs of the same host.
type GormStore struct {
	db *gorm.DB

	mu        sync.RWMutex
	notifiers []func(*models.Game)
}

func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

func (s *GormStore) Notify(fn func(*models.Game)) {
	s.mu.Lock()
	s.notifiers = append(s.notifiers, fn)
	s.mu.Unlock()
}

func (s *GormStore) publish(g *models.Game) {
	s.mu.RLock()
	fns := make([]func(*models.Game), len(s.notifiers))
	copy(fns, s.notifiers)
	s.mu.RUnlock()
	for _, fn := range fns {
		fn(g)
	}
}

func (s *GormStore) CreateGame(ctx context.Context, g *models.Game) error {
	if err := s.db.WithContext(ctx).Create(g).Error; err != nil {
		return err
	}
	s.publish(g)
	return nil
}

func (s *GormStore) Game(ctx context.Context, id string) (*models.Game, error) {
	var g models.Game
	err := s.db.WithContext(ctx).
		Preload("Tickets", func(db *gorm.DB) *gorm.DB { return db.Order("ticket_id") }).
		Preload("Prizes", func(db *gorm.DB) *gorm.DB { return db.Order("eval_order") }).
		First(&g, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrGameNotFound
	}
	if err != nil {
		return nil, err
	}
	return &g, nil
}

func (s *GormStore) GamesByHost(ctx context.Context, hostID string, limit int) ([]models.Game, error) {
	var games []models.Game
	q := s.db.WithContext(ctx).
		Preload("Prizes", func(db *gorm.DB) *gorm.DB { return db.Order("eval_order") }).
		Where("host_id = ?", hostID).
		Order("created_at DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&games).Error; err != nil {
		return nil, err
	}
	return games, nil
}

func (s *GormStore) Host(ctx context.Context, id string) (*models.Host, error) {
	var h models.Host
	err := s.db.WithContext(ctx).First(&h, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrGameNotFound
	}
	if err != nil {
		return nil, err
	}
	return &h, nil
}

// AtomicUpdate loads the game under a row lock, applies fn, and writes back
// the game plus any ticket/prize rows fn changed, all in one transaction.
// Transient commit failures are retried with exponential backoff up to
// maxUpdateAttempts before surfacing ErrStorageConflict.
func (s *GormStore) AtomicUpdate(ctx context.Context, id string, fn MutateFn) (*models.Game, error) {
	backoff := initialBackoff
	var lastErr error

	for attempt := 1; attempt <= maxUpdateAttempts; attempt++ {
		snapshot, err := s.tryUpdate(ctx, id, fn)
		if err == nil {
			s.publish(snapshot)
			return snapshot, nil
		}
		if errors.Is(err, ErrGameNotFound) || errors.Is(err, ErrAborted) || IsValidation(err) {
			return nil, err
		}
		if !isTransient(err) {
			return nil, err
		}
		lastErr = err
		logger.Errorf("[store] atomic update on game %s failed (attempt %d/%d): %v", id, attempt, maxUpdateAttempts, err)

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(backoff):
		}
		backoff *= 2
	}
	logger.Errorf("[store] giving up on game %s after %d attempts: %v", id, maxUpdateAttempts, lastErr)
	return nil, ErrStorageConflict
}

func (s *GormStore) tryUpdate(ctx context.Context, id string, fn MutateFn) (*models.Game, error) {
	var snapshot *models.Game

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var g models.Game
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&g, "id = ?", id).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrGameNotFound
		}
		if err != nil {
			return err
		}
		if err := tx.Where("game_id = ?", id).Order("ticket_id").Find(&g.Tickets).Error; err != nil {
			return err
		}
		if err := tx.Where("game_id = ?", id).Order("eval_order").Find(&g.Prizes).Error; err != nil {
			return err
		}

		beforeTickets := append([]models.Ticket(nil), g.Tickets...)
		beforePrizes := append([]models.Prize(nil), g.Prizes...)

		if err := fn(&g); err != nil {
			return err
		}

		if err := tx.Omit(clause.Associations).Save(&g).Error; err != nil {
			return err
		}
		for i := range g.Prizes {
			if i >= len(beforePrizes) || !reflect.DeepEqual(g.Prizes[i], beforePrizes[i]) {
				if err := tx.Save(&g.Prizes[i]).Error; err != nil {
					return err
				}
			}
		}
		for i := range g.Tickets {
			if i >= len(beforeTickets) || !reflect.DeepEqual(g.Tickets[i], beforeTickets[i]) {
				if err := tx.Save(&g.Tickets[i]).Error; err != nil {
					return err
				}
			}
		}

		snapshot = &g
		return nil
	})
	if err != nil {
		return nil, err
	}
	return snapshot, nil
}

func (s *GormStore) SetCurrentNumber(ctx context.Context, id string, n *int) error {
	res := s.db.WithContext(ctx).Model(&models.Game{}).Where("id = ?", id).
		Update("current_number", n)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrGameNotFound
	}
	s.notifySnapshot(ctx, id)
	return nil
}

func (s *GormStore) SetCountdown(ctx context.Context, id string, seconds int) error {
	res := s.db.WithContext(ctx).Model(&models.Game{}).Where("id = ?", id).
		Update("countdown_time", seconds)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrGameNotFound
	}
	s.notifySnapshot(ctx, id)
	return nil
}

func (s *GormStore) notifySnapshot(ctx context.Context, id string) {
	g, err := s.Game(ctx, id)
	if err != nil {
		logger.Debugf("[store] snapshot for notify failed on game %s: %v", id, err)
		return
	}
	s.publish(g)
}

// isTransient matches Postgres failures worth retrying: serialization
// aborts, deadlocks, and dropped connections.
func isTransient(err error) bool {
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "deadlock") ||
		strings.Contains(msg, "could not serialize") ||
		strings.Contains(msg, "connection") ||
		strings.Contains(msg, "timeout")
}
