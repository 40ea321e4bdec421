package store

import (
	"context"
	"encoding/json"
	"sort"
	"sync"

	"github.com/anteneh-g/tambola-backend/models"
)

// MemStore is an in-process Store with the same per-game serialization
// contract as GormStore: one mutex per game record, mutate functions run
// against the latest stored value, readers get deep-copied snapshots.
type MemStore struct {
	mu    sync.RWMutex
	games map[string]*memGame
	hosts map[string]models.Host

	nmu       sync.RWMutex
	notifiers []func(*models.Game)
}

type memGame struct {
	mu sync.Mutex
	g  models.Game
}

func NewMemStore() *MemStore {
	return &MemStore{
		games: make(map[string]*memGame),
		hosts: make(map[string]models.Host),
	}
}

func (s *MemStore) Notify(fn func(*models.Game)) {
	s.nmu.Lock()
	s.notifiers = append(s.notifiers, fn)
	s.nmu.Unlock()
}

func (s *MemStore) publish(g *models.Game) {
	s.nmu.RLock()
	fns := make([]func(*models.Game), len(s.notifiers))
	copy(fns, s.notifiers)
	s.nmu.RUnlock()
	for _, fn := range fns {
		fn(g)
	}
}

// PutHost seeds a host record; MemStore doubles as the test fixture store.
func (s *MemStore) PutHost(h models.Host) {
	s.mu.Lock()
	s.hosts[h.ID] = h
	s.mu.Unlock()
}

// DeleteGame drops a game record, simulating out-of-band deletion.
func (s *MemStore) DeleteGame(id string) {
	s.mu.Lock()
	delete(s.games, id)
	s.mu.Unlock()
}

func (s *MemStore) CreateGame(ctx context.Context, g *models.Game) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.games[g.ID]; ok {
		return Validationf("game %s already exists", g.ID)
	}
	s.games[g.ID] = &memGame{g: *cloneGame(g)}
	s.publish(cloneGame(g))
	return nil
}

func (s *MemStore) get(id string) (*memGame, error) {
	s.mu.RLock()
	mg, ok := s.games[id]
	s.mu.RUnlock()
	if !ok {
		return nil, ErrGameNotFound
	}
	return mg, nil
}

func (s *MemStore) Game(ctx context.Context, id string) (*models.Game, error) {
	mg, err := s.get(id)
	if err != nil {
		return nil, err
	}
	mg.mu.Lock()
	defer mg.mu.Unlock()
	return cloneGame(&mg.g), nil
}

func (s *MemStore) GamesByHost(ctx context.Context, hostID string, limit int) ([]models.Game, error) {
	s.mu.RLock()
	ids := make([]string, 0, len(s.games))
	for id := range s.games {
		ids = append(ids, id)
	}
	s.mu.RUnlock()

	var out []models.Game
	for _, id := range ids {
		mg, err := s.get(id)
		if err != nil {
			continue
		}
		mg.mu.Lock()
		if mg.g.HostID == hostID {
			out = append(out, *cloneGame(&mg.g))
		}
		mg.mu.Unlock()
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *MemStore) Host(ctx context.Context, id string) (*models.Host, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	h, ok := s.hosts[id]
	if !ok {
		return nil, ErrGameNotFound
	}
	return &h, nil
}

func (s *MemStore) AtomicUpdate(ctx context.Context, id string, fn MutateFn) (*models.Game, error) {
	mg, err := s.get(id)
	if err != nil {
		return nil, err
	}
	mg.mu.Lock()
	work := cloneGame(&mg.g)
	if err := fn(work); err != nil {
		mg.mu.Unlock()
		return nil, err
	}
	mg.g = *cloneGame(work)
	mg.mu.Unlock()

	snapshot := cloneGame(work)
	s.publish(snapshot)
	return snapshot, nil
}

func (s *MemStore) SetCurrentNumber(ctx context.Context, id string, n *int) error {
	mg, err := s.get(id)
	if err != nil {
		return err
	}
	mg.mu.Lock()
	if n == nil {
		mg.g.CurrentNumber = nil
	} else {
		v := *n
		mg.g.CurrentNumber = &v
	}
	snapshot := cloneGame(&mg.g)
	mg.mu.Unlock()
	s.publish(snapshot)
	return nil
}

func (s *MemStore) SetCountdown(ctx context.Context, id string, seconds int) error {
	mg, err := s.get(id)
	if err != nil {
		return err
	}
	mg.mu.Lock()
	mg.g.CountdownTime = seconds
	snapshot := cloneGame(&mg.g)
	mg.mu.Unlock()
	s.publish(snapshot)
	return nil
}

// cloneGame deep-copies through JSON; every field is JSON-serializable.
func cloneGame(g *models.Game) *models.Game {
	b, err := json.Marshal(g)
	if err != nil {
		panic(err)
	}
	var out models.Game
	if err := json.Unmarshal(b, &out); err != nil {
		panic(err)
	}
	// SessionNumbers is json:"-" in API payloads but must survive cloning.
	out.SessionNumbers = append([]int(nil), g.SessionNumbers...)
	return &out
}
