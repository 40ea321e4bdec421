package game

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"gorm.io/datatypes"

	"github.com/anteneh-g/tambola-backend/models"
	"github.com/anteneh-g/tambola-backend/store"
	"github.com/anteneh-g/tambola-backend/utils/logger"
)

// ErrAuthExpired refuses mutating actions for an inactive or expired host.
var ErrAuthExpired = errors.New("host subscription inactive or expired")

// HostChecker is the auth/subscription collaborator. Verify is consulted at
// the moment of an action, never cached.
type HostChecker interface {
	Verify(ctx context.Context, hostID string) error
}

// Config carries the progression timings. Defaults mirror a comfortable
// live-call pace; tests shrink them.
type Config struct {
	CountdownSeconds int
	CallInterval     time.Duration
	DisplayWindow    time.Duration
	ActionTimeout    time.Duration
}

func DefaultConfig() Config {
	return Config{
		CountdownSeconds: 10,
		CallInterval:     5 * time.Second,
		DisplayWindow:    3 * time.Second,
		ActionTimeout:    10 * time.Second,
	}
}

// Controller drives one game through its phases. Any number of controllers
// may believe they drive the same game (duplicate tabs, reconnects):
// correctness never depends on there being exactly one driver, because every
// tick re-validates the stored status inside the atomic update that appends
// its number. A stale tick commits nothing.
type Controller struct {
	gameID  string
	st      store.Store
	checker HostChecker
	sink    Sink
	cfg     Config

	seq int64

	mu     sync.Mutex
	stop   chan struct{}
	onGone func()
}

func NewController(gameID string, st store.Store, checker HostChecker, sink Sink, cfg Config) *Controller {
	if sink == nil {
		sink = NopSink{}
	}
	if cfg.CallInterval <= 0 {
		cfg = DefaultConfig()
	}
	return &Controller{gameID: gameID, st: st, checker: checker, sink: sink, cfg: cfg}
}

func (c *Controller) GameID() string { return c.gameID }

// OnGameGone registers a callback run when a loop finds the stored game has
// disappeared, so the owner can drop its reference to this controller.
func (c *Controller) OnGameGone(fn func()) {
	c.mu.Lock()
	c.onGone = fn
	c.mu.Unlock()
}

// gameGone tears down the loop and tells the owner the game no longer exists.
func (c *Controller) gameGone() {
	c.Stop()
	c.mu.Lock()
	fn := c.onGone
	c.mu.Unlock()
	if fn != nil {
		fn()
	}
}

func (c *Controller) emit(ev Event) {
	ev.Seq = atomic.AddInt64(&c.seq, 1)
	ev.GameID = c.gameID
	ev.At = time.Now()
	c.sink.Emit(ev)
}

// beginLoop installs a fresh stop channel, cancelling any previous loop.
func (c *Controller) beginLoop() chan struct{} {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.stop != nil {
		close(c.stop)
	}
	c.stop = make(chan struct{})
	return c.stop
}

// Stop cancels the local timer immediately. A tick already in flight becomes
// a no-op through status re-validation, not through this cancellation.
func (c *Controller) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.stop != nil {
		close(c.stop)
		c.stop = nil
	}
}

func (c *Controller) actionCtx() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), c.cfg.ActionTimeout)
}

// Start moves a setup game into countdown, fixing the session's shuffled
// pool, and begins driving the countdown locally.
func (c *Controller) Start(ctx context.Context, hostID string) error {
	if err := c.checker.Verify(ctx, hostID); err != nil {
		return err
	}
	_, err := c.st.AtomicUpdate(ctx, c.gameID, func(g *models.Game) error {
		if g.Status != models.StatusSetup {
			return store.Validationf("game is %s, can only start from setup", g.Status)
		}
		if len(g.Prizes) == 0 {
			return store.Validationf("game has no prizes configured")
		}
		g.Status = models.StatusCountdown
		g.CountdownTime = c.cfg.CountdownSeconds
		g.SessionNumbers = ShufflePool()
		return nil
	})
	if err != nil {
		return err
	}
	go c.runCountdown(c.beginLoop(), c.cfg.CountdownSeconds)
	return nil
}

// Pause records the pause, then cancels the local loop. The loop is only
// stopped after the commit: a rejected pause must leave the running loop
// untouched, and a tick racing the commit aborts on the status check inside
// its own atomic update.
func (c *Controller) Pause(ctx context.Context) error {
	_, err := c.st.AtomicUpdate(ctx, c.gameID, func(g *models.Game) error {
		if g.Status != models.StatusActive {
			return store.Validationf("game is %s, only an active game can pause", g.Status)
		}
		g.Status = models.StatusPaused
		return nil
	})
	if err != nil {
		return err
	}
	c.Stop()
	return nil
}

// Resume restarts the call loop from the current calledNumbers length. No
// catch-up logic: state is derived, not replayed.
func (c *Controller) Resume(ctx context.Context, hostID string) error {
	if err := c.checker.Verify(ctx, hostID); err != nil {
		return err
	}
	_, err := c.st.AtomicUpdate(ctx, c.gameID, func(g *models.Game) error {
		if g.Status != models.StatusPaused {
			return store.Validationf("game is %s, only a paused game can resume", g.Status)
		}
		g.Status = models.StatusActive
		return nil
	})
	if err != nil {
		return err
	}
	go c.runCallLoop(c.beginLoop())
	return nil
}

// End finishes the game early. Prize state freezes as committed.
func (c *Controller) End(ctx context.Context) error {
	_, err := c.st.AtomicUpdate(ctx, c.gameID, func(g *models.Game) error {
		if g.Status == models.StatusFinished {
			return store.Validationf("game is already finished")
		}
		now := time.Now()
		g.Status = models.StatusFinished
		g.EndedAt = &now
		g.CurrentNumber = nil
		return nil
	})
	if err != nil {
		return err
	}
	c.Stop()
	c.emit(Event{Type: EventGameOver})
	return nil
}

// Reset wipes call history and prize outcomes for a fresh run on the same
// bookings. Destructive, so the host must pass confirm explicitly.
func (c *Controller) Reset(ctx context.Context, confirm bool) error {
	if !confirm {
		return store.Validationf("reset requires confirmation")
	}
	_, err := c.st.AtomicUpdate(ctx, c.gameID, func(g *models.Game) error {
		if g.Status != models.StatusFinished {
			return store.Validationf("game is %s, only a finished game can reset", g.Status)
		}
		g.Status = models.StatusSetup
		g.CalledNumbers = nil
		g.SessionNumbers = nil
		g.CurrentNumber = nil
		g.CountdownTime = 0
		g.StartedAt = nil
		g.EndedAt = nil
		for i := range g.Prizes {
			p := &g.Prizes[i]
			p.Won = false
			p.WinningNumber = nil
			p.WonAt = nil
			p.Winners = datatypes.NewJSONType[[]models.Winner](nil)
		}
		return nil
	})
	if err != nil {
		return err
	}
	c.Stop()
	return nil
}

// Drive re-attaches loops to a game this controller did not start: called on
// host reconnect so an active or counting-down game keeps running without
// re-creating any state.
func (c *Controller) Drive(ctx context.Context) error {
	g, err := c.st.Game(ctx, c.gameID)
	if err != nil {
		return err
	}
	switch g.Status {
	case models.StatusCountdown:
		go c.runCountdown(c.beginLoop(), g.CountdownTime)
	case models.StatusActive:
		go c.runCallLoop(c.beginLoop())
	}
	return nil
}

// runCountdown decrements once per second, persisting each tick. The
// decrement is display-only; the countdown->active flip is the one atomic
// transition.
func (c *Controller) runCountdown(stop chan struct{}, from int) {
	remaining := from
	if remaining <= 0 {
		remaining = c.cfg.CountdownSeconds
	}
	t := time.NewTicker(time.Second)
	defer t.Stop()

	for remaining > 0 {
		select {
		case <-stop:
			return
		case <-t.C:
			remaining--
			ctx, cancel := c.actionCtx()
			if err := c.st.SetCountdown(ctx, c.gameID, remaining); err != nil {
				cancel()
				if errors.Is(err, store.ErrGameNotFound) {
					c.gameGone()
					return
				}
				logger.Errorf("[game %s] countdown persist failed: %v", c.gameID, err)
				continue
			}
			cancel()
		}
	}

	ctx, cancel := c.actionCtx()
	defer cancel()
	_, err := c.st.AtomicUpdate(ctx, c.gameID, func(g *models.Game) error {
		if g.Status != models.StatusCountdown {
			return store.ErrAborted
		}
		now := time.Now()
		g.Status = models.StatusActive
		g.StartedAt = &now
		g.CountdownTime = 0
		return nil
	})
	if err != nil && !errors.Is(err, store.ErrAborted) {
		logger.Errorf("[game %s] countdown->active failed: %v", c.gameID, err)
		return
	}
	c.runCallLoop(stop)
}

// runCallLoop schedules one tick per interval. A tick fully settles before
// the next is scheduled; ticks are never pipelined for the same game.
func (c *Controller) runCallLoop(stop chan struct{}) {
	for {
		select {
		case <-stop:
			return
		case <-time.After(c.cfg.CallInterval):
		}

		done, err := c.tick()
		if err != nil {
			if errors.Is(err, store.ErrGameNotFound) {
				logger.Infof("[game %s] gone, tearing down call loop", c.gameID)
				c.gameGone()
				return
			}
			// One failed tick (conflict, timeout) never crash-loops; the
			// next tick runs at normal delay.
			logger.Errorf("[game %s] tick failed: %v", c.gameID, err)
			continue
		}
		if done {
			c.Stop()
			return
		}
	}
}

type tickOutcome struct {
	number   int
	wins     []Win
	finished bool
}

// tick draws the next number, appends it, evaluates prizes and records new
// winners — all inside one atomic update, so the number and its prize
// outcomes commit together or not at all. The update re-validates both the
// active status (pause race) and each prize's unwon flag (double-award race)
// against the stored state.
func (c *Controller) tick() (done bool, err error) {
	ctx, cancel := c.actionCtx()
	defer cancel()

	var out tickOutcome
	snap, err := c.st.AtomicUpdate(ctx, c.gameID, func(g *models.Game) error {
		out = tickOutcome{}
		if g.Status != models.StatusActive {
			return store.ErrAborted
		}

		n, ok := NextNumber(g)
		if !ok {
			now := time.Now()
			g.Status = models.StatusFinished
			g.EndedAt = &now
			g.CurrentNumber = nil
			out.finished = true
			return nil
		}

		g.CalledNumbers = append(g.CalledNumbers, n)
		g.CurrentNumber = &n
		out.number = n

		now := time.Now()
		for _, w := range Evaluate(g) {
			p := g.PrizeByID(w.PrizeID)
			if p == nil || p.Won {
				continue
			}
			p.Won = true
			p.WinningNumber = &n
			p.WonAt = &now
			p.Winners = datatypes.NewJSONType(w.Winners)
			out.wins = append(out.wins, w)
		}

		if g.PoolExhausted() {
			g.Status = models.StatusFinished
			g.EndedAt = &now
			out.finished = true
		}
		return nil
	})
	if errors.Is(err, store.ErrAborted) {
		return true, nil
	}
	if err != nil {
		return false, err
	}

	if out.number != 0 {
		c.emit(Event{Type: EventNumberCalled, Number: out.number})
		go c.clearAfterDisplay(out.number)
	}
	for _, w := range out.wins {
		c.emit(Event{Type: EventPrizeWon, PrizeID: w.PrizeID, Number: out.number, Winners: w.Winners})
	}
	if out.finished {
		c.emit(Event{Type: EventGameOver})
		logger.Infof("[game %s] finished after %d calls", c.gameID, len(snap.CalledNumbers))
		return true, nil
	}
	return false, nil
}

// clearAfterDisplay blanks currentNumber once the announcement window has
// passed. Display-only, so last-writer-wins is fine; it just avoids wiping a
// newer number.
func (c *Controller) clearAfterDisplay(n int) {
	time.Sleep(c.cfg.DisplayWindow)
	ctx, cancel := c.actionCtx()
	defer cancel()

	g, err := c.st.Game(ctx, c.gameID)
	if err != nil || g.CurrentNumber == nil || *g.CurrentNumber != n {
		return
	}
	if err := c.st.SetCurrentNumber(ctx, c.gameID, nil); err != nil && !errors.Is(err, store.ErrGameNotFound) {
		logger.Debugf("[game %s] clearing current number failed: %v", c.gameID, err)
	}
}
