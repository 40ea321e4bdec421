package game

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/anteneh-g/tambola-backend/models"
	"github.com/anteneh-g/tambola-backend/store"
)

type okChecker struct{}

func (okChecker) Verify(context.Context, string) error { return nil }

type deniedChecker struct{}

func (deniedChecker) Verify(context.Context, string) error { return ErrAuthExpired }

// recordSink captures emitted events for assertions.
type recordSink struct {
	mu     sync.Mutex
	events []Event
}

func (s *recordSink) Emit(ev Event) {
	s.mu.Lock()
	s.events = append(s.events, ev)
	s.mu.Unlock()
}

func (s *recordSink) byType(t EventType) []Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []Event
	for _, ev := range s.events {
		if ev.Type == t {
			out = append(out, ev)
		}
	}
	return out
}

func testCfg() Config {
	return Config{
		CountdownSeconds: 0,
		CallInterval:     2 * time.Millisecond,
		DisplayWindow:    5 * time.Millisecond,
		ActionTimeout:    2 * time.Second,
	}
}

func twoTickets() []models.Ticket {
	a := booked("A001", 1, 1, standardGrid(
		[5]int{1, 11, 21, 31, 41},
		[5]int{2, 12, 22, 32, 42},
		[5]int{3, 13, 23, 33, 43},
	))
	b := booked("A002", 1, 2, standardGrid(
		[5]int{46, 56, 66, 76, 86},
		[5]int{47, 57, 67, 77, 87},
		[5]int{48, 58, 68, 78, 88},
	))
	return []models.Ticket{a, b}
}

func seedGame(t *testing.T, st *store.MemStore, id string, status models.GameStatus, tickets []models.Ticket, prizes []models.Prize) {
	t.Helper()
	g := &models.Game{
		ID:         id,
		HostID:     "host-1",
		MaxTickets: len(tickets),
		Status:     status,
		Tickets:    tickets,
		Prizes:     prizes,
		CreatedAt:  time.Now(),
	}
	if status != models.StatusSetup {
		g.SessionNumbers = ShufflePool()
	}
	require.NoError(t, st.CreateGame(context.Background(), g))
}

func waitFor(t *testing.T, timeout time.Duration, cond func() bool, msg string) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(2 * time.Millisecond)
	}
	t.Fatalf("condition not met within %s: %s", timeout, msg)
}

func TestStartRunsCountdownIntoActive(t *testing.T) {
	st := store.NewMemStore()
	seedGame(t, st, "g1", models.StatusSetup, twoTickets(), []models.Prize{prize("q5", models.PatternQuickFive, 1)})

	cfg := testCfg()
	cfg.CountdownSeconds = 1
	c := NewController("g1", st, okChecker{}, nil, cfg)
	defer c.Stop()

	require.NoError(t, c.Start(context.Background(), "host-1"))

	g, err := st.Game(context.Background(), "g1")
	require.NoError(t, err)
	assert.Equal(t, models.StatusCountdown, g.Status)
	assert.Len(t, []int(g.SessionNumbers), models.MaxNumber)

	waitFor(t, 3*time.Second, func() bool {
		g, err := st.Game(context.Background(), "g1")
		return err == nil && g.Status == models.StatusActive
	}, "countdown should reach zero and activate the game")

	g, err = st.Game(context.Background(), "g1")
	require.NoError(t, err)
	assert.NotNil(t, g.StartedAt)
}

func TestStartRefusedForExpiredHost(t *testing.T) {
	st := store.NewMemStore()
	seedGame(t, st, "g1", models.StatusSetup, twoTickets(), []models.Prize{prize("q5", models.PatternQuickFive, 1)})

	c := NewController("g1", st, deniedChecker{}, nil, testCfg())
	err := c.Start(context.Background(), "host-1")
	require.ErrorIs(t, err, ErrAuthExpired)

	g, _ := st.Game(context.Background(), "g1")
	assert.Equal(t, models.StatusSetup, g.Status)
}

func TestStartRequiresPrizes(t *testing.T) {
	st := store.NewMemStore()
	seedGame(t, st, "g1", models.StatusSetup, twoTickets(), nil)

	c := NewController("g1", st, okChecker{}, nil, testCfg())
	err := c.Start(context.Background(), "host-1")
	require.Error(t, err)
	assert.True(t, store.IsValidation(err))
}

func TestGameRunsToCompletion(t *testing.T) {
	st := store.NewMemStore()
	sink := &recordSink{}
	seedGame(t, st, "g1", models.StatusSetup, twoTickets(), []models.Prize{
		prize("q5", models.PatternQuickFive, 1),
		prize("fh", models.PatternFullHouse, 2),
	})

	c := NewController("g1", st, okChecker{}, sink, testCfg())
	defer c.Stop()
	require.NoError(t, c.Start(context.Background(), "host-1"))

	waitFor(t, 10*time.Second, func() bool {
		g, err := st.Game(context.Background(), "g1")
		return err == nil && g.Status == models.StatusFinished
	}, "game should finish once the pool is exhausted")

	g, err := st.Game(context.Background(), "g1")
	require.NoError(t, err)

	// Coverage: every number called exactly once.
	require.Len(t, []int(g.CalledNumbers), models.MaxNumber)
	seen := make(map[int]bool)
	for _, n := range g.CalledNumbers {
		assert.False(t, seen[n], "number %d called twice", n)
		seen[n] = true
	}
	assert.NotNil(t, g.EndedAt)

	// Both prizes awarded, winners recorded, winning number was called.
	for _, p := range g.Prizes {
		assert.True(t, p.Won, "prize %s should be won by pool exhaustion", p.Name)
		assert.NotEmpty(t, p.Winners.Data())
		require.NotNil(t, p.WinningNumber)
		assert.True(t, g.Called(*p.WinningNumber))
	}

	// Current number clears after the display window.
	waitFor(t, time.Second, func() bool {
		g, err := st.Game(context.Background(), "g1")
		return err == nil && g.CurrentNumber == nil
	}, "current number should clear after the display window")

	// Events: 90 calls, one win per prize, one game over, increasing seq.
	calls := sink.byType(EventNumberCalled)
	assert.Len(t, calls, models.MaxNumber)
	assert.Len(t, sink.byType(EventPrizeWon), 2)
	assert.Len(t, sink.byType(EventGameOver), 1)

	sink.mu.Lock()
	defer sink.mu.Unlock()
	for i := 1; i < len(sink.events); i++ {
		assert.Greater(t, sink.events[i].Seq, sink.events[i-1].Seq)
	}
}

func TestPauseStopsCallingAndResumeContinues(t *testing.T) {
	st := store.NewMemStore()
	seedGame(t, st, "g1", models.StatusActive, twoTickets(), []models.Prize{prize("fh", models.PatternFullHouse, 1)})

	cfg := testCfg()
	cfg.CallInterval = 5 * time.Millisecond
	c := NewController("g1", st, okChecker{}, nil, cfg)
	defer c.Stop()

	require.NoError(t, c.Drive(context.Background()))
	waitFor(t, 2*time.Second, func() bool {
		g, _ := st.Game(context.Background(), "g1")
		return len(g.CalledNumbers) >= 3
	}, "call loop should be drawing")

	require.NoError(t, c.Pause(context.Background()))
	g, _ := st.Game(context.Background(), "g1")
	assert.Equal(t, models.StatusPaused, g.Status)
	frozen := len(g.CalledNumbers)

	time.Sleep(20 * cfg.CallInterval)
	g, _ = st.Game(context.Background(), "g1")
	// An in-flight tick may have landed before the pause committed, never
	// more than one, and never a partial number+prize write.
	assert.LessOrEqual(t, len(g.CalledNumbers), frozen+1)

	require.NoError(t, c.Resume(context.Background(), "host-1"))
	waitFor(t, 2*time.Second, func() bool {
		g, _ := st.Game(context.Background(), "g1")
		return len(g.CalledNumbers) > frozen+1
	}, "resume should restart the call loop")
}

func TestStaleTickIsNoOpAfterPause(t *testing.T) {
	st := store.NewMemStore()
	seedGame(t, st, "g1", models.StatusPaused, twoTickets(), []models.Prize{prize("fh", models.PatternFullHouse, 1)})

	c := NewController("g1", st, okChecker{}, nil, testCfg())
	done, err := c.tick()
	require.NoError(t, err)
	assert.True(t, done, "a tick against a non-active game stops the loop")

	g, _ := st.Game(context.Background(), "g1")
	assert.Empty(t, []int(g.CalledNumbers))
	assert.Equal(t, models.StatusPaused, g.Status)
}

func TestAtMostOnceAwardWithDuplicateDrivers(t *testing.T) {
	st := store.NewMemStore()
	sink1 := &recordSink{}
	sink2 := &recordSink{}
	seedGame(t, st, "g1", models.StatusActive, twoTickets(), []models.Prize{
		prize("q5", models.PatternQuickFive, 1),
		prize("fh", models.PatternFullHouse, 2),
	})

	// Two controllers believe they drive the same game, as with duplicate
	// host tabs. Correctness must come from atomic re-validation alone.
	c1 := NewController("g1", st, okChecker{}, sink1, testCfg())
	c2 := NewController("g1", st, okChecker{}, sink2, testCfg())
	defer c1.Stop()
	defer c2.Stop()

	require.NoError(t, c1.Drive(context.Background()))
	require.NoError(t, c2.Drive(context.Background()))

	waitFor(t, 10*time.Second, func() bool {
		g, err := st.Game(context.Background(), "g1")
		return err == nil && g.Status == models.StatusFinished
	}, "game should finish under duplicate drivers")

	g, err := st.Game(context.Background(), "g1")
	require.NoError(t, err)

	require.Len(t, []int(g.CalledNumbers), models.MaxNumber)
	seen := make(map[int]bool)
	for _, n := range g.CalledNumbers {
		require.False(t, seen[n], "number %d called twice under duplicate drivers", n)
		seen[n] = true
	}

	for _, p := range g.Prizes {
		assert.True(t, p.Won)
		wonEvents := 0
		for _, ev := range append(sink1.byType(EventPrizeWon), sink2.byType(EventPrizeWon)...) {
			if ev.PrizeID == p.ID {
				wonEvents++
			}
		}
		assert.Equal(t, 1, wonEvents, "prize %s must be awarded exactly once across drivers", p.Name)
	}
}

func TestEndFinishesEarly(t *testing.T) {
	st := store.NewMemStore()
	sink := &recordSink{}
	seedGame(t, st, "g1", models.StatusActive, twoTickets(), []models.Prize{prize("fh", models.PatternFullHouse, 1)})

	c := NewController("g1", st, okChecker{}, sink, testCfg())
	require.NoError(t, c.End(context.Background()))

	g, _ := st.Game(context.Background(), "g1")
	assert.Equal(t, models.StatusFinished, g.Status)
	assert.NotNil(t, g.EndedAt)
	assert.Nil(t, g.CurrentNumber)
	assert.Len(t, sink.byType(EventGameOver), 1)

	err := c.End(context.Background())
	require.Error(t, err)
	assert.True(t, store.IsValidation(err), "ending a finished game is rejected")
}

func TestResetClearsRunButKeepsBookings(t *testing.T) {
	st := store.NewMemStore()
	tickets := twoTickets()
	won := prize("q5", models.PatternQuickFive, 1)
	seedGame(t, st, "g1", models.StatusActive, tickets, []models.Prize{won})

	c := NewController("g1", st, okChecker{}, nil, testCfg())
	require.NoError(t, c.Drive(context.Background()))
	waitFor(t, 2*time.Second, func() bool {
		g, _ := st.Game(context.Background(), "g1")
		return len(g.CalledNumbers) >= 10
	}, "game should accumulate calls")
	require.NoError(t, c.End(context.Background()))

	err := c.Reset(context.Background(), false)
	require.Error(t, err)
	assert.True(t, store.IsValidation(err), "reset without confirmation is rejected")

	require.NoError(t, c.Reset(context.Background(), true))

	g, err := st.Game(context.Background(), "g1")
	require.NoError(t, err)
	assert.Equal(t, models.StatusSetup, g.Status)
	assert.Empty(t, []int(g.CalledNumbers))
	assert.Nil(t, g.CurrentNumber)
	assert.Nil(t, g.StartedAt)
	assert.Nil(t, g.EndedAt)
	for _, p := range g.Prizes {
		assert.False(t, p.Won)
		assert.Nil(t, p.WinningNumber)
		assert.Nil(t, p.WonAt)
		assert.Empty(t, p.Winners.Data())
	}
	for _, tk := range g.Tickets {
		assert.True(t, tk.IsBooked, "reset must not un-book tickets")
	}

	err = c.Reset(context.Background(), true)
	require.Error(t, err)
	assert.True(t, store.IsValidation(err), "reset is only valid from finished")
}

func TestRejectedPauseLeavesCountdownRunning(t *testing.T) {
	st := store.NewMemStore()
	seedGame(t, st, "g1", models.StatusSetup, twoTickets(), []models.Prize{prize("q5", models.PatternQuickFive, 1)})

	cfg := testCfg()
	cfg.CountdownSeconds = 1
	c := NewController("g1", st, okChecker{}, nil, cfg)
	defer c.Stop()

	require.NoError(t, c.Start(context.Background(), "host-1"))

	// Pause is only valid from active; during countdown it must be rejected
	// without killing the countdown loop.
	err := c.Pause(context.Background())
	require.Error(t, err)
	assert.True(t, store.IsValidation(err))

	waitFor(t, 3*time.Second, func() bool {
		g, err := st.Game(context.Background(), "g1")
		return err == nil && g.Status == models.StatusActive
	}, "countdown should still activate the game after a rejected pause")
}

func TestRejectedResetLeavesActiveGameRunning(t *testing.T) {
	st := store.NewMemStore()
	seedGame(t, st, "g1", models.StatusActive, twoTickets(), []models.Prize{prize("fh", models.PatternFullHouse, 1)})

	cfg := testCfg()
	cfg.CallInterval = 5 * time.Millisecond
	c := NewController("g1", st, okChecker{}, nil, cfg)
	defer c.Stop()

	require.NoError(t, c.Drive(context.Background()))
	waitFor(t, 2*time.Second, func() bool {
		g, _ := st.Game(context.Background(), "g1")
		return len(g.CalledNumbers) >= 3
	}, "call loop should be drawing")

	// Reset is only valid from finished; a rejected reset must leave the
	// call loop running instead of freezing an active game.
	err := c.Reset(context.Background(), true)
	require.Error(t, err)
	assert.True(t, store.IsValidation(err))

	g, _ := st.Game(context.Background(), "g1")
	assert.Equal(t, models.StatusActive, g.Status)
	atRejection := len(g.CalledNumbers)

	waitFor(t, 2*time.Second, func() bool {
		g, _ := st.Game(context.Background(), "g1")
		return len(g.CalledNumbers) > atRejection
	}, "calling should continue after a rejected reset")
}

func TestCallLoopReportsVanishedGame(t *testing.T) {
	st := store.NewMemStore()
	seedGame(t, st, "g1", models.StatusActive, twoTickets(), []models.Prize{prize("fh", models.PatternFullHouse, 1)})

	c := NewController("g1", st, okChecker{}, nil, testCfg())
	defer c.Stop()

	gone := make(chan struct{})
	c.OnGameGone(func() { close(gone) })

	require.NoError(t, c.Drive(context.Background()))
	st.DeleteGame("g1")

	select {
	case <-gone:
	case <-time.After(2 * time.Second):
		t.Fatal("call loop should report the vanished game")
	}
}

func TestResumeRefusedForExpiredHost(t *testing.T) {
	st := store.NewMemStore()
	seedGame(t, st, "g1", models.StatusPaused, twoTickets(), []models.Prize{prize("fh", models.PatternFullHouse, 1)})

	c := NewController("g1", st, deniedChecker{}, nil, testCfg())
	err := c.Resume(context.Background(), "host-1")
	require.ErrorIs(t, err, ErrAuthExpired)

	g, _ := st.Game(context.Background(), "g1")
	assert.Equal(t, models.StatusPaused, g.Status)
}
