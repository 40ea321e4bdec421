package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/anteneh-g/tambola-backend/models"
)

var (
	// ErrGameNotFound means the referenced game no longer exists; local
	// timers for it must be torn down by the caller.
	ErrGameNotFound = errors.New("game not found")

	// ErrStorageConflict means an atomic update could not commit within the
	// retry bound. The caller must not assume partial success.
	ErrStorageConflict = errors.New("storage conflict")

	// ErrAborted is returned by a mutate function to commit nothing. It is
	// passed through to the caller unchanged and never retried; the call
	// loop uses it to turn a stale in-flight tick into a no-op.
	ErrAborted = errors.New("update aborted")
)

// ValidationError rejects host-supplied configuration before persistence.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string { return e.Msg }

// Validationf builds a ValidationError.
func Validationf(format string, args ...interface{}) error {
	return &ValidationError{Msg: fmt.Sprintf(format, args...)}
}

// IsValidation reports whether err is a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// MutateFn is applied to the current stored game inside an atomic update.
// Any non-nil return rolls the update back.
type MutateFn func(g *models.Game) error

// Store is the durable, versioned record of games. AtomicUpdate is the only
// primitive through which calledNumbers is appended and prize state flipped:
// both need check-then-act correctness, so the mutate function always runs
// against the latest stored value, serialized per game.
type Store interface {
	CreateGame(ctx context.Context, g *models.Game) error
	// Game returns a snapshot including tickets and prizes.
	Game(ctx context.Context, id string) (*models.Game, error)
	// GamesByHost returns the host's games, most recently created first.
	GamesByHost(ctx context.Context, hostID string, limit int) ([]models.Game, error)
	Host(ctx context.Context, id string) (*models.Host, error)

	// AtomicUpdate applies fn to the current game record and persists the
	// mutated game together with its prizes and tickets as one indivisible
	// operation relative to other AtomicUpdate calls on the same game.
	// Transient conflicts are retried with backoff before surfacing
	// ErrStorageConflict. On success the committed snapshot is returned.
	AtomicUpdate(ctx context.Context, id string, fn MutateFn) (*models.Game, error)

	// SetCurrentNumber and SetCountdown are last-writer-wins updates for
	// display-only fields that carry no correctness invariant.
	SetCurrentNumber(ctx context.Context, id string, n *int) error
	SetCountdown(ctx context.Context, id string, seconds int) error

	// Notify registers a callback invoked with a fresh snapshot after every
	// successful write. Callbacks may fire spuriously and must be idempotent
	// from the receiver's perspective.
	Notify(fn func(*models.Game))
}
