package cooldown

import (
	"context"
	"fmt"
	"time"

	"github.com/desertthunder/jukebox/internal/shared"
)

// DefaultWindow is the spacing between two queue adds by the same visitor.
const DefaultWindow = 600 * time.Second

// Store records the last successful queue add per visitor.
type Store interface {
	// LastAdd returns the time of the visitor's last add, or the zero time when there is none.
	LastAdd(ctx context.Context, userID string) (time.Time, error)
	// Record sets the visitor's last add time.
	Record(ctx context.Context, userID string, at time.Time) error
}

// Wait returns how long a visitor whose last add was at last must still wait at now.
//
// Elapsed time counts in whole seconds, so with a 600s window an add at T leaves 1s at T+599.9 and nothing
// at T+600. A zero last means the visitor never added anything.
func Wait(now, last time.Time, window time.Duration) time.Duration {
	if last.IsZero() || window <= 0 {
		return 0
	}

	elapsed := now.Sub(last).Truncate(time.Second)
	if elapsed < 0 {
		// Clock moved backwards; the visitor waits at most one window.
		return window.Truncate(time.Second)
	}

	wait := window - elapsed
	if wait < 0 {
		return 0
	}
	return wait
}

// ActiveError is returned by [Tracker.Do] while a visitor is still cooling down.
type ActiveError struct {
	UserID    string
	Remaining time.Duration
}

func (e *ActiveError) Error() string {
	return fmt.Sprintf("%v: %s must wait %d seconds", shared.ErrCooldownActive, e.UserID, int(e.Remaining.Seconds()))
}

func (e *ActiveError) Unwrap() error {
	return shared.ErrCooldownActive
}

// Tracker enforces the per-visitor cooldown over a [Store].
type Tracker struct {
	store  Store
	window time.Duration
	now    func() time.Time
}

// TrackerOpts configures a [Tracker].
type TrackerOpts struct {
	Store  Store
	Window time.Duration    // zero disables the cooldown
	Clock  func() time.Time // defaults to time.Now
}

// NewTracker creates a [Tracker]. A nil store gets a fresh [MemoryStore].
func NewTracker(opts TrackerOpts) *Tracker {
	if opts.Store == nil {
		opts.Store = NewMemoryStore()
	}
	if opts.Clock == nil {
		opts.Clock = time.Now
	}
	return &Tracker{store: opts.Store, window: opts.Window, now: opts.Clock}
}

// Window returns the configured window.
func (t *Tracker) Window() time.Duration {
	return t.window
}

// Remaining returns the visitor's wait at the current time.
func (t *Tracker) Remaining(ctx context.Context, userID string) (time.Duration, error) {
	last, err := t.store.LastAdd(ctx, userID)
	if err != nil {
		return 0, fmt.Errorf("failed to read last add for %s: %w", userID, err)
	}
	return Wait(t.now(), last, t.window), nil
}

// Do runs fn unless the visitor is cooling down, in which case it returns an [*ActiveError] without calling fn.
// The add time is recorded once, and only when fn succeeds.
func (t *Tracker) Do(ctx context.Context, userID string, fn func(ctx context.Context) error) error {
	if userID == "" {
		return fmt.Errorf("%w: missing user id", shared.ErrInvalidInput)
	}

	remaining, err := t.Remaining(ctx, userID)
	if err != nil {
		return err
	}
	if remaining > 0 {
		return &ActiveError{UserID: userID, Remaining: remaining}
	}

	if err := fn(ctx); err != nil {
		return err
	}

	if err := t.store.Record(ctx, userID, t.now()); err != nil {
		return fmt.Errorf("failed to record add for %s: %w", userID, err)
	}
	return nil
}
