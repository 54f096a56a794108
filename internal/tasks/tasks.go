package tasks

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/jukebox/internal/shared"
)

// DefaultPruneInterval is how often [CooldownJanitor.Run] prunes when no interval is given.
const DefaultPruneInterval = time.Hour

// Pruner deletes cooldown records last written before a cutoff.
// Implemented by repositories.CooldownRepository.
type Pruner interface {
	Prune(ctx context.Context, before time.Time) (int64, error)
}

// CooldownJanitor periodically removes cooldown records that can no longer block anyone.
//
// A record older than one cooldown window yields a zero wait, so deleting it does not change any visitor's
// remaining time.
type CooldownJanitor struct {
	pruner   Pruner
	window   time.Duration
	interval time.Duration
	now      func() time.Time
	logger   *log.Logger
}

// JanitorOpts configures a [CooldownJanitor].
type JanitorOpts struct {
	Pruner   Pruner
	Window   time.Duration
	Interval time.Duration
	Clock    func() time.Time
	Logger   *log.Logger
}

// NewCooldownJanitor creates a janitor. Pruner and a positive Window are required.
func NewCooldownJanitor(opts JanitorOpts) (*CooldownJanitor, error) {
	if opts.Pruner == nil {
		return nil, fmt.Errorf("%w: pruner", shared.ErrMissingArgument)
	}
	if opts.Window <= 0 {
		return nil, fmt.Errorf("%w: window must be positive, got %v", shared.ErrInvalidArgument, opts.Window)
	}
	if opts.Interval <= 0 {
		opts.Interval = DefaultPruneInterval
	}
	if opts.Clock == nil {
		opts.Clock = time.Now
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}

	return &CooldownJanitor{
		pruner:   opts.Pruner,
		window:   opts.Window,
		interval: opts.Interval,
		now:      opts.Clock,
		logger:   shared.WithLogger(opts.Logger, "task", "cooldown_janitor"),
	}, nil
}

// sendProgress sends a progress update through the channel without blocking.
func (j *CooldownJanitor) sendProgress(progress chan<- ProgressUpdate, update ProgressUpdate) {
	if progress == nil {
		return
	}
	select {
	case progress <- update:
	default:
	}
}

// PruneOnce deletes records older than one window and returns how many were removed.
func (j *CooldownJanitor) PruneOnce(ctx context.Context) (int64, time.Time, error) {
	cutoff := j.now().Add(-j.window)
	removed, err := j.pruner.Prune(ctx, cutoff)
	if err != nil {
		return 0, cutoff, fmt.Errorf("failed to prune cooldowns: %w", err)
	}
	return removed, cutoff, nil
}

// Run prunes immediately and then once per interval until ctx is cancelled. Failed runs are logged and reported
// but do not stop the loop. Returns nil once ctx is done.
func (j *CooldownJanitor) Run(ctx context.Context, progress chan<- ProgressUpdate) error {
	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	runs := 0
	for {
		runs++
		removed, cutoff, err := j.PruneOnce(ctx)
		if err != nil {
			if ctx.Err() != nil {
				break
			}
			j.logger.Warn("prune failed", "error", err)
			j.sendProgress(progress, pruneFailedUpdate(runs, err))
		} else {
			j.logger.Debug("pruned cooldowns", "removed", removed, "cutoff", cutoff)
			j.sendProgress(progress, prunedUpdate(runs, removed, cutoff))
		}

		select {
		case <-ctx.Done():
			j.sendProgress(progress, stoppedUpdate(runs))
			return nil
		case <-ticker.C:
		}
	}

	j.sendProgress(progress, stoppedUpdate(runs))
	return nil
}
