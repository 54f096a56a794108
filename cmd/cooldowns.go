package main

import (
	"context"
	"fmt"
	"time"

	"github.com/desertthunder/jukebox/internal/cooldown"
	"github.com/desertthunder/jukebox/internal/shared"
	"github.com/desertthunder/jukebox/internal/tasks"
	"github.com/urfave/cli/v3"
)

// CooldownCheck prints the wait for one visitor against the configured backend.
func (r *Runner) CooldownCheck(ctx context.Context, cmd *cli.Command) error {
	userID := cmd.StringArg("user_id")
	if userID == "" {
		return fmt.Errorf("%w: user_id", shared.ErrMissingArgument)
	}

	config, err := r.loadConfig(cmd)
	if err != nil {
		return err
	}
	if config.Cooldown.Backend == shared.BackendMemory {
		return fmt.Errorf("%w: the memory backend lives inside the server process", shared.ErrInvalidArgument)
	}

	b, err := r.openBackends(ctx, config)
	if err != nil {
		return err
	}
	defer b.Close()

	tracker := cooldown.NewTracker(cooldown.TrackerOpts{
		Store:  b.cooldown,
		Window: config.Cooldown.Window(),
		Clock:  r.now,
	})

	remaining, err := tracker.Remaining(ctx, userID)
	if err != nil {
		return err
	}
	if remaining <= 0 {
		return r.writePlain("%s\n", r.palette.OK(userID+" can add a song now"))
	}
	r.writePlain("%s\n", r.palette.Warn(fmt.Sprintf("%s must wait %s", userID, remaining)))
	return r.writePlain("%s\n", r.palette.Help("next add allowed at "+r.now().Add(remaining).UTC().Format(time.RFC3339)))
}

// CooldownPrune removes SQLite cooldown rows older than one window.
func (r *Runner) CooldownPrune(ctx context.Context, cmd *cli.Command) error {
	config, err := r.loadConfig(cmd)
	if err != nil {
		return err
	}
	if config.Cooldown.Backend != shared.BackendSQLite {
		return fmt.Errorf("%w: prune only applies to the sqlite backend, configured %q",
			shared.ErrInvalidArgument, config.Cooldown.Backend)
	}

	b, err := r.openBackends(ctx, config)
	if err != nil {
		return err
	}
	defer b.Close()

	janitor, err := tasks.NewCooldownJanitor(tasks.JanitorOpts{
		Pruner: b.repos.Cooldowns,
		Window: config.Cooldown.Window(),
		Clock:  r.now,
		Logger: r.logger,
	})
	if err != nil {
		return err
	}

	removed, cutoff, err := janitor.PruneOnce(ctx)
	if err != nil {
		return err
	}
	return r.writePlain("%s\n", r.palette.OK(fmt.Sprintf("Removed %d records last written before %s",
		removed, cutoff.UTC().Format("2006-01-02 15:04:05"))))
}
