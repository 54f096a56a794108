package main

import (
	"context"
	"errors"
	"fmt"
	"net"

	"github.com/desertthunder/jukebox/internal/cooldown"
	"github.com/desertthunder/jukebox/internal/repositories"
	"github.com/desertthunder/jukebox/internal/server"
	"github.com/desertthunder/jukebox/internal/shared"
	"github.com/desertthunder/jukebox/internal/tasks"
	"github.com/urfave/cli/v3"
)

// backends holds the stores selected by config and closes them together.
type backends struct {
	cooldown cooldown.Store
	repos    *repositories.Repositories
	closers  []func() error
}

// Close releases every resource in reverse order of opening.
func (b *backends) Close() error {
	var errs []error
	for i := len(b.closers) - 1; i >= 0; i-- {
		errs = append(errs, b.closers[i]())
	}
	return errors.Join(errs...)
}

// openBackends opens the SQLite database, which always carries the queue history, and the cooldown store named by
// cooldown.backend.
func (r *Runner) openBackends(ctx context.Context, config *shared.Config) (*backends, error) {
	repos, db, err := repositories.Open(ctx, config.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	b := &backends{repos: repos, closers: []func() error{db.Close}}

	switch config.Cooldown.Backend {
	case shared.BackendSQLite:
		b.cooldown = repos.Cooldowns
	case shared.BackendRedis:
		client, err := cooldown.NewRedisClient(ctx, config.Redis)
		if err != nil {
			b.Close()
			return nil, err
		}
		b.closers = append(b.closers, client.Close)
		b.cooldown = cooldown.NewRedisStore(client, config.Cooldown.Window())
	case shared.BackendMemory, "":
		b.cooldown = cooldown.NewMemoryStore()
	default:
		b.Close()
		return nil, fmt.Errorf("%w: unknown cooldown backend %q", shared.ErrInvalidConfig, config.Cooldown.Backend)
	}

	r.logger.Debug("opened backends", "database", config.Database.Path, "cooldown", config.Cooldown.Backend)
	return b, nil
}

// Serve runs the web front-end until the context is cancelled (SIGINT/SIGTERM from main).
func (r *Runner) Serve(ctx context.Context, cmd *cli.Command) error {
	config, err := r.loadConfig(cmd)
	if err != nil {
		return err
	}
	if err := config.Validate(); err != nil {
		return err
	}

	provider, err := r.spotify(config)
	if err != nil {
		return err
	}

	b, err := r.openBackends(ctx, config)
	if err != nil {
		return err
	}
	defer func() {
		if err := b.Close(); err != nil {
			r.logger.Warn("failed to close backends", "error", err)
		}
	}()

	manager, store := r.manager(config, provider)
	switch _, err := manager.Resume(ctx); {
	case err == nil:
		r.logger.Info("resuming stored credential", "path", store.Path())
	case errors.Is(err, shared.ErrNotAuthenticated):
		r.logger.Info("no stored credential, the host must visit /login")
	}

	tracker := cooldown.NewTracker(cooldown.TrackerOpts{
		Store:  b.cooldown,
		Window: config.Cooldown.Window(),
		Clock:  r.now,
	})

	sessions, err := server.NewSessionStoreFromConfig(config.Server)
	if err != nil {
		return err
	}

	app, err := server.NewApp(server.AppOpts{
		Provider:      provider,
		Manager:       manager,
		Tracker:       tracker,
		Sessions:      sessions,
		History:       b.repos.Requests,
		Logger:        r.logger,
		SearchLimit:   config.Search.Limit,
		SecureCookies: config.Server.SecureCookies,
		Clock:         r.now,
	})
	if err != nil {
		return err
	}

	if config.Cooldown.Backend == shared.BackendSQLite && tracker.Window() > 0 {
		janitor, err := tasks.NewCooldownJanitor(tasks.JanitorOpts{
			Pruner: b.repos.Cooldowns,
			Window: tracker.Window(),
			Clock:  r.now,
			Logger: r.logger,
		})
		if err != nil {
			return err
		}

		janitorCtx, cancel := context.WithCancel(ctx)
		done := make(chan struct{})
		go func() {
			defer close(done)
			janitor.Run(janitorCtx, nil)
		}()
		defer func() {
			cancel()
			<-done
		}()
	}

	addr := cmd.String("addr")
	if addr == "" {
		addr = config.Server.Addr()
	}

	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", addr, err)
	}

	r.logger.Info("jukebox ready",
		"addr", ln.Addr().String(),
		"cooldown", tracker.Window(),
		"backend", config.Cooldown.Backend,
		"provider", provider.Name(),
	)

	if cmd.Bool("open") {
		url := "http://" + ln.Addr().String() + "/login"
		if err := shared.OpenBrowser(url); err != nil {
			r.logger.Warn("failed to open browser", "url", url, "error", err)
		}
	}

	return server.Serve(ctx, ln, app.Router(), r.logger)
}
