package main

import (
	"context"
	"fmt"

	"github.com/desertthunder/jukebox/internal/shared"
	"github.com/urfave/cli/v3"
)

// SetupConfig writes the embedded example configuration to --config.
func (r *Runner) SetupConfig(ctx context.Context, cmd *cli.Command) error {
	configPath := cmd.String("config")

	if err := shared.CreateConfigFile(configPath); err != nil {
		return err
	}
	r.logger.Info("config file created", "path", configPath)

	r.writePlain("%s\n", r.palette.OK("Config written to "+configPath))
	r.writePlainln("Next steps:")
	r.writePlain("%s\n", r.palette.Help("1. Set credentials.spotify.client_id and client_secret (or JUKEBOX_SPOTIFY_CLIENT_ID/SECRET)"))
	r.writePlain("%s\n", r.palette.Help("2. Replace server.session_secret with at least 32 random bytes"))
	r.writePlain("%s\n", r.palette.Help("3. Set server.encryption_key to 16, 24 or 32 random bytes"))
	r.writePlain("%s\n", r.palette.Help("4. Run 'jukebox serve --open' and log in with the host account"))
	return nil
}

// SetupDatabase initializes the database and runs migrations, or rolls back the latest one.
func (r *Runner) SetupDatabase(ctx context.Context, cmd *cli.Command) error {
	config, err := r.loadConfig(cmd)
	if err != nil {
		return err
	}

	r.logger.Info("initializing database", "path", config.Database.Path)

	db, err := shared.NewDatabase(ctx, config.Database.Path)
	if err != nil {
		return fmt.Errorf("failed to create database: %w", err)
	}
	defer db.Close()

	shared.ConfigureDatabase(db, config.Database.MaxOpenConns, config.Database.MaxIdleConns)

	if cmd.Bool("rollback") {
		r.logger.Info("rolling back latest migration")
		if err := shared.RollbackMigration(ctx, db); err != nil {
			return fmt.Errorf("failed to roll back migration: %w", err)
		}
		return r.writePlain("%s\n", r.palette.OK("Rolled back latest migration"))
	}

	r.logger.Info("running database migrations")
	if err := shared.RunMigrations(ctx, db); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	r.logger.Infof("setup complete for database: %v", config.Database.Path)
	return r.writePlain("%s\n", r.palette.OK("Database ready at "+config.Database.Path))
}
