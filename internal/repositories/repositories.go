// package repositories provides SQLite persistence for cooldowns and queue history.
package repositories

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/desertthunder/jukebox/internal/shared"
)

// Repositories bundles every repository over one database handle.
type Repositories struct {
	Cooldowns *CooldownRepository
	Requests  *QueueRequestRepository
}

// New creates all repositories for db.
func New(db *sql.DB) *Repositories {
	return &Repositories{
		Cooldowns: NewCooldownRepository(db),
		Requests:  NewQueueRequestRepository(db),
	}
}

// Open opens the database at path, applies pending migrations and returns the repositories with the handle.
func Open(ctx context.Context, cfg shared.DatabaseConfig) (*Repositories, *sql.DB, error) {
	db, err := shared.NewDatabase(ctx, cfg.Path)
	if err != nil {
		return nil, nil, err
	}
	shared.ConfigureDatabase(db, cfg.MaxOpenConns, cfg.MaxIdleConns)

	if err := shared.RunMigrations(ctx, db); err != nil {
		db.Close()
		return nil, nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	return New(db), db, nil
}
