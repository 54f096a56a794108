package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// CooldownRepository stores each visitor's last add time, in Unix milliseconds, in the cooldowns table.
// It implements cooldown.Store.
type CooldownRepository struct {
	db *sql.DB
}

// NewCooldownRepository creates a new [CooldownRepository] with the given database connection
func NewCooldownRepository(db *sql.DB) *CooldownRepository {
	return &CooldownRepository{db: db}
}

// LastAdd returns the visitor's last add time, or the zero time when the visitor never added anything.
func (r *CooldownRepository) LastAdd(ctx context.Context, userID string) (time.Time, error) {
	var at int64
	err := r.db.QueryRowContext(ctx, `SELECT last_add_at FROM cooldowns WHERE user_id = ?`, userID).Scan(&at)
	if errors.Is(err, sql.ErrNoRows) {
		return time.Time{}, nil
	}
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to query cooldown: %w", err)
	}
	return time.UnixMilli(at), nil
}

// Record upserts the visitor's last add time.
func (r *CooldownRepository) Record(ctx context.Context, userID string, at time.Time) error {
	query := `
		INSERT INTO cooldowns (user_id, last_add_at) VALUES (?, ?)
		ON CONFLICT(user_id) DO UPDATE SET last_add_at = excluded.last_add_at
	`

	if _, err := r.db.ExecContext(ctx, query, userID, at.UnixMilli()); err != nil {
		return fmt.Errorf("failed to record cooldown: %w", err)
	}
	return nil
}

// Prune deletes entries older than before and returns how many were removed.
// Entries older than one window can no longer block anyone.
func (r *CooldownRepository) Prune(ctx context.Context, before time.Time) (int64, error) {
	result, err := r.db.ExecContext(ctx, `DELETE FROM cooldowns WHERE last_add_at < ?`, before.UnixMilli())
	if err != nil {
		return 0, fmt.Errorf("failed to prune cooldowns: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get affected rows: %w", err)
	}
	return rows, nil
}
