package repositories

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/desertthunder/jukebox/internal/models"
)

// QueueRequestRepository persists the history of successful queue adds.
type QueueRequestRepository struct {
	db *sql.DB
}

// NewQueueRequestRepository creates a new [QueueRequestRepository] with the given database connection
func NewQueueRequestRepository(db *sql.DB) *QueueRequestRepository {
	return &QueueRequestRepository{db: db}
}

// Create inserts a queue request. A request without an ID gets a generated one.
func (r *QueueRequestRepository) Create(ctx context.Context, req *models.QueueRequest) error {
	if req == nil {
		return fmt.Errorf("validation failed: nil request")
	}

	if req.ID == "" {
		fresh, err := models.NewQueueRequest(req.UserID, req.TrackURI, req.TrackName, req.RequestedAt)
		if err != nil {
			return fmt.Errorf("validation failed: %w", err)
		}
		req.ID = fresh.ID
	}

	query := `
		INSERT INTO queue_requests (id, user_id, track_uri, track_name, requested_at) VALUES (?, ?, ?, ?, ?)
	`

	_, err := r.db.ExecContext(ctx, query, req.ID, req.UserID, req.TrackURI, req.TrackName, req.RequestedAt.Unix())
	if err != nil {
		return fmt.Errorf("failed to insert queue request: %w", err)
	}

	return nil
}

// List returns the most recent queue requests, newest first. A limit of zero or less returns all of them.
func (r *QueueRequestRepository) List(ctx context.Context, limit int) ([]*models.QueueRequest, error) {
	query := `
		SELECT id, user_id, track_uri, track_name, requested_at
		FROM queue_requests
		ORDER BY requested_at DESC, rowid DESC
	`

	var (
		rows *sql.Rows
		err  error
	)
	if limit > 0 {
		rows, err = r.db.QueryContext(ctx, query+" LIMIT ?", limit)
	} else {
		rows, err = r.db.QueryContext(ctx, query)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query queue requests: %w", err)
	}
	defer rows.Close()

	var requests []*models.QueueRequest
	for rows.Next() {
		var (
			req models.QueueRequest
			at  int64
		)
		if err := rows.Scan(&req.ID, &req.UserID, &req.TrackURI, &req.TrackName, &at); err != nil {
			return nil, fmt.Errorf("failed to scan queue request: %w", err)
		}
		req.RequestedAt = time.Unix(at, 0)
		requests = append(requests, &req)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating queue requests: %w", err)
	}

	return requests, nil
}
