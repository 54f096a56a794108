package repositories

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/desertthunder/jukebox/internal/cooldown"
	"github.com/desertthunder/jukebox/internal/models"
	"github.com/desertthunder/jukebox/internal/shared"
	"github.com/redis/go-redis/v9"
)

var _ cooldown.Store = (*CooldownRepository)(nil)

// setupTestDB creates an in-memory SQLite database with migrations applied
func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	ctx := context.Background()
	db, err := shared.NewDatabase(ctx, ":memory:")
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}
	shared.ConfigureDatabase(db, 1, 1)

	if err := shared.RunMigrations(ctx, db); err != nil {
		db.Close()
		t.Fatalf("failed to run migrations: %v", err)
	}

	return db
}

// TestCooldownStoresKeepSubSecondTimes checks that every backend reports the same wait when the last add
// happened partway through a second.
func TestCooldownStoresKeepSubSecondTimes(t *testing.T) {
	ctx := context.Background()
	window := 600 * time.Second
	last := time.Unix(1740823200, 0).Add(900 * time.Millisecond)

	stores := []struct {
		name string
		open func(t *testing.T) cooldown.Store
	}{
		{"memory", func(t *testing.T) cooldown.Store { return cooldown.NewMemoryStore() }},
		{"sqlite", func(t *testing.T) cooldown.Store {
			db := setupTestDB(t)
			t.Cleanup(func() { db.Close() })
			return NewCooldownRepository(db)
		}},
		{"redis", func(t *testing.T) cooldown.Store {
			client := redis.NewClient(&redis.Options{Addr: miniredis.RunT(t).Addr()})
			t.Cleanup(func() { client.Close() })
			return cooldown.NewRedisStore(client, window)
		}},
	}

	tt := []struct {
		name  string
		after time.Duration
		want  time.Duration
	}{
		{"just short of the window", 599200 * time.Millisecond, time.Second},
		{"exactly one window", window, 0},
	}

	for _, st := range stores {
		t.Run(st.name, func(t *testing.T) {
			store := st.open(t)
			if err := store.Record(ctx, "visitor", last); err != nil {
				t.Fatalf("failed to record: %v", err)
			}

			got, err := store.LastAdd(ctx, "visitor")
			if err != nil {
				t.Fatalf("failed to read: %v", err)
			}
			if !got.Equal(last) {
				t.Errorf("expected %v, got %v", last, got)
			}

			for _, tc := range tt {
				t.Run(tc.name, func(t *testing.T) {
					now := last.Add(tc.after)
					tracker := cooldown.NewTracker(cooldown.TrackerOpts{
						Store:  store,
						Window: window,
						Clock:  func() time.Time { return now },
					})

					remaining, err := tracker.Remaining(ctx, "visitor")
					if err != nil {
						t.Fatalf("remaining: %v", err)
					}
					if remaining != tc.want {
						t.Errorf("expected %v, got %v", tc.want, remaining)
					}
				})
			}
		})
	}
}

func TestCooldownRepository(t *testing.T) {
	ctx := context.Background()
	at := time.Unix(1740823200, 0)

	t.Run("unknown visitor", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewCooldownRepository(db)
		last, err := repo.LastAdd(ctx, "nobody")
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if !last.IsZero() {
			t.Errorf("expected zero time, got %v", last)
		}
	})

	t.Run("Record", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewCooldownRepository(db)
		if err := repo.Record(ctx, "visitor", at); err != nil {
			t.Fatalf("failed to record: %v", err)
		}

		last, err := repo.LastAdd(ctx, "visitor")
		if err != nil {
			t.Fatalf("failed to read: %v", err)
		}
		if !last.Equal(at) {
			t.Errorf("expected %v, got %v", at, last)
		}
	})

	t.Run("Record overwrites", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewCooldownRepository(db)
		later := at.Add(10 * time.Minute)
		if err := repo.Record(ctx, "visitor", at); err != nil {
			t.Fatalf("failed to record: %v", err)
		}
		if err := repo.Record(ctx, "visitor", later); err != nil {
			t.Fatalf("failed to record again: %v", err)
		}

		last, _ := repo.LastAdd(ctx, "visitor")
		if !last.Equal(later) {
			t.Errorf("expected %v, got %v", later, last)
		}

		var count int
		db.QueryRow("SELECT COUNT(*) FROM cooldowns").Scan(&count)
		if count != 1 {
			t.Errorf("expected a single row, got %d", count)
		}
	})

	t.Run("Prune", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewCooldownRepository(db)
		repo.Record(ctx, "old", at)
		repo.Record(ctx, "recent", at.Add(time.Hour))

		removed, err := repo.Prune(ctx, at.Add(30*time.Minute))
		if err != nil {
			t.Fatalf("failed to prune: %v", err)
		}
		if removed != 1 {
			t.Errorf("expected 1 pruned, got %d", removed)
		}

		if last, _ := repo.LastAdd(ctx, "recent"); last.IsZero() {
			t.Error("recent entry should survive pruning")
		}
	})

	t.Run("drives a tracker", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		now := at
		tracker := cooldown.NewTracker(cooldown.TrackerOpts{
			Store:  NewCooldownRepository(db),
			Window: 600 * time.Second,
			Clock:  func() time.Time { return now },
		})

		calls := 0
		add := func(ctx context.Context) error { calls++; return nil }

		if err := tracker.Do(ctx, "visitor", add); err != nil {
			t.Fatalf("first add: %v", err)
		}
		now = at.Add(599 * time.Second)
		if err := tracker.Do(ctx, "visitor", add); err == nil {
			t.Error("expected cooldown at T+599")
		}
		now = at.Add(600 * time.Second)
		if err := tracker.Do(ctx, "visitor", add); err != nil {
			t.Errorf("expected add at T+600, got %v", err)
		}
		if calls != 2 {
			t.Errorf("expected 2 downstream calls, got %d", calls)
		}
	})

	t.Run("closed database", func(t *testing.T) {
		db := setupTestDB(t)
		db.Close()

		repo := NewCooldownRepository(db)
		if _, err := repo.LastAdd(ctx, "visitor"); err == nil {
			t.Error("expected error on closed database")
		}
		if err := repo.Record(ctx, "visitor", at); err == nil {
			t.Error("expected error on closed database")
		}
	})
}

func TestQueueRequestRepository(t *testing.T) {
	ctx := context.Background()
	base := time.Unix(1740823200, 0)

	t.Run("Create", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewQueueRequestRepository(db)
		req, _ := models.NewQueueRequest("visitor", "spotify:track:1", "Song", base)

		if err := repo.Create(ctx, req); err != nil {
			t.Fatalf("failed to create: %v", err)
		}

		list, err := repo.List(ctx, 10)
		if err != nil {
			t.Fatalf("failed to list: %v", err)
		}
		if len(list) != 1 {
			t.Fatalf("expected 1 request, got %d", len(list))
		}

		got := list[0]
		if got.ID != req.ID || got.UserID != "visitor" || got.TrackURI != "spotify:track:1" || got.TrackName != "Song" {
			t.Errorf("unexpected request %+v", got)
		}
		if !got.RequestedAt.Equal(base) {
			t.Errorf("expected %v, got %v", base, got.RequestedAt)
		}
	})

	t.Run("Create generates missing id", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewQueueRequestRepository(db)
		req := &models.QueueRequest{UserID: "visitor", TrackURI: "spotify:track:1", RequestedAt: base}
		if err := repo.Create(ctx, req); err != nil {
			t.Fatalf("failed to create: %v", err)
		}
		if req.ID == "" {
			t.Error("expected generated id")
		}
	})

	t.Run("Create validation", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewQueueRequestRepository(db)
		if err := repo.Create(ctx, nil); err == nil {
			t.Error("expected error for nil request")
		}
		if err := repo.Create(ctx, &models.QueueRequest{UserID: "visitor"}); err == nil {
			t.Error("expected error for request without uri")
		}
	})

	t.Run("Create duplicate id", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewQueueRequestRepository(db)
		req, _ := models.NewQueueRequest("visitor", "spotify:track:1", "Song", base)
		if err := repo.Create(ctx, req); err != nil {
			t.Fatalf("failed to create: %v", err)
		}
		if err := repo.Create(ctx, req); err == nil {
			t.Error("expected error for duplicate id")
		}
	})

	t.Run("List newest first with limit", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewQueueRequestRepository(db)
		for i, uri := range []string{"spotify:track:a", "spotify:track:b", "spotify:track:c"} {
			req, _ := models.NewQueueRequest("visitor", uri, "", base.Add(time.Duration(i)*time.Minute))
			if err := repo.Create(ctx, req); err != nil {
				t.Fatalf("failed to create %s: %v", uri, err)
			}
		}

		list, err := repo.List(ctx, 2)
		if err != nil {
			t.Fatalf("failed to list: %v", err)
		}
		if len(list) != 2 {
			t.Fatalf("expected 2 requests, got %d", len(list))
		}
		if list[0].TrackURI != "spotify:track:c" || list[1].TrackURI != "spotify:track:b" {
			t.Errorf("unexpected order: %s, %s", list[0].TrackURI, list[1].TrackURI)
		}

		all, err := repo.List(ctx, 0)
		if err != nil {
			t.Fatalf("failed to list all: %v", err)
		}
		if len(all) != 3 {
			t.Errorf("expected 3 requests, got %d", len(all))
		}
	})

	t.Run("List empty", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		list, err := NewQueueRequestRepository(db).List(ctx, 5)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if len(list) != 0 {
			t.Errorf("expected no requests, got %d", len(list))
		}
	})
}

func TestOpen(t *testing.T) {
	ctx := context.Background()

	path := filepath.Join(t.TempDir(), "data", "jukebox.db")
	repos, db, err := Open(ctx, shared.DatabaseConfig{Path: path, MaxOpenConns: 1, MaxIdleConns: 1})
	if err != nil {
		t.Fatalf("failed to open: %v", err)
	}
	defer db.Close()

	if err := repos.Cooldowns.Record(ctx, "visitor", time.Unix(1, 0)); err != nil {
		t.Fatalf("cooldowns table should exist: %v", err)
	}
	if _, err := repos.Requests.List(ctx, 1); err != nil {
		t.Fatalf("queue_requests table should exist: %v", err)
	}
}
