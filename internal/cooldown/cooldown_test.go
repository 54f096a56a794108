package cooldown

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/desertthunder/jukebox/internal/shared"
	"github.com/redis/go-redis/v9"
)

func TestWait(t *testing.T) {
	last := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	window := 600 * time.Second

	tt := []struct {
		name string
		now  time.Time
		want time.Duration
	}{
		{"immediately after", last, 600 * time.Second},
		{"halfway", last.Add(300 * time.Second), 300 * time.Second},
		{"one second left", last.Add(599 * time.Second), time.Second},
		{"fraction before the end", last.Add(599*time.Second + 900*time.Millisecond), time.Second},
		{"exactly at the end", last.Add(600 * time.Second), 0},
		{"long after", last.Add(24 * time.Hour), 0},
		{"clock moved backwards", last.Add(-time.Minute), 600 * time.Second},
	}

	for _, tc := range tt {
		t.Run(tc.name, func(t *testing.T) {
			if got := Wait(tc.now, last, window); got != tc.want {
				t.Errorf("Wait() = %v, want %v", got, tc.want)
			}
		})
	}

	t.Run("never added", func(t *testing.T) {
		if got := Wait(last, time.Time{}, window); got != 0 {
			t.Errorf("expected no wait, got %v", got)
		}
	})

	t.Run("disabled window", func(t *testing.T) {
		if got := Wait(last, last, 0); got != 0 {
			t.Errorf("expected no wait, got %v", got)
		}
	})

	t.Run("short window", func(t *testing.T) {
		if got := Wait(last.Add(59*time.Second), last, time.Minute); got != time.Second {
			t.Errorf("expected 1s, got %v", got)
		}
	})
}

type clock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

func TestTracker(t *testing.T) {
	ctx := context.Background()
	start := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)

	newTracker := func() (*Tracker, *MemoryStore, *clock) {
		store := NewMemoryStore()
		c := &clock{t: start}
		return NewTracker(TrackerOpts{Store: store, Window: 600 * time.Second, Clock: c.Now}), store, c
	}

	t.Run("first add runs and is recorded", func(t *testing.T) {
		tracker, store, _ := newTracker()

		calls := 0
		err := tracker.Do(ctx, "visitor", func(ctx context.Context) error {
			calls++
			return nil
		})
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if calls != 1 {
			t.Errorf("expected fn to run once, got %d", calls)
		}

		last, _ := store.LastAdd(ctx, "visitor")
		if !last.Equal(start) {
			t.Errorf("expected last add %v, got %v", start, last)
		}
	})

	t.Run("blocked add does not call fn or record", func(t *testing.T) {
		tracker, store, c := newTracker()
		store.Record(ctx, "visitor", start)
		c.Advance(599 * time.Second)

		calls := 0
		err := tracker.Do(ctx, "visitor", func(ctx context.Context) error {
			calls++
			return nil
		})

		if !errors.Is(err, shared.ErrCooldownActive) {
			t.Fatalf("expected ErrCooldownActive, got %v", err)
		}
		var active *ActiveError
		if !errors.As(err, &active) {
			t.Fatalf("expected *ActiveError, got %T", err)
		}
		if active.Remaining != time.Second {
			t.Errorf("expected 1s remaining, got %v", active.Remaining)
		}
		if calls != 0 {
			t.Errorf("expected fn not to run, got %d calls", calls)
		}

		last, _ := store.LastAdd(ctx, "visitor")
		if !last.Equal(start) {
			t.Errorf("last add should be unchanged, got %v", last)
		}
	})

	t.Run("add allowed once the window has passed", func(t *testing.T) {
		tracker, store, c := newTracker()
		store.Record(ctx, "visitor", start)
		c.Advance(600 * time.Second)

		if err := tracker.Do(ctx, "visitor", func(ctx context.Context) error { return nil }); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		last, _ := store.LastAdd(ctx, "visitor")
		if !last.Equal(start.Add(600 * time.Second)) {
			t.Errorf("expected last add at call time, got %v", last)
		}
	})

	t.Run("failed call is not recorded", func(t *testing.T) {
		tracker, store, _ := newTracker()
		boom := errors.New("downstream rejected")

		err := tracker.Do(ctx, "visitor", func(ctx context.Context) error { return boom })
		if !errors.Is(err, boom) {
			t.Fatalf("expected downstream error, got %v", err)
		}
		if store.Len() != 0 {
			t.Error("failed call should not be recorded")
		}

		remaining, _ := tracker.Remaining(ctx, "visitor")
		if remaining != 0 {
			t.Errorf("expected no wait after failure, got %v", remaining)
		}
	})

	t.Run("visitors are independent", func(t *testing.T) {
		tracker, _, _ := newTracker()
		noop := func(ctx context.Context) error { return nil }

		if err := tracker.Do(ctx, "alice", noop); err != nil {
			t.Fatalf("alice: %v", err)
		}
		if err := tracker.Do(ctx, "bob", noop); err != nil {
			t.Errorf("bob should not be blocked by alice: %v", err)
		}
		if err := tracker.Do(ctx, "alice", noop); !errors.Is(err, shared.ErrCooldownActive) {
			t.Errorf("alice should be blocked, got %v", err)
		}
	})

	t.Run("missing user id", func(t *testing.T) {
		tracker, _, _ := newTracker()
		if err := tracker.Do(ctx, "", func(ctx context.Context) error { return nil }); !errors.Is(err, shared.ErrInvalidInput) {
			t.Errorf("expected ErrInvalidInput, got %v", err)
		}
	})

	t.Run("defaults", func(t *testing.T) {
		tracker := NewTracker(TrackerOpts{Window: DefaultWindow})
		if tracker.Window() != DefaultWindow {
			t.Errorf("expected default window, got %v", tracker.Window())
		}
		remaining, err := tracker.Remaining(ctx, "anyone")
		if err != nil || remaining != 0 {
			t.Errorf("expected no wait for unknown visitor, got %v, %v", remaining, err)
		}
	})
}

func TestMemoryStoreConcurrent(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	at := time.Unix(1700000000, 0)

	var wg sync.WaitGroup
	for i := range 50 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			id := string(rune('a' + i%26))
			store.Record(ctx, id, at)
			store.LastAdd(ctx, id)
		}()
	}
	wg.Wait()

	if store.Len() != 26 {
		t.Errorf("expected 26 visitors, got %d", store.Len())
	}
}

func TestRedisStore(t *testing.T) {
	ctx := context.Background()
	mr := miniredis.RunT(t)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	store := NewRedisStore(client, 600*time.Second)
	at := time.Unix(1740823200, 0)

	t.Run("unknown visitor", func(t *testing.T) {
		last, err := store.LastAdd(ctx, "nobody")
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if !last.IsZero() {
			t.Errorf("expected zero time, got %v", last)
		}
	})

	t.Run("record and read back", func(t *testing.T) {
		if err := store.Record(ctx, "visitor", at); err != nil {
			t.Fatalf("failed to record: %v", err)
		}

		last, err := store.LastAdd(ctx, "visitor")
		if err != nil {
			t.Fatalf("failed to read: %v", err)
		}
		if !last.Equal(at) {
			t.Errorf("expected %v, got %v", at, last)
		}

		if ttl := mr.TTL("jukebox:cooldown:visitor"); ttl != 600*time.Second {
			t.Errorf("expected ttl of one window, got %v", ttl)
		}
	})

	t.Run("entry expires after the window", func(t *testing.T) {
		if err := store.Record(ctx, "expiring", at); err != nil {
			t.Fatalf("failed to record: %v", err)
		}
		mr.FastForward(601 * time.Second)

		last, err := store.LastAdd(ctx, "expiring")
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if !last.IsZero() {
			t.Errorf("expected entry to be gone, got %v", last)
		}
	})

	t.Run("malformed value", func(t *testing.T) {
		mr.Set("jukebox:cooldown:broken", "yesterday")
		if _, err := store.LastAdd(ctx, "broken"); err == nil {
			t.Error("expected error for malformed value")
		}
	})

	t.Run("drives a tracker", func(t *testing.T) {
		c := &clock{t: at}
		tracker := NewTracker(TrackerOpts{Store: store, Window: 600 * time.Second, Clock: c.Now})
		noop := func(ctx context.Context) error { return nil }

		if err := tracker.Do(ctx, "shared", noop); err != nil {
			t.Fatalf("first add: %v", err)
		}
		c.Advance(10 * time.Second)

		remaining, err := tracker.Remaining(ctx, "shared")
		if err != nil {
			t.Fatalf("remaining: %v", err)
		}
		if remaining != 590*time.Second {
			t.Errorf("expected 590s, got %v", remaining)
		}
	})
}

func TestNewRedisClient(t *testing.T) {
	ctx := context.Background()

	t.Run("reachable", func(t *testing.T) {
		mr := miniredis.RunT(t)
		client, err := NewRedisClient(ctx, shared.RedisConfig{Addr: mr.Addr()})
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		client.Close()
	})

	t.Run("unreachable", func(t *testing.T) {
		mr := miniredis.RunT(t)
		addr := mr.Addr()
		mr.Close()

		if _, err := NewRedisClient(ctx, shared.RedisConfig{Addr: addr}); !errors.Is(err, shared.ErrServiceUnavailable) {
			t.Errorf("expected ErrServiceUnavailable, got %v", err)
		}
	})
}
