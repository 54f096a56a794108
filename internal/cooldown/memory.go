package cooldown

import (
	"context"
	"sync"
	"time"
)

// MemoryStore keeps last add times in process memory. Entries are never evicted and are lost on restart.
type MemoryStore struct {
	mu   sync.RWMutex
	last map[string]time.Time
}

// NewMemoryStore creates an empty [MemoryStore].
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{last: make(map[string]time.Time)}
}

func (s *MemoryStore) LastAdd(ctx context.Context, userID string) (time.Time, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.last[userID], nil
}

func (s *MemoryStore) Record(ctx context.Context, userID string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.last[userID] = at
	return nil
}

// Len returns the number of visitors tracked.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.last)
}
