package throttle

import (
	"context"
	"sync"
	"time"
)

// MemoryStore is an in-process Store used in tests and redis-less dev runs.
// Lockouts do not survive a restart.
type MemoryStore struct {
	mu       sync.Mutex
	attempts map[string]int
	blocked  map[string]time.Time
}

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		attempts: make(map[string]int),
		blocked:  make(map[string]time.Time),
	}
}

func (s *MemoryStore) Incr(_ context.Context, key string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.attempts[key]++
	return s.attempts[key], nil
}

func (s *MemoryStore) Block(_ context.Context, key string, until time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.blocked[key] = until
	return nil
}

func (s *MemoryStore) BlockedUntil(_ context.Context, key string) (time.Time, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	until, ok := s.blocked[key]
	if !ok || time.Now().After(until) {
		return time.Time{}, false, nil
	}
	return until, true, nil
}

func (s *MemoryStore) Clear(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.attempts, key)
	delete(s.blocked, key)
	return nil
}
