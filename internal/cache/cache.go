package cache

import (
	"sync"
	"time"
)

// Clock supplies the current time; tests substitute a fake.
type Clock func() time.Time

type entry struct {
	value   any
	expires time.Time
}

// Store is a process-local TTL cache. Expired entries are evicted lazily on
// read; there is no background sweeper.
type Store struct {
	mu      sync.RWMutex
	entries map[string]entry
	now     Clock
}

// New returns a Store using wall-clock time.
func New() *Store {
	return NewWithClock(time.Now)
}

// NewWithClock returns a Store using the supplied clock.
func NewWithClock(now Clock) *Store {
	if now == nil {
		now = time.Now
	}
	return &Store{entries: make(map[string]entry), now: now}
}

// Get returns the cached value for key if it exists and has not expired.
// An expired entry is removed on the spot.
func (s *Store) Get(key string) (any, bool) {
	s.mu.RLock()
	e, ok := s.entries[key]
	s.mu.RUnlock()
	if !ok {
		return nil, false
	}
	if s.now().After(e.expires) {
		s.mu.Lock()
		// Re-check under the write lock: a writer may have refreshed the key.
		if cur, ok := s.entries[key]; ok && s.now().After(cur.expires) {
			delete(s.entries, key)
		}
		s.mu.Unlock()
		return nil, false
	}
	return e.value, true
}

// Set stores value under key for ttl. A non-positive ttl stores nothing.
func (s *Store) Set(key string, value any, ttl time.Duration) {
	if ttl <= 0 {
		return
	}
	s.mu.Lock()
	s.entries[key] = entry{value: value, expires: s.now().Add(ttl)}
	s.mu.Unlock()
}

// Delete removes key if present.
func (s *Store) Delete(key string) {
	s.mu.Lock()
	delete(s.entries, key)
	s.mu.Unlock()
}

// Len reports the number of entries, expired ones included.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}
