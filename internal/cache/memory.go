// Package cache holds enrichment results per domain for a fixed TTL.
package cache

import (
	"sync"
	"time"

	"github.com/jonesrussell/north-cloud/enrichment/internal/domain"
)

// DefaultTTL is how long an entry is served before it is refetched.
const DefaultTTL = 30 * time.Minute

// Entry is one cached artifact.
type Entry struct {
	Data     domain.EnrichedData
	CachedAt time.Time
}

// Store is a domain-keyed result store.
type Store interface {
	// Fresh returns the entry for key when it is younger than the TTL.
	Fresh(key string) (Entry, bool)
	// Set stores data under key, overwriting any previous entry.
	Set(key string, data domain.EnrichedData)
}

// MemoryStore is an in-process Store. Stale entries are ignored on read and
// replaced on the next Set; nothing is evicted. Contents are lost on
// restart.
type MemoryStore struct {
	mu      sync.RWMutex
	ttl     time.Duration
	now     func() time.Time
	entries map[string]Entry
}

// NewMemoryStore creates a MemoryStore. A nil now uses time.Now.
func NewMemoryStore(ttl time.Duration, now func() time.Time) *MemoryStore {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if now == nil {
		now = time.Now
	}
	return &MemoryStore{
		ttl:     ttl,
		now:     now,
		entries: make(map[string]Entry),
	}
}

// Fresh implements Store.
func (s *MemoryStore) Fresh(key string) (Entry, bool) {
	s.mu.RLock()
	e, ok := s.entries[key]
	s.mu.RUnlock()

	if !ok || s.now().Sub(e.CachedAt) >= s.ttl {
		return Entry{}, false
	}
	return e, true
}

// Set implements Store.
func (s *MemoryStore) Set(key string, data domain.EnrichedData) {
	e := Entry{Data: data, CachedAt: s.now()}

	s.mu.Lock()
	s.entries[key] = e
	s.mu.Unlock()
}

// Len returns the number of stored entries, stale ones included.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}
