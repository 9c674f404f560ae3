// Package cache implements the in-process TTL cache backing the optimized
// analytics read paths. One instance is owned by the composition root for
// the process lifetime: created empty at start, populated lazily, emptied
// only by Clear or restart. Expiry is lazy, checked on read; there is no
// background eviction goroutine.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/learnforge/learnforge-hub/internal/domain/analytics"
	"github.com/learnforge/learnforge-hub/internal/domain/shared"
)

// entry is one cached value with its expiry bookkeeping.
type entry struct {
	data     []byte
	storedAt time.Time
	ttl      time.Duration
}

// expired reports whether the entry is past its TTL at now.
// A non-positive TTL never expires.
func (e entry) expired(now time.Time) bool {
	if e.ttl <= 0 {
		return false
	}
	return now.Sub(e.storedAt) >= e.ttl
}

// Memory is a clock-injected in-process TTL cache. Values are stored as
// JSON so Get/Set have the same contract as the Redis backend and cached
// values cannot alias caller memory.
type Memory struct {
	mu      sync.RWMutex
	entries map[string]entry
	clock   shared.Clock
}

// NewMemory creates an empty Memory cache using the given clock.
// A nil clock defaults to the system clock.
func NewMemory(clock shared.Clock) *Memory {
	if clock == nil {
		clock = shared.SystemClock{}
	}
	return &Memory{
		entries: make(map[string]entry),
		clock:   clock,
	}
}

// Get implements analytics.Cache. An expired entry is evicted and treated
// as a miss.
func (m *Memory) Get(_ context.Context, key string, dest interface{}) error {
	now := m.clock.Now()

	m.mu.RLock()
	e, ok := m.entries[key]
	m.mu.RUnlock()

	if !ok {
		return analytics.ErrCacheMiss
	}
	if e.expired(now) {
		m.mu.Lock()
		// Re-check under the write lock: a concurrent Set may have
		// refreshed the entry.
		if cur, ok := m.entries[key]; ok && cur.expired(now) {
			delete(m.entries, key)
		}
		m.mu.Unlock()
		return analytics.ErrCacheMiss
	}

	if err := json.Unmarshal(e.data, dest); err != nil {
		return fmt.Errorf("cache: deserialize %q: %w", key, err)
	}
	return nil
}

// Set implements analytics.Cache.
func (m *Memory) Set(_ context.Context, key string, value interface{}, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("cache: serialize %q: %w", key, err)
	}

	m.mu.Lock()
	m.entries[key] = entry{
		data:     data,
		storedAt: m.clock.Now(),
		ttl:      ttl,
	}
	m.mu.Unlock()
	return nil
}

// Delete implements analytics.Cache.
func (m *Memory) Delete(_ context.Context, keys ...string) error {
	m.mu.Lock()
	for _, key := range keys {
		delete(m.entries, key)
	}
	m.mu.Unlock()
	return nil
}

// Clear implements analytics.Cache: the administrative flush. Persisted
// snapshots are not touched.
func (m *Memory) Clear(_ context.Context) error {
	m.mu.Lock()
	m.entries = make(map[string]entry)
	m.mu.Unlock()
	return nil
}

// Len returns the number of entries currently held, including entries that
// have expired but not yet been read.
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries)
}
