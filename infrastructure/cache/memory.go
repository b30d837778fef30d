package cache

import (
	"context"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/ahrav/framerank/internal/ports"
)

// DefaultMemoryEntries bounds a MemoryStore created with a non-positive size.
const DefaultMemoryEntries = 1024

var _ ports.CacheStore = (*MemoryStore)(nil)

type memoryEntry struct {
	value   []byte
	expires time.Time
}

// MemoryStore is an in-process ports.CacheStore used when no Redis URL is
// configured. It holds at most size entries and evicts the least recently
// used one on overflow. Per-entry expirations are checked on read; the
// store-level ttl, when positive, caps every entry's lifetime.
type MemoryStore struct {
	lru *expirable.LRU[string, memoryEntry]
	now func() time.Time
}

// NewMemoryStore creates an empty store bounded to size entries.
func NewMemoryStore(size int, ttl time.Duration) *MemoryStore {
	if size <= 0 {
		size = DefaultMemoryEntries
	}
	return &MemoryStore{
		lru: expirable.NewLRU[string, memoryEntry](size, nil, ttl),
		now: time.Now,
	}
}

// Get returns a copy of the cached bytes.
func (m *MemoryStore) Get(_ context.Context, key string) ([]byte, bool, error) {
	e, ok := m.lru.Get(key)
	if !ok {
		return nil, false, nil
	}
	if !e.expires.IsZero() && !m.now().Before(e.expires) {
		m.lru.Remove(key)
		return nil, false, nil
	}
	return append([]byte(nil), e.value...), true, nil
}

// Set stores a copy of value.
func (m *MemoryStore) Set(_ context.Context, key string, value []byte, expiration time.Duration) error {
	e := memoryEntry{value: append([]byte(nil), value...)}
	if expiration > 0 {
		e.expires = m.now().Add(expiration)
	}
	m.lru.Add(key, e)
	return nil
}

// Delete removes key.
func (m *MemoryStore) Delete(_ context.Context, key string) error {
	m.lru.Remove(key)
	return nil
}

// Clear removes all entries.
func (m *MemoryStore) Clear(_ context.Context) error {
	m.lru.Purge()
	return nil
}

// Len reports the number of entries held, expired or not.
func (m *MemoryStore) Len() int { return m.lru.Len() }
