package cache

import (
	"context"
	"sync"
	"time"

	"github.com/golang/groupcache/lru"

	"mercator-hq/stormwatch/pkg/policy/engine"
)

type memoryEntry struct {
	data    []byte
	expires time.Time
}

// Memory is a size-bounded LRU cache. Entries are stored encoded so every
// Get returns an independent copy.
type Memory struct {
	mu  sync.Mutex
	lru *lru.Cache
	ttl time.Duration
	now func() time.Time
}

// NewMemory creates an LRU holding at most size entries. A zero ttl keeps
// entries until evicted.
func NewMemory(size int, ttl time.Duration) *Memory {
	return &Memory{
		lru: lru.New(size),
		ttl: ttl,
		now: time.Now,
	}
}

func (m *Memory) Get(ctx context.Context, key string) (*engine.Response, bool, error) {
	m.mu.Lock()
	v, ok := m.lru.Get(key)
	if !ok {
		m.mu.Unlock()
		return nil, false, nil
	}
	entry := v.(memoryEntry)
	if !entry.expires.IsZero() && !m.now().Before(entry.expires) {
		m.lru.Remove(key)
		m.mu.Unlock()
		return nil, false, nil
	}
	m.mu.Unlock()

	resp, err := decode(entry.data)
	if err != nil {
		return nil, false, err
	}
	return resp, true, nil
}

func (m *Memory) Set(ctx context.Context, key string, resp *engine.Response) error {
	data, err := encode(resp)
	if err != nil {
		return err
	}

	entry := memoryEntry{data: data}
	if m.ttl > 0 {
		entry.expires = m.now().Add(m.ttl)
	}

	m.mu.Lock()
	m.lru.Add(key, entry)
	m.mu.Unlock()
	return nil
}

// Len returns the number of cached entries, expired ones included.
func (m *Memory) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lru.Len()
}

func (m *Memory) Name() string { return "memory" }

func (m *Memory) Close() error {
	m.mu.Lock()
	m.lru.Clear()
	m.mu.Unlock()
	return nil
}
