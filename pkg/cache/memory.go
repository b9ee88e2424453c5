package cache

import (
	"context"
	"encoding/json"
	"sync"
	"time"
)

type memoryEntry struct {
	data      []byte
	expiresAt time.Time
}

func (e memoryEntry) expired(now time.Time) bool {
	return !e.expiresAt.IsZero() && now.After(e.expiresAt)
}

// MemoryCache is a bounded process-local cache. When full it evicts the
// entry closest to expiry.
type MemoryCache struct {
	mu       sync.RWMutex
	entries  map[string]memoryEntry
	maxItems int
	stop     chan struct{}
	once     sync.Once
}

type MemoryOption func(*MemoryCache)

func WithMaxItems(n int) MemoryOption {
	return func(m *MemoryCache) {
		if n > 0 {
			m.maxItems = n
		}
	}
}

func NewMemoryCache(opts ...MemoryOption) *MemoryCache {
	m := &MemoryCache{
		entries:  make(map[string]memoryEntry),
		maxItems: 10000,
		stop:     make(chan struct{}),
	}
	for _, opt := range opts {
		opt(m)
	}
	go m.janitor(time.Minute)
	return m
}

func (m *MemoryCache) janitor(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-m.stop:
			return
		case now := <-ticker.C:
			m.mu.Lock()
			for k, e := range m.entries {
				if e.expired(now) {
					delete(m.entries, k)
				}
			}
			m.mu.Unlock()
		}
	}
}

func (m *MemoryCache) Set(_ context.Context, key string, value interface{}, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	var expiresAt time.Time
	if ttl > 0 {
		expiresAt = time.Now().Add(ttl)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.entries) >= m.maxItems {
		m.evictOldestLocked()
	}
	m.entries[key] = memoryEntry{data: data, expiresAt: expiresAt}
	return nil
}

func (m *MemoryCache) evictOldestLocked() {
	var victim string
	var oldest time.Time
	for k, e := range m.entries {
		if victim == "" || (!e.expiresAt.IsZero() && e.expiresAt.Before(oldest)) {
			victim = k
			oldest = e.expiresAt
		}
	}
	if victim != "" {
		delete(m.entries, victim)
	}
}

func (m *MemoryCache) Get(_ context.Context, key string, dest interface{}) error {
	m.mu.RLock()
	e, ok := m.entries[key]
	m.mu.RUnlock()
	if !ok || e.expired(time.Now()) {
		return ErrCacheMiss
	}
	return json.Unmarshal(e.data, dest)
}

func (m *MemoryCache) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	delete(m.entries, key)
	m.mu.Unlock()
	return nil
}

func (m *MemoryCache) Exists(_ context.Context, key string) (bool, error) {
	m.mu.RLock()
	e, ok := m.entries[key]
	m.mu.RUnlock()
	return ok && !e.expired(time.Now()), nil
}

func (m *MemoryCache) Close() error {
	m.once.Do(func() { close(m.stop) })
	return nil
}
