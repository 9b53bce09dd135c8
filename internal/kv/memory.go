package kv

import (
	"context"
	"sort"
	"strings"
	"sync"

	cache "github.com/patrickmn/go-cache"
)

// MemoryStore is a process-local Store backed by go-cache with no expiry.
// It is meant for development and tests; contents vanish on restart.
type MemoryStore struct {
	mu    sync.Mutex
	items *cache.Cache
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{items: cache.New(cache.NoExpiration, 0)}
}

// Get returns the value stored under key.
func (m *MemoryStore) Get(ctx context.Context, key string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	v, ok := m.items.Get(key)
	if !ok {
		return "", ErrNotFound
	}
	return v.(string), nil
}

// Set stores value under key.
func (m *MemoryStore) Set(ctx context.Context, key, value string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.items.Set(key, value, cache.NoExpiration)
	return nil
}

// ListKeysByPrefix returns all keys with the given prefix, sorted.
func (m *MemoryStore) ListKeysByPrefix(ctx context.Context, prefix string) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	keys := []string{}
	for key := range m.items.Items() {
		if strings.HasPrefix(key, prefix) {
			keys = append(keys, key)
		}
	}
	sort.Strings(keys)
	return keys, nil
}

// CompareAndSwap writes next only when the stored value still matches old.
func (m *MemoryStore) CompareAndSwap(ctx context.Context, key string, old *string, next string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	if old == nil {
		return m.items.Add(key, next, cache.NoExpiration) == nil, nil
	}
	current, ok := m.items.Get(key)
	if !ok || current.(string) != *old {
		return false, nil
	}
	m.items.Set(key, next, cache.NoExpiration)
	return true, nil
}
