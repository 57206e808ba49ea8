package storage

import (
	"context"
	"sync"
)

// MemoryStore is an in-memory service.KVStore. Safe for concurrent use.
type MemoryStore struct {
	slots map[string][]byte
	mu    sync.RWMutex
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{slots: make(map[string][]byte)}
}

// Save stores a copy of value under key.
func (m *MemoryStore) Save(_ context.Context, key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	buf := make([]byte, len(value))
	copy(buf, value)
	m.slots[key] = buf
	return nil
}

// Load returns the value stored under key, or false if absent.
func (m *MemoryStore) Load(_ context.Context, key string) ([]byte, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	value, ok := m.slots[key]
	if !ok {
		return nil, false, nil
	}
	buf := make([]byte, len(value))
	copy(buf, value)
	return buf, true, nil
}

// Close is a no-op.
func (m *MemoryStore) Close() error {
	return nil
}
