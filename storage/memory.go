package storage

import (
	"context"
	"sync"
)

// MemoryAdapter keeps collections in process memory. It is used for tests and
// for ephemeral sessions.
type MemoryAdapter struct {
	mu   sync.Mutex
	data map[Collection][]byte
}

// NewMemoryAdapter creates an empty MemoryAdapter.
func NewMemoryAdapter() *MemoryAdapter {
	return &MemoryAdapter{data: make(map[Collection][]byte)}
}

// Load returns a copy of the payload stored under c.
func (m *MemoryAdapter) Load(_ context.Context, c Collection) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.data[c]
	if !ok {
		return nil, nil
	}
	return append([]byte(nil), d...), nil
}

// Save stores a copy of data under c.
func (m *MemoryAdapter) Save(_ context.Context, c Collection, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[c] = append([]byte(nil), data...)
	return nil
}
