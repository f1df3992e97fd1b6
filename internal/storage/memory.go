package storage

import (
	"context"
	"sync"
)

// Memory is an in-process Slot. Values are copied on the way in and out.
type Memory struct {
	mu     sync.RWMutex
	values map[string][]byte
}

// NewMemory returns an empty in-memory slot.
func NewMemory() *Memory {
	return &Memory{values: make(map[string][]byte)}
}

var _ Slot = (*Memory)(nil)

func (m *Memory) Get(_ context.Context, key string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.values[key]
	if !ok {
		return nil, ErrNotFound
	}
	return append([]byte(nil), v...), nil
}

func (m *Memory) Set(ctx context.Context, key string, value []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	cp := append([]byte(nil), value...)
	m.mu.Lock()
	m.values[key] = cp
	m.mu.Unlock()
	return nil
}

func (m *Memory) PingContext(ctx context.Context) error {
	return ctx.Err()
}
