// Package store provides the durable key/value blob store the engine
// persists its state into.
package store

import (
	"errors"
	"sync"
)

// Logical keys written by the engine.
const (
	KeyExpenses          = "expenses"
	KeyBudgetPlan        = "budget-plan"
	KeyTripBudget        = "trip-budget"
	KeyPreferredLanguage = "preferred-language"
)

// ErrNotFound is returned by Get when the key has no value.
var ErrNotFound = errors.New("store: key not found")

// KV is a key to JSON-blob store.
type KV interface {
	Get(key string) ([]byte, error)
	Put(key string, value []byte) error
	Delete(key string) error
	Close() error
}

// Memory is an in-process KV. Useful for tests and --no-store runs.
type Memory struct {
	mu    sync.RWMutex
	items map[string][]byte

	// FailWrites makes Put and Delete fail, to exercise write-failure paths.
	FailWrites bool
}

// NewMemory returns an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{items: make(map[string][]byte)}
}

// Get returns a copy of the stored value.
func (m *Memory) Get(key string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.items[key]
	if !ok {
		return nil, ErrNotFound
	}
	out := make([]byte, len(v))
	copy(out, v)
	return out, nil
}

// Put stores a copy of value under key.
func (m *Memory) Put(key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailWrites {
		return errors.New("store: memory writes disabled")
	}
	v := make([]byte, len(value))
	copy(v, value)
	m.items[key] = v
	return nil
}

// Delete removes key. Deleting an absent key is not an error.
func (m *Memory) Delete(key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailWrites {
		return errors.New("store: memory writes disabled")
	}
	delete(m.items, key)
	return nil
}

// SetFailWrites toggles write failures.
func (m *Memory) SetFailWrites(fail bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.FailWrites = fail
}

// Close is a no-op.
func (m *Memory) Close() error { return nil }
