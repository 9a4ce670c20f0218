// Package variables holds values a virtual user captures from one response
// and replays in later requests, such as the job number returned by a send.
package variables

import (
	"context"
)

// KeyJobNumber is where the last captured job number is stored.
const KeyJobNumber = "job_number"

// Store defines the interface for variable storage.
type Store interface {
	// Set stores a variable with the given key and value.
	Set(key, value string)

	// Get retrieves a variable by key. Returns (value, true) if found,
	// or ("", false) if the key is not present.
	Get(key string) (string, bool)

	// GetAll returns a copy of all stored variables.
	GetAll() map[string]string

	// Clear removes all stored variables.
	Clear()
}

// MemoryStore is a map-based Store. Each virtual user owns one, so it is
// not guarded by a mutex.
type MemoryStore struct {
	variables map[string]string
}

// NewStore creates a MemoryStore pre-filled with seed.
func NewStore(seed map[string]string) Store {
	m := &MemoryStore{
		variables: make(map[string]string, len(seed)),
	}
	for k, v := range seed {
		m.variables[k] = v
	}
	return m
}

func (m *MemoryStore) Set(key, value string) {
	m.variables[key] = value
}

func (m *MemoryStore) Get(key string) (string, bool) {
	value, ok := m.variables[key]
	return value, ok
}

func (m *MemoryStore) GetAll() map[string]string {
	result := make(map[string]string, len(m.variables))
	for key, value := range m.variables {
		result[key] = value
	}
	return result
}

func (m *MemoryStore) Clear() {
	m.variables = make(map[string]string)
}

// Lookup returns key from the store in ctx, or fallback when there is no
// store or no value.
func Lookup(ctx context.Context, key, fallback string) string {
	store := FromContext(ctx)
	if store == nil {
		return fallback
	}
	if v, ok := store.Get(key); ok && v != "" {
		return v
	}
	return fallback
}

type contextKey struct{}

var storeKey = contextKey{}

// FromContext retrieves the variable store from the context.
// Returns nil if not found.
func FromContext(ctx context.Context) Store {
	if ctx == nil {
		return nil
	}
	if s, ok := ctx.Value(storeKey).(Store); ok {
		return s
	}
	return nil
}

// NewContext returns a new context with the variable store attached.
func NewContext(ctx context.Context, store Store) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, storeKey, store)
}
