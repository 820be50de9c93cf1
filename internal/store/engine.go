package store

import (
	"context"
	"errors"
	"slices"
	"sync"
)

// ErrClosed is returned by operations on a closed engine or store.
var ErrClosed = errors.New("store: closed")

// Engine is the key-value surface the Store adapts. Implementations must be
// safe for concurrent use.
type Engine interface {
	// GetString returns the value at key; ok is false if absent.
	GetString(ctx context.Context, key string) (value string, ok bool, err error)

	// Set writes value at key, overwriting any existing value.
	Set(ctx context.Context, key, value string) error

	// Delete removes key. Deleting an absent key is not an error.
	Delete(ctx context.Context, key string) error

	// GetAllKeys returns every key, in ascending byte order.
	GetAllKeys(ctx context.Context) ([]string, error)

	// Close releases the engine's resources.
	Close() error
}

// Opener opens the engine for a namespace using the database secret.
type Opener func(ctx context.Context, namespaceID, encryptionKey string) (Engine, error)

// MemoryEngine is a map-backed Engine. It keeps values exactly as given.
type MemoryEngine struct {
	mu     sync.RWMutex
	data   map[string]string
	closed bool
}

// NewMemoryEngine returns an empty engine.
func NewMemoryEngine() *MemoryEngine {
	return &MemoryEngine{data: make(map[string]string)}
}

func (m *MemoryEngine) GetString(ctx context.Context, key string) (string, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.closed {
		return "", false, ErrClosed
	}
	v, ok := m.data[key]
	return v, ok, nil
}

func (m *MemoryEngine) Set(ctx context.Context, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return ErrClosed
	}
	m.data[key] = value
	return nil
}

func (m *MemoryEngine) Delete(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return ErrClosed
	}
	delete(m.data, key)
	return nil
}

func (m *MemoryEngine) GetAllKeys(ctx context.Context) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.closed {
		return nil, ErrClosed
	}
	keys := make([]string, 0, len(m.data))
	for k := range m.data {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys, nil
}

// Close marks the engine closed. The data is kept so a test can reopen it
// through MemoryOpener.
func (m *MemoryEngine) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

// reopen clears the closed flag.
func (m *MemoryEngine) reopen() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = false
}

// MemoryOpener returns an Opener that seals values over the given raw
// memory engine. Namespaces are not separated; use one engine per namespace.
func MemoryOpener(raw *MemoryEngine) Opener {
	return func(ctx context.Context, namespaceID, encryptionKey string) (Engine, error) {
		raw.reopen()
		return OpenSealed(ctx, raw, encryptionKey)
	}
}
