package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/roach88/securetodo/internal/keymanager"
)

// DefaultNamespace is the namespace id of the to-do database.
const DefaultNamespace = "secure-todo-storage"

// KeySource supplies the database secret. Implemented by keymanager.Manager.
type KeySource interface {
	GetEncryptionKey(ctx context.Context) (keymanager.Secret, error)
}

// Store is the encrypted key-value store. The zero value is not usable;
// construct with New. Safe for concurrent use.
type Store struct {
	opener    Opener
	keys      KeySource
	namespace string
	logger    *slog.Logger

	mu     sync.Mutex // guards engine and closed; held for the whole open
	engine Engine
	closed bool
}

// Option configures a Store.
type Option func(*Store)

// WithNamespace overrides DefaultNamespace.
func WithNamespace(namespace string) Option {
	return func(s *Store) {
		s.namespace = namespace
	}
}

// WithLogger sets the logger used for open and corrupt-entry events.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Store) {
		s.logger = logger
	}
}

// New returns a Store that opens its engine on first use.
func New(opener Opener, keys KeySource, opts ...Option) *Store {
	s := &Store{
		opener:    opener,
		keys:      keys,
		namespace: DefaultNamespace,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// handle returns the open engine, opening it on first call. The mutex is
// held across the open so concurrent first callers share one engine.
func (s *Store) handle(ctx context.Context) (Engine, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil, ErrClosed
	}
	if s.engine != nil {
		return s.engine, nil
	}

	secret, err := s.keys.GetEncryptionKey(ctx)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}
	engine, err := s.opener(ctx, s.namespace, string(secret))
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}
	s.logger.Debug("store opened", "namespace", s.namespace)
	s.engine = engine
	return engine, nil
}

// Open forces initialization. Every operation opens lazily, so calling Open
// is only useful to surface a failure early.
func (s *Store) Open(ctx context.Context) error {
	_, err := s.handle(ctx)
	return err
}

// Close closes the engine if it was opened. Later operations return
// ErrClosed.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true
	if s.engine == nil {
		return nil
	}
	return s.engine.Close()
}

// Set serializes v as JSON and writes it at key, replacing any existing
// entry. The write is durable when Set returns.
func (s *Store) Set(ctx context.Context, key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("set %q: marshal: %w", key, err)
	}
	engine, err := s.handle(ctx)
	if err != nil {
		return err
	}
	return engine.Set(ctx, key, string(data))
}

// Delete removes key. Deleting an absent key is a no-op.
func (s *Store) Delete(ctx context.Context, key string) error {
	engine, err := s.handle(ctx)
	if err != nil {
		return err
	}
	return engine.Delete(ctx, key)
}

// Keys returns every key with the given prefix in ascending order.
func (s *Store) Keys(ctx context.Context, prefix string) ([]string, error) {
	engine, err := s.handle(ctx)
	if err != nil {
		return nil, err
	}
	all, err := engine.GetAllKeys(ctx)
	if err != nil {
		return nil, err
	}
	keys := all[:0]
	for _, k := range all {
		if strings.HasPrefix(k, prefix) {
			keys = append(keys, k)
		}
	}
	return keys, nil
}

// Decoder turns the JSON value stored under key into T. A decoder may
// reject a value that does not belong under its key.
type Decoder[T any] func(key string, data []byte) (T, error)

// JSON returns a Decoder using encoding/json. The key is not checked.
func JSON[T any]() Decoder[T] {
	return func(_ string, data []byte) (T, error) {
		var v T
		err := json.Unmarshal(data, &v)
		return v, err
	}
}

// Get reads and decodes the value at key. An absent key returns ok=false.
// A value that fails to decrypt or decode is treated as absent and logged;
// only engine I/O errors are returned.
func Get[T any](ctx context.Context, s *Store, key string, decode Decoder[T]) (T, bool, error) {
	var zero T
	engine, err := s.handle(ctx)
	if err != nil {
		return zero, false, err
	}
	v, ok, err := readEntry(ctx, s.logger, engine, key, decode)
	if err != nil {
		return zero, false, fmt.Errorf("get %q: %w", key, err)
	}
	return v, ok, nil
}

// ScanByPrefix decodes every value whose key starts with prefix (exact,
// case-sensitive). Corrupt entries are skipped and logged. Results follow
// key order, but callers that need an order should sort.
func ScanByPrefix[T any](ctx context.Context, s *Store, prefix string, decode Decoder[T]) ([]T, error) {
	engine, err := s.handle(ctx)
	if err != nil {
		return nil, err
	}
	keys, err := s.Keys(ctx, prefix)
	if err != nil {
		return nil, fmt.Errorf("scan %q: %w", prefix, err)
	}

	values := make([]T, 0, len(keys))
	for _, key := range keys {
		v, ok, err := readEntry(ctx, s.logger, engine, key, decode)
		if err != nil {
			return nil, fmt.Errorf("scan %q: %w", prefix, err)
		}
		if ok {
			values = append(values, v)
		}
	}
	return values, nil
}

// readEntry fetches one entry. Decryption and decode failures are reported as
// ok=false with a nil error.
func readEntry[T any](ctx context.Context, logger *slog.Logger, engine Engine, key string, decode Decoder[T]) (T, bool, error) {
	var zero T
	raw, ok, err := engine.GetString(ctx, key)
	if errors.Is(err, keymanager.ErrDecrypt) {
		logger.Warn("skipping undecryptable entry", "key", key, "error", err)
		return zero, false, nil
	}
	if err != nil || !ok {
		return zero, false, err
	}
	v, err := decode(key, []byte(raw))
	if err != nil {
		logger.Warn("skipping corrupt entry", "key", key, "error", err)
		return zero, false, nil
	}
	return v, true, nil
}
