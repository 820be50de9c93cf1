package store

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/roach88/securetodo/internal/keymanager"
	"github.com/roach88/securetodo/internal/vault"
)

type item struct {
	ID   string `json:"id"`
	Text string `json:"text"`
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newKeySource() *keymanager.Manager {
	return keymanager.New(vault.NewMemoryVault(), keymanager.WithLogger(quietLogger()))
}

// createMemoryStore creates a Store over a fresh memory engine and returns
// the raw engine for direct inspection.
func createMemoryStore(t *testing.T) (*Store, *MemoryEngine) {
	t.Helper()
	raw := NewMemoryEngine()
	s := New(MemoryOpener(raw), newKeySource(), WithLogger(quietLogger()))
	t.Cleanup(func() { s.Close() })
	return s, raw
}

// createSQLiteStore creates a Store over a SQLite file in a temp dir.
func createSQLiteStore(t *testing.T) (*Store, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s := New(SQLiteOpener(path), newKeySource(), WithLogger(quietLogger()))
	t.Cleanup(func() { s.Close() })
	return s, path
}

// countingKeys counts GetEncryptionKey calls.
type countingKeys struct {
	inner KeySource
	calls int
}

func (c *countingKeys) GetEncryptionKey(ctx context.Context) (keymanager.Secret, error) {
	c.calls++
	return c.inner.GetEncryptionKey(ctx)
}
