// Package keymanager obtains the secret that encrypts the record store and
// turns it into a value cipher.
//
// The secret lives only in a vault.Vault. It is generated once, on first
// access, from crypto/rand and is never rotated. There is no way to derive it
// again: if the vault entry is lost, every value encrypted under it is lost
// too, and opening the existing database fails with a wrong-secret error
// instead of silently starting over.
package keymanager

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/roach88/securetodo/internal/vault"
)

const (
	// KeyID is the well-known vault identifier of the database secret.
	KeyID = "secureToDoAppEncryptionKey"

	// SecretBytes is the amount of entropy drawn for a new secret.
	SecretBytes = 1024
)

// ErrVaultUnavailable means the vault cannot hold secrets. The store cannot
// be opened without it and there is no secure fallback, so callers treat this
// as fatal.
var ErrVaultUnavailable = errors.New("keymanager: vault unavailable")

// Secret is the hex-encoded database secret.
type Secret string

// Manager reads or lazily creates the database secret.
type Manager struct {
	vault  vault.Vault
	rand   io.Reader
	logger *slog.Logger
}

// Option configures a Manager.
type Option func(*Manager)

// WithRandom overrides the entropy source (tests only).
func WithRandom(r io.Reader) Option {
	return func(m *Manager) {
		m.rand = r
	}
}

// WithLogger sets the logger used for lifecycle events.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Manager) {
		m.logger = logger
	}
}

// New returns a Manager backed by v.
func New(v vault.Vault, opts ...Option) *Manager {
	m := &Manager{
		vault:  v,
		rand:   rand.Reader,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// GetEncryptionKey returns the database secret, generating and persisting it
// on first use. Repeated calls return the same secret for the lifetime of
// the vault entry.
func (m *Manager) GetEncryptionKey(ctx context.Context) (Secret, error) {
	if !m.vault.IsAvailable(ctx) {
		return "", ErrVaultUnavailable
	}

	existing, ok, err := m.vault.GetItem(ctx, KeyID)
	if err != nil {
		return "", fmt.Errorf("get encryption key: %w", err)
	}
	if ok && existing != "" {
		return Secret(existing), nil
	}

	buf := make([]byte, SecretBytes)
	if _, err := io.ReadFull(m.rand, buf); err != nil {
		return "", fmt.Errorf("get encryption key: generate: %w", err)
	}
	secret := hex.EncodeToString(buf)

	if err := m.vault.SetItem(ctx, KeyID, secret); err != nil {
		return "", fmt.Errorf("get encryption key: persist: %w", err)
	}
	m.logger.Info("generated new encryption key", "vault_item", KeyID, "bytes", SecretBytes)

	return Secret(secret), nil
}
