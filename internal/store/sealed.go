package store

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/roach88/securetodo/internal/keymanager"
)

const (
	// checkKey holds a sealed known value used to detect a wrong secret at
	// open. It sits outside the record namespace and is never returned by
	// GetAllKeys.
	checkKey = "securetodo.check"

	checkPlaintext = "securetodo/check/v1"
)

// ErrWrongSecret means the database was written under a different secret.
// This is what a lost or replaced vault entry looks like; the data cannot
// be recovered.
var ErrWrongSecret = errors.New("store: database was encrypted with a different secret")

// sealedEngine encrypts values on the way into raw and decrypts them on the
// way out.
type sealedEngine struct {
	raw    Engine
	cipher *keymanager.Cipher
}

// OpenSealed wraps raw so every value is sealed with a key derived from
// encryptionKey. The first open of an empty database records a check value;
// later opens verify it and fail with ErrWrongSecret on mismatch. On any
// error raw is closed.
func OpenSealed(ctx context.Context, raw Engine, encryptionKey string) (Engine, error) {
	c, err := keymanager.NewCipher(keymanager.Secret(encryptionKey))
	if err != nil {
		raw.Close()
		return nil, fmt.Errorf("open sealed engine: %w", err)
	}
	e := &sealedEngine{raw: raw, cipher: c}
	if err := e.verifyCheck(ctx); err != nil {
		raw.Close()
		return nil, err
	}
	return e, nil
}

func (e *sealedEngine) verifyCheck(ctx context.Context) error {
	sealed, ok, err := e.raw.GetString(ctx, checkKey)
	if err != nil {
		return fmt.Errorf("read check value: %w", err)
	}
	if !ok {
		value, err := e.cipher.Seal([]byte(checkPlaintext))
		if err != nil {
			return fmt.Errorf("seal check value: %w", err)
		}
		if err := e.raw.Set(ctx, checkKey, value); err != nil {
			return fmt.Errorf("write check value: %w", err)
		}
		return nil
	}

	plain, err := e.cipher.Open(sealed)
	if err != nil || string(plain) != checkPlaintext {
		return ErrWrongSecret
	}
	return nil
}

func (e *sealedEngine) GetString(ctx context.Context, key string) (string, bool, error) {
	sealed, ok, err := e.raw.GetString(ctx, key)
	if err != nil || !ok {
		return "", ok, err
	}
	plain, err := e.cipher.Open(sealed)
	if err != nil {
		return "", false, fmt.Errorf("get %q: %w", key, err)
	}
	return string(plain), true, nil
}

func (e *sealedEngine) Set(ctx context.Context, key, value string) error {
	sealed, err := e.cipher.Seal([]byte(value))
	if err != nil {
		return fmt.Errorf("set %q: %w", key, err)
	}
	return e.raw.Set(ctx, key, sealed)
}

func (e *sealedEngine) Delete(ctx context.Context, key string) error {
	return e.raw.Delete(ctx, key)
}

func (e *sealedEngine) GetAllKeys(ctx context.Context) ([]string, error) {
	keys, err := e.raw.GetAllKeys(ctx)
	if err != nil {
		return nil, err
	}
	return slices.DeleteFunc(keys, func(k string) bool { return k == checkKey }), nil
}

func (e *sealedEngine) Close() error {
	return e.raw.Close()
}
