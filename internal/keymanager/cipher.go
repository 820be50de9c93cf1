package keymanager

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"

	"golang.org/x/crypto/nacl/secretbox"
	"golang.org/x/crypto/sha3"
)

// DomainValueKey separates the value-encryption key from any other use of
// the secret. The version suffix allows a future algorithm migration.
const DomainValueKey = "securetodo/value-key/v1"

const nonceSize = 24

// ErrDecrypt is returned when a value does not open under the current key:
// it is not hex, is truncated, was tampered with, or was sealed by another
// secret.
var ErrDecrypt = errors.New("keymanager: decrypt failed")

// ErrEmptySecret is returned by NewCipher for an empty secret.
var ErrEmptySecret = errors.New("keymanager: empty secret")

// Cipher seals and opens store values with NaCl secretbox.
// Safe for concurrent use.
type Cipher struct {
	key [32]byte
}

// NewCipher derives the value key from secret.
// Format: SHA3-256(domain + 0x00 + secret)
func NewCipher(secret Secret) (*Cipher, error) {
	if secret == "" {
		return nil, ErrEmptySecret
	}
	h := sha3.New256()
	h.Write([]byte(DomainValueKey))
	h.Write([]byte{0x00})
	h.Write([]byte(secret))

	c := &Cipher{}
	copy(c.key[:], h.Sum(nil))
	return c, nil
}

// Seal encrypts plaintext and returns hex(nonce || box).
func (c *Cipher) Seal(plaintext []byte) (string, error) {
	// A fresh random 192-bit nonce per message makes repeats negligible.
	var nonce [nonceSize]byte
	if _, err := rand.Read(nonce[:]); err != nil {
		return "", fmt.Errorf("seal: nonce: %w", err)
	}
	box := secretbox.Seal(nonce[:], plaintext, &nonce, &c.key)
	return hex.EncodeToString(box), nil
}

// Open reverses Seal.
func (c *Cipher) Open(ciphertext string) ([]byte, error) {
	data, err := hex.DecodeString(ciphertext)
	if err != nil {
		return nil, fmt.Errorf("%w: not hex", ErrDecrypt)
	}
	if len(data) < nonceSize+secretbox.Overhead {
		return nil, fmt.Errorf("%w: too short", ErrDecrypt)
	}

	var nonce [nonceSize]byte
	copy(nonce[:], data[:nonceSize])
	plaintext, ok := secretbox.Open(nil, data[nonceSize:], &nonce, &c.key)
	if !ok {
		return nil, ErrDecrypt
	}
	return plaintext, nil
}
