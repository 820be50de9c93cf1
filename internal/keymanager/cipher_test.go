package keymanager

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func TestCipher_RoundTrip_Properties(t *testing.T) {
	c, err := NewCipher("secret")
	require.NoError(t, err)

	rapid.Check(t, func(t *rapid.T) {
		plaintext := rapid.SliceOfN(rapid.Byte(), 1, 512).Draw(t, "plaintext")

		sealed, err := c.Seal(plaintext)
		require.NoError(t, err)
		opened, err := c.Open(sealed)
		require.NoError(t, err)
		assert.Equal(t, plaintext, opened)
	})
}

func TestCipher_NonceIsRandom(t *testing.T) {
	c, err := NewCipher("secret")
	require.NoError(t, err)

	a, err := c.Seal([]byte("same"))
	require.NoError(t, err)
	b, err := c.Seal([]byte("same"))
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
}

func TestCipher_WrongSecret(t *testing.T) {
	c1, err := NewCipher("one")
	require.NoError(t, err)
	c2, err := NewCipher("two")
	require.NoError(t, err)

	sealed, err := c1.Seal([]byte(`{"id":"a"}`))
	require.NoError(t, err)

	_, err = c2.Open(sealed)
	assert.ErrorIs(t, err, ErrDecrypt)
}

func TestCipher_OpenGarbage(t *testing.T) {
	c, err := NewCipher("secret")
	require.NoError(t, err)

	for _, in := range []string{"", "zz", "00", `{"id":"plain"}`} {
		t.Run(in, func(t *testing.T) {
			_, err := c.Open(in)
			assert.ErrorIs(t, err, ErrDecrypt)
		})
	}
}

func TestCipher_Tampered(t *testing.T) {
	c, err := NewCipher("secret")
	require.NoError(t, err)

	sealed, err := c.Seal([]byte("hello"))
	require.NoError(t, err)

	// Flip the last hex digit.
	last := sealed[len(sealed)-1]
	flipped := byte('0')
	if last == '0' {
		flipped = '1'
	}
	_, err = c.Open(sealed[:len(sealed)-1] + string(flipped))
	assert.ErrorIs(t, err, ErrDecrypt)
}

func TestNewCipher_EmptySecret(t *testing.T) {
	_, err := NewCipher("")
	assert.ErrorIs(t, err, ErrEmptySecret)
}
