package gateway

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestTokenCipherRoundTrip(t *testing.T) {
	cipher := NewTokenCipher("test-passphrase")

	for _, plaintext := range []string{
		"APP_USR-1234567890",
		"a",
		strings.Repeat("x", 1000),
		"exactly16bytes!!",
	} {
		encrypted, err := cipher.Encrypt(plaintext)
		require.NoError(t, err)
		require.NotEqual(t, plaintext, encrypted)

		decrypted, err := cipher.Decrypt(encrypted)
		require.NoError(t, err)
		require.Equal(t, plaintext, decrypted)
	}
}

func TestTokenCipherFreshIVPerCall(t *testing.T) {
	cipher := NewTokenCipher("test-passphrase")

	first, err := cipher.Encrypt("same-token")
	require.NoError(t, err)
	second, err := cipher.Encrypt("same-token")
	require.NoError(t, err)

	require.NotEqual(t, first, second)
}

func TestTokenCipherRejectsEmptyPlaintext(t *testing.T) {
	cipher := NewTokenCipher("test-passphrase")

	_, err := cipher.Encrypt("")
	require.Error(t, err)
}

func TestTokenCipherRejectsMalformedInput(t *testing.T) {
	cipher := NewTokenCipher("test-passphrase")

	for _, encoded := range []string{
		"",
		"no-separator",
		"deadbeef:",                    // empty ciphertext
		"zz:deadbeef",                  // bad IV hex
		"deadbeef:zz",                  // bad ciphertext hex
		"deadbeef:deadbeef",            // IV too short
		strings.Repeat("ab", 16) + ":" + "abcdef", // ciphertext not block-aligned
	} {
		_, err := cipher.Decrypt(encoded)
		require.Error(t, err, "expected decrypt to fail for %q", encoded)
	}
}

func TestTokenCipherWrongKeyFails(t *testing.T) {
	encrypted, err := NewTokenCipher("right-key").Encrypt("secret-token")
	require.NoError(t, err)

	decrypted, err := NewTokenCipher("wrong-key").Decrypt(encrypted)
	if err == nil {
		// Padding may coincidentally parse; the plaintext still must not
		// survive a wrong key.
		require.NotEqual(t, "secret-token", decrypted)
	}
}
