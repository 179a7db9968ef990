package gateway

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/require"
)

func signManifest(secret, dataID, requestID, ts string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(BuildManifest(dataID, requestID, ts)))
	return hex.EncodeToString(mac.Sum(nil))
}

func TestParseSignatureHeader(t *testing.T) {
	ts, v1, err := ParseSignatureHeader("ts=1704908010,v1=618c85345248dd820d5fd456117c2ab2ef8eda45a0282ff693eac24131a5e839")
	require.NoError(t, err)
	require.Equal(t, "1704908010", ts)
	require.Equal(t, "618c85345248dd820d5fd456117c2ab2ef8eda45a0282ff693eac24131a5e839", v1)
}

func TestParseSignatureHeaderToleratesSpaces(t *testing.T) {
	ts, v1, err := ParseSignatureHeader("ts=1704908010, v1=abc123")
	require.NoError(t, err)
	require.Equal(t, "1704908010", ts)
	require.Equal(t, "abc123", v1)
}

func TestParseSignatureHeaderMissingParts(t *testing.T) {
	for _, header := range []string{
		"",
		"ts=1704908010",
		"v1=abc123",
		"garbage",
	} {
		_, _, err := ParseSignatureHeader(header)
		require.ErrorIs(t, err, ErrMissingSignature, "header %q", header)
	}
}

func TestBuildManifest(t *testing.T) {
	manifest := BuildManifest("12345", "req-abc", "1704908010")
	require.Equal(t, "id:12345;request-id:req-abc;ts:1704908010;", manifest)
}

func TestVerifySignatureAcceptsValid(t *testing.T) {
	secret := "webhook-secret"
	v1 := signManifest(secret, "12345", "req-abc", "1704908010")

	err := VerifySignature(secret, "12345", "req-abc", "1704908010", v1)
	require.NoError(t, err)
}

func TestVerifySignatureRejectsTampering(t *testing.T) {
	secret := "webhook-secret"
	v1 := signManifest(secret, "12345", "req-abc", "1704908010")

	// Any component change invalidates the signature
	require.ErrorIs(t, VerifySignature(secret, "99999", "req-abc", "1704908010", v1), ErrBadSignature)
	require.ErrorIs(t, VerifySignature(secret, "12345", "req-xyz", "1704908010", v1), ErrBadSignature)
	require.ErrorIs(t, VerifySignature(secret, "12345", "req-abc", "1704909999", v1), ErrBadSignature)
	require.ErrorIs(t, VerifySignature("other-secret", "12345", "req-abc", "1704908010", v1), ErrBadSignature)
	require.ErrorIs(t, VerifySignature(secret, "12345", "req-abc", "1704908010", "deadbeef"), ErrBadSignature)
}
