package gateway

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/pkg/errors"
)

// Signature header errors
var (
	ErrMissingSignature = errors.New("missing signature headers")
	ErrBadSignature     = errors.New("signature verification failed")
)

// ParseSignatureHeader splits an `x-signature` header of the form
// "ts=<unix>,v1=<hex>" into its parts.
func ParseSignatureHeader(header string) (ts, v1 string, err error) {
	if header == "" {
		return "", "", ErrMissingSignature
	}
	for _, part := range strings.Split(header, ",") {
		kv := strings.SplitN(strings.TrimSpace(part), "=", 2)
		if len(kv) != 2 {
			continue
		}
		switch kv[0] {
		case "ts":
			ts = kv[1]
		case "v1":
			v1 = kv[1]
		}
	}
	if ts == "" || v1 == "" {
		return "", "", ErrMissingSignature
	}
	return ts, v1, nil
}

// BuildManifest assembles the string the gateway signs for a notification
func BuildManifest(dataID, requestID, ts string) string {
	return fmt.Sprintf("id:%s;request-id:%s;ts:%s;", dataID, requestID, ts)
}

// VerifySignature checks the HMAC-SHA256 of the manifest against the v1
// value from the signature header. The comparison is constant-time.
func VerifySignature(secret, dataID, requestID, ts, v1 string) error {
	manifest := BuildManifest(dataID, requestID, ts)

	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(manifest))
	expected := hex.EncodeToString(mac.Sum(nil))

	if !hmac.Equal([]byte(expected), []byte(v1)) {
		return ErrBadSignature
	}
	return nil
}
