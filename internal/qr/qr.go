// Package qr renders access-credential codes and computes the out-of-band
// validation hash stored alongside each credential.
package qr

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"

	"github.com/pkg/errors"
	qrcode "github.com/skip2/go-qrcode"
)

// Default raster size in pixels for rendered codes
const DefaultSize = 256

// Render encodes the credential code (the reservation id string) as a PNG
// QR image. The payload carries no structure and no embedded signature.
func Render(code string, size int) ([]byte, error) {
	if code == "" {
		return nil, errors.New("cannot render empty code")
	}
	if size <= 0 {
		size = DefaultSize
	}
	png, err := qrcode.Encode(code, qrcode.Medium, size)
	if err != nil {
		return nil, errors.Wrap(err, "failed to render QR code")
	}
	return png, nil
}

// ValidationHash computes HMAC-SHA256 over reservation id + user id with the
// shared secret. Stored at issuance for manual out-of-band verification; the
// standard validation path does not consult it.
func ValidationHash(reservaID, usuarioID, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(reservaID + ":" + usuarioID))
	return hex.EncodeToString(mac.Sum(nil))
}

// CheckValidationHash verifies a hash produced by ValidationHash in
// constant time.
func CheckValidationHash(reservaID, usuarioID, secret, hash string) bool {
	expected := ValidationHash(reservaID, usuarioID, secret)
	return hmac.Equal([]byte(expected), []byte(hash))
}
