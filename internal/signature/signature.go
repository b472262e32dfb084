// Package signature implements Salla's webhook security strategy:
// an HMAC-SHA256 digest of the raw request body, sent hex-encoded in the
// X-Salla-Signature header.
package signature

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
)

// Strategy is the only security strategy this server supports, as declared
// by the X-Salla-Security-Strategy header.
const Strategy = "signature"

// Sign computes the lowercase hex HMAC-SHA256 of body under secret.
func Sign(body, secret []byte) string {
	mac := hmac.New(sha256.New, secret)
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

// Verify reports whether signatureHeader is a valid signature of body under
// secret. Malformed hex, length mismatch, and a genuine mismatch are
// indistinguishable to the caller: all return false. Comparison is
// constant-time to avoid leaking the matching prefix length.
func Verify(body []byte, signatureHeader string, secret []byte) bool {
	if signatureHeader == "" {
		return false
	}

	given, err := hex.DecodeString(signatureHeader)
	if err != nil {
		return false
	}

	mac := hmac.New(sha256.New, secret)
	mac.Write(body)
	expected := mac.Sum(nil)

	return hmac.Equal(given, expected)
}
