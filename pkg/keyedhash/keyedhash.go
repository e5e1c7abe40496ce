// Package keyedhash computes the keyed digests Identity stores instead of
// plaintext secrets: API-key hashes, refresh-token hashes, and
// password-reset-token hashes (§3 ApiKey/Session/PasswordResetToken, §9
// Open Question 6). HMAC-SHA256 over a server-held secret is the standard
// library's idiomatic tool for this and no pack dependency offers a
// narrower fit, so this one package is built directly on crypto/hmac.
package keyedhash

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
)

// Sum returns the hex-encoded HMAC-SHA256 of plaintext keyed by secret.
func Sum(secret []byte, plaintext string) string {
	mac := hmac.New(sha256.New, secret)
	mac.Write([]byte(plaintext))

	return hex.EncodeToString(mac.Sum(nil))
}
