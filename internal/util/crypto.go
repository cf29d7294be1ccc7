package util

import (
	"crypto/rand"
	"encoding/hex"
)

// CryptoRandomBytes generates cryptographically secure random bytes.
func CryptoRandomBytes(length int64) ([]byte, error) {
	buf := make([]byte, length)
	_, err := rand.Read(buf)
	return buf, err
}

// RandomToken returns an opaque 64-character hex token string backed by
// 256 bits of entropy. Used for access tokens, refresh tokens, and
// authorization codes alike.
func RandomToken() (string, error) {
	b, err := CryptoRandomBytes(32)
	if err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
