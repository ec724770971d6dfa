package common

import (
	"crypto/rand"
	"encoding/base64"
)

// GenerateRandByteArray returns size bytes read from crypto/rand.
func GenerateRandByteArray(size int) []byte {
	b := make([]byte, size)
	// crypto/rand.Read does not return an error since Go 1.24.
	_, _ = rand.Read(b)
	return b
}

// MakeRandBase64String returns size random bytes encoded with standard base64.
func MakeRandBase64String(size int) string {
	return base64.StdEncoding.EncodeToString(GenerateRandByteArray(size))
}

// WipeByteArray zeroes b. Unsealed codes and derived keys go through it
// once they are no longer needed.
func WipeByteArray(b []byte) {
	clear(b)
}
