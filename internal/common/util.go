package common

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
)

// MakeRandHexString returns a hex string backed by size random bytes,
// so the result is 2*size characters long.
func MakeRandHexString(size int) (string, error) {
	b := make([]byte, size)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("rand read: %w", err)
	}
	return hex.EncodeToString(b), nil
}
