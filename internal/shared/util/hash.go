package util

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// HashUserKey returns the storage namespace for a user or guest ID. Surrounding
// whitespace is not part of the identity.
func HashUserKey(userID string) string {
	return Digest(strings.TrimSpace(userID))
}

// Digest returns the hex SHA-256 of s.
func Digest(s string) string {
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:])
}
