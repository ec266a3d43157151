package service

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"

	"github.com/google/uuid"
)

// newToken mints a single-use secret and the hash that gets persisted.
// The raw value only ever travels inside the emailed link.
func newToken() (raw, hash string) {
	raw = uuid.New().String()
	return raw, hashToken(raw)
}

func hashToken(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}

// tokenMatches compares a presented token against the stored hash in
// constant time. An empty stored hash never matches: a consumed token leaves
// no hash behind, so replays land here.
func tokenMatches(raw, storedHash string) bool {
	if storedHash == "" {
		return false
	}
	computed := hashToken(raw)
	return subtle.ConstantTimeCompare([]byte(computed), []byte(storedHash)) == 1
}
