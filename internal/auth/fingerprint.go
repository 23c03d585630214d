package auth

import (
	"crypto/sha256"
	"encoding/hex"
)

// HashToken returns the SHA-256 hex digest of a raw token. It is the only
// fingerprint function; blacklist rows are keyed by its output.
func HashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

// ShortFingerprint is a log-safe prefix of the token fingerprint.
func ShortFingerprint(token string) string {
	return HashToken(token)[:12]
}
