package security

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
)

// HashToken returns a SHA-256 hash of the token string, hex-encoded.
// The session registry stores and looks up hashes only, never raw tokens.
func HashToken(token string) string {
	h := sha256.Sum256([]byte(token))
	return hex.EncodeToString(h[:])
}

// TokenHashEqual performs constant-time comparison of the provided token's
// hash with the stored hash. Returns true only if they match.
func TokenHashEqual(providedToken, storedHash string) bool {
	providedHash := HashToken(providedToken)
	return subtle.ConstantTimeCompare([]byte(providedHash), []byte(storedHash)) == 1
}
