// Package activation generates device activation codes.
package activation

import (
	"crypto/rand"
)

// Alphabet is the set of symbols an activation code is drawn from. The code
// is the sole secret protecting pairing, so generation uses crypto/rand.
const Alphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// CodeLength is the fixed length of an activation code.
const CodeLength = 12

// GenerateCode returns a random 12-character code over [A-Z0-9]. The
// generator is stateless; uniqueness is the store's concern and the caller
// re-draws on a collision.
func GenerateCode() (string, error) {
	// Rejection sampling keeps the draw uniform over the 36-symbol alphabet.
	out := make([]byte, 0, CodeLength)
	buf := make([]byte, CodeLength*2)
	for len(out) < CodeLength {
		if _, err := rand.Read(buf); err != nil {
			return "", err
		}
		for _, b := range buf {
			if int(b) >= 252 { // 252 = 7*36, largest multiple of 36 below 256
				continue
			}
			out = append(out, Alphabet[int(b)%len(Alphabet)])
			if len(out) == CodeLength {
				break
			}
		}
	}
	return string(out), nil
}
