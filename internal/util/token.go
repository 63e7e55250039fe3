package util

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
)

const resetTokenBytes = 32

// NewResetToken mints an opaque password-reset token. The plaintext goes to
// the client exactly once; only the SHA-256 digest is ever stored, so a leaked
// database row cannot be replayed as a token.
func NewResetToken() (plaintext, digest string, err error) {
	raw := make([]byte, resetTokenBytes)
	if _, err := rand.Read(raw); err != nil {
		return "", "", err
	}
	plaintext = hex.EncodeToString(raw)
	return plaintext, HashResetToken(plaintext), nil
}

// HashResetToken maps a plaintext token to its stored form.
func HashResetToken(plaintext string) string {
	sum := sha256.Sum256([]byte(plaintext))
	return hex.EncodeToString(sum[:])
}
