package password

import (
	"golang.org/x/crypto/bcrypt"
)

// Hash hashes a password with bcrypt and returns the encoded hash string.
//
// Contract:
// - Empty input -> ErrPasswordEmpty.
// - Input longer than MaxPasswordBytes (72 bytes) -> ErrPasswordTooLong.
func (c Config) Hash(password string) (string, error) {
	if password == "" {
		return "", ErrPasswordEmpty
	}
	if len(password) > MaxPasswordBytes {
		return "", ErrPasswordTooLong
	}

	out, err := bcrypt.GenerateFromPassword([]byte(password), c.cost())
	if err != nil {
		return "", err
	}
	return string(out), nil
}

// Verify reports whether password matches the stored encoded hash.
//
// It returns false for mismatches, malformed hashes, and over-cap inputs
// alike; the underlying comparison is constant-time for same-length guesses.
func Verify(password, encodedHash string) bool {
	if password == "" || len(password) > MaxPasswordBytes {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(encodedHash), []byte(password)) == nil
}
