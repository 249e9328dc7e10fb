// Package password provides password hashing and random token utilities.
package password

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"

	"golang.org/x/crypto/bcrypt"
)

// Hasher hashes and verifies passwords.
type Hasher interface {
	// Hash returns a hashed representation of the password.
	Hash(password string) (string, error)
	// Verify checks if a password matches the given hash. Returns nil on match.
	Verify(password, hash string) error
}

// BcryptHasher implements Hasher using bcrypt.
type BcryptHasher struct {
	cost int
}

// NewBcryptHasher creates a bcrypt-based password hasher with the default cost.
func NewBcryptHasher() *BcryptHasher {
	return &BcryptHasher{cost: 12}
}

func (h *BcryptHasher) Hash(password string) (string, error) {
	if len(password) < 8 {
		return "", errors.New("password: minimum length is 8 characters")
	}
	if len(password) > 72 {
		return "", errors.New("password: maximum length is 72 characters (bcrypt limit)")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), h.cost)
	if err != nil {
		return "", fmt.Errorf("password: hash: %w", err)
	}
	return string(hash), nil
}

func (h *BcryptHasher) Verify(password, hash string) error {
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)); err != nil {
		return errors.New("password: mismatch")
	}
	return nil
}

// GenerateToken creates a cryptographically secure random token of the given
// byte length, hex encoded. Used for opaque refresh tokens.
func GenerateToken(length int) (string, error) {
	b := make([]byte, length)
	if _, err := io.ReadFull(rand.Reader, b); err != nil {
		return "", fmt.Errorf("password: generate token: %w", err)
	}
	return hex.EncodeToString(b), nil
}

// HashSHA256 returns the SHA-256 hex digest of the input. Refresh tokens are
// stored hashed, never raw.
func HashSHA256(input string) string {
	h := sha256.Sum256([]byte(input))
	return hex.EncodeToString(h[:])
}
