package auth

import (
	"crypto/subtle"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

const (
	// bcryptCost is the default cost for bcrypt hashing.
	bcryptCost = 10
)

// ErrNoPassword is returned when neither a password nor a hash is configured.
var ErrNoPassword = errors.New("auth: no connection password configured")

// HashPassword generates a bcrypt hash of the password.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hash), nil
}

// ComparePassword compares a bcrypt hashed password with its plaintext version.
func ComparePassword(hashedPassword, password string) error {
	return bcrypt.CompareHashAndPassword([]byte(hashedPassword), []byte(password))
}

// Verifier checks the shared connection password sent with PASS.
type Verifier struct {
	plain []byte
	hash  string
}

// NewVerifier prefers hash when both are set. hash must be a bcrypt hash.
func NewVerifier(password, hash string) (*Verifier, error) {
	hash = strings.TrimSpace(hash)
	switch {
	case hash != "":
		if _, err := bcrypt.Cost([]byte(hash)); err != nil {
			return nil, fmt.Errorf("password_hash: %w", err)
		}
		return &Verifier{hash: hash}, nil
	case password != "":
		return &Verifier{plain: []byte(password)}, nil
	default:
		return nil, ErrNoPassword
	}
}

// Verify reports whether candidate matches the configured password.
func (v *Verifier) Verify(candidate string) bool {
	if v.hash != "" {
		return ComparePassword(v.hash, candidate) == nil
	}
	return subtle.ConstantTimeCompare(v.plain, []byte(candidate)) == 1
}
