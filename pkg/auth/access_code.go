package auth

import (
	"crypto/subtle"
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

// BcryptCost for hashing the shared admin access code
const BcryptCost = 12

// IsBcryptHash reports whether s looks like a bcrypt hash rather than a
// plain access code.
func IsBcryptHash(s string) bool {
	return strings.HasPrefix(s, "$2a$") || strings.HasPrefix(s, "$2b$") || strings.HasPrefix(s, "$2y$")
}

// HashAccessCode produces a value that can be put in ADMIN_ACCESS_CODE
// instead of the plain code.
func HashAccessCode(code string) (string, error) {
	if code == "" {
		return "", fmt.Errorf("access code cannot be empty")
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(code), BcryptCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash access code: %w", err)
	}
	return string(hashed), nil
}

// CompareAccessCode checks provided against the configured value, which is
// either a bcrypt hash or the plain code. Plain codes are compared in
// constant time.
func CompareAccessCode(configured, provided string) bool {
	if configured == "" || provided == "" {
		return false
	}
	if IsBcryptHash(configured) {
		return bcrypt.CompareHashAndPassword([]byte(configured), []byte(provided)) == nil
	}
	return subtle.ConstantTimeCompare([]byte(configured), []byte(provided)) == 1
}
