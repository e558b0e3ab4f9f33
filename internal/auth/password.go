// Package auth holds the credential primitives: bcrypt password hashing
// and the signed CSRF tokens used on state-mutating form posts.
package auth

import (
	"golang.org/x/crypto/bcrypt"
)

// MinPasswordLength is the minimum raw password length accepted at signup.
const MinPasswordLength = 6

// HashPassword derives a salted bcrypt hash of the raw password. The cost
// controls the work factor; values below bcrypt.MinCost fall back to
// bcrypt.DefaultCost.
func HashPassword(raw string, cost int) (string, error) {
	if cost < bcrypt.MinCost {
		cost = bcrypt.DefaultCost
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(raw), cost)
	if err != nil {
		return "", err
	}
	return string(hashed), nil
}

// CheckPassword reports whether raw matches the stored hash. A malformed
// stored hash counts as a non-match rather than an error: the caller treats
// both the same way and must not leak which one happened.
func CheckPassword(raw, storedHash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(storedHash), []byte(raw)) == nil
}
