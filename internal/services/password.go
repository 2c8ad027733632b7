package services

import (
	"errors"

	"golang.org/x/crypto/bcrypt"
)

// PasswordVerifier checks a supplied secret against a stored hash.
type PasswordVerifier interface {
	Verify(hash, secret string) bool
}

// BcryptVerifier verifies bcrypt hashes. An empty or malformed hash never
// verifies.
type BcryptVerifier struct{}

func (BcryptVerifier) Verify(hash, secret string) bool {
	if hash == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(secret)) == nil
}

// HashPassword returns the bcrypt hash of password at the given cost.
// A cost of zero selects bcrypt.DefaultCost.
func HashPassword(password string, cost int) (string, error) {
	if password == "" {
		return "", errors.New("password is required")
	}
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return "", err
	}
	return string(hashed), nil
}
