package auth

import (
	"errors"

	"golang.org/x/crypto/bcrypt"
)

// MaxPasswordLength is the longest input bcrypt will hash without truncating.
const MaxPasswordLength = 72

var ErrPasswordTooLong = errors.New("password exceeds 72 bytes")

// dummyHash is compared against when the account does not exist so that a
// failed login takes about as long either way.
const dummyHash = "$2a$10$7EqJtq98hPqEX7fNZaFWoOHi6VbU5h6K9v8u5rO0m3j0h6dX5r8e"

// HashPassword creates a bcrypt hash from the given plaintext password.
func HashPassword(password string) (string, error) {
	if len(password) > MaxPasswordLength {
		return "", ErrPasswordTooLong
	}
	hashedBytes, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hashedBytes), nil
}

// VerifyPassword checks if the provided plaintext password matches the stored bcrypt hash.
func VerifyPassword(hashedPassword, providedPassword string) error {
	return bcrypt.CompareHashAndPassword([]byte(hashedPassword), []byte(providedPassword))
}

// BurnCompare runs a comparison whose result is thrown away.
func BurnCompare(providedPassword string) {
	_ = VerifyPassword(dummyHash, providedPassword)
}
