package secrets

import (
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"

	dErrors "smartration/pkg/domain-errors"
)

// Hash creates a bcrypt hash of the provided password.
func Hash(password string) (string, error) {
	if password == "" {
		return "", dErrors.New(dErrors.CodeValidation, "password cannot be empty")
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		if errors.Is(err, bcrypt.ErrPasswordTooLong) {
			return "", dErrors.New(dErrors.CodeValidation, "password is too long")
		}
		return "", fmt.Errorf("could not hash password: %w", err)
	}
	return string(hashed), nil
}

// Verify checks if a plaintext password matches a bcrypt hash.
func Verify(password, hash string) error {
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)); err != nil {
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return dErrors.New(dErrors.CodeUnauthorized, "invalid credentials")
		}
		return fmt.Errorf("could not verify password: %w", err)
	}
	return nil
}
