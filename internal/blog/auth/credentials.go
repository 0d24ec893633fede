package auth

import (
	"errors"

	"golang.org/x/crypto/bcrypt"

	apperrors "github.com/inkstream/inkstream/internal/platform/errors"
)

// HashPassword derives a bcrypt hash with a fresh salt for the password.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", apperrors.Wrap(apperrors.CodeUnknown, "hash password", err)
	}
	return string(hash), nil
}

// VerifyPassword compares a candidate password against a stored bcrypt hash.
//
// A mismatch and a malformed stored hash map to different codes: the first is
// a credential failure, the second is data corruption the caller must not
// present as a login error.
func VerifyPassword(password, encoded string) error {
	err := bcrypt.CompareHashAndPassword([]byte(encoded), []byte(password))
	if err == nil {
		return nil
	}
	if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
		return apperrors.Wrap(apperrors.CodeInvalidCredentials, "invalid credentials", err)
	}
	return apperrors.Wrap(apperrors.CodeUnknown, "verify password hash", err)
}
