// Package auth provides account registration and session login for the blog.
package auth

import (
	"context"
	"errors"
	"strings"

	"github.com/inkstream/inkstream/internal/blog/storage"
	"github.com/inkstream/inkstream/internal/blog/user"
	apperrors "github.com/inkstream/inkstream/internal/platform/errors"
)

// UserStore persists account records for registration and login.
type UserStore interface {
	CreateUser(ctx context.Context, username, email, passwordHash string) (user.User, error)
	GetUserByUsername(ctx context.Context, username string) (user.User, error)
}

// Service implements registration and login over a user store.
//
// Both transport adapters share one Service instance so credential and
// uniqueness rules are enforced in exactly one place.
type Service struct {
	users  UserStore
	tokens *TokenService

	hashPassword   func(password string) (string, error)
	verifyPassword func(password, encoded string) error
}

// NewService builds an auth service over the provided store and token signer.
func NewService(users UserStore, tokens *TokenService) *Service {
	return &Service{
		users:          users,
		tokens:         tokens,
		hashPassword:   HashPassword,
		verifyPassword: VerifyPassword,
	}
}

// Register creates an account and returns it with a fresh session token.
func (s *Service) Register(ctx context.Context, username, email, password string) (user.User, string, error) {
	if s == nil || s.users == nil || s.tokens == nil {
		return user.User{}, "", apperrors.New(apperrors.CodeUnknown, "auth service is not configured")
	}

	username = strings.TrimSpace(username)
	email = strings.TrimSpace(email)
	if username == "" {
		return user.User{}, "", requiredField("username")
	}
	if email == "" {
		return user.User{}, "", requiredField("email")
	}
	if password == "" {
		return user.User{}, "", requiredField("password")
	}

	hash, err := s.hashPassword(password)
	if err != nil {
		return user.User{}, "", err
	}

	created, err := s.users.CreateUser(ctx, username, email, hash)
	if err != nil {
		if errors.Is(err, storage.ErrAlreadyExists) {
			return user.User{}, "", apperrors.WrapWithMetadata(
				apperrors.CodeUserAlreadyExists,
				"username or email is taken",
				map[string]string{"Username": username},
				err,
			)
		}
		return user.User{}, "", err
	}

	token, err := s.tokens.Issue(created.ID, created.Username)
	if err != nil {
		return user.User{}, "", err
	}
	return created, token, nil
}

// Login verifies credentials and returns the account with a fresh token.
//
// A missing account and a wrong password carry the same code so login
// failures cannot be used to probe which usernames exist.
func (s *Service) Login(ctx context.Context, username, password string) (user.User, string, error) {
	if s == nil || s.users == nil || s.tokens == nil {
		return user.User{}, "", apperrors.New(apperrors.CodeUnknown, "auth service is not configured")
	}

	username = strings.TrimSpace(username)
	if username == "" {
		return user.User{}, "", requiredField("username")
	}
	if password == "" {
		return user.User{}, "", requiredField("password")
	}

	found, err := s.users.GetUserByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			// Same code and message as a password mismatch; only the wrapped
			// cause differs, and that never leaves the process.
			return user.User{}, "", apperrors.Wrap(apperrors.CodeInvalidCredentials, "invalid credentials", err)
		}
		return user.User{}, "", err
	}

	if err := s.verifyPassword(password, found.PasswordHash); err != nil {
		return user.User{}, "", err
	}

	token, err := s.tokens.Issue(found.ID, found.Username)
	if err != nil {
		return user.User{}, "", err
	}
	return found, token, nil
}

// requiredField reports a missing required input field.
func requiredField(name string) error {
	return apperrors.WithMetadata(
		apperrors.CodeInvalidArgument,
		name+" is required",
		map[string]string{"Field": name},
	)
}
