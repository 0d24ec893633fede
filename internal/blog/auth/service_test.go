package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/inkstream/inkstream/internal/blog/storage"
	"github.com/inkstream/inkstream/internal/blog/user"
	apperrors "github.com/inkstream/inkstream/internal/platform/errors"
)

type fakeUserStore struct {
	byUsername map[string]user.User
	emails     map[string]struct{}
	nextID     int64

	createErr error
	getErr    error
}

func newFakeUserStore() *fakeUserStore {
	return &fakeUserStore{
		byUsername: make(map[string]user.User),
		emails:     make(map[string]struct{}),
	}
}

func (s *fakeUserStore) CreateUser(_ context.Context, username, email, passwordHash string) (user.User, error) {
	if s.createErr != nil {
		return user.User{}, s.createErr
	}
	if _, ok := s.byUsername[username]; ok {
		return user.User{}, storage.ErrAlreadyExists
	}
	if _, ok := s.emails[email]; ok {
		return user.User{}, storage.ErrAlreadyExists
	}
	s.nextID++
	created := user.User{
		ID:           s.nextID,
		Username:     username,
		Email:        email,
		PasswordHash: passwordHash,
		CreatedAt:    time.Date(2026, time.March, 1, 12, 0, 0, 0, time.UTC),
	}
	s.byUsername[username] = created
	s.emails[email] = struct{}{}
	return created, nil
}

func (s *fakeUserStore) GetUserByUsername(_ context.Context, username string) (user.User, error) {
	if s.getErr != nil {
		return user.User{}, s.getErr
	}
	found, ok := s.byUsername[username]
	if !ok {
		return user.User{}, storage.ErrNotFound
	}
	return found, nil
}

func newTestService(store *fakeUserStore) *Service {
	return NewService(store, NewTokenService("test-secret"))
}

func TestRegister_ReturnsUserAndToken(t *testing.T) {
	svc := newTestService(newFakeUserStore())

	created, token, err := svc.Register(context.Background(), "alice", "alice@example.com", "hunter2")
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if created.ID == 0 {
		t.Fatal("expected assigned user id")
	}
	if created.Username != "alice" || created.Email != "alice@example.com" {
		t.Fatalf("unexpected user: %+v", created)
	}
	if created.PasswordHash == "" || created.PasswordHash == "hunter2" {
		t.Fatal("expected stored hash distinct from raw password")
	}

	claims, err := svc.tokens.Verify(token)
	if err != nil {
		t.Fatalf("verify issued token: %v", err)
	}
	if claims.UserID != created.ID || claims.Username != "alice" {
		t.Fatalf("unexpected claims: %+v", claims)
	}
}

func TestRegister_TrimsUsernameAndEmail(t *testing.T) {
	svc := newTestService(newFakeUserStore())

	created, _, err := svc.Register(context.Background(), "  alice ", " alice@example.com ", "hunter2")
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if created.Username != "alice" || created.Email != "alice@example.com" {
		t.Fatalf("unexpected user: %+v", created)
	}
}

func TestRegister_MissingFields(t *testing.T) {
	tests := []struct {
		name     string
		username string
		email    string
		password string
		field    string
	}{
		{name: "missing username", email: "a@example.com", password: "pw", field: "username"},
		{name: "blank username", username: "   ", email: "a@example.com", password: "pw", field: "username"},
		{name: "missing email", username: "alice", password: "pw", field: "email"},
		{name: "missing password", username: "alice", email: "a@example.com", field: "password"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			svc := newTestService(newFakeUserStore())
			_, _, err := svc.Register(context.Background(), tc.username, tc.email, tc.password)
			if !apperrors.IsCode(err, apperrors.CodeInvalidArgument) {
				t.Fatalf("code = %v, want %v", apperrors.GetCode(err), apperrors.CodeInvalidArgument)
			}
			if got := apperrors.GetMetadata(err)["Field"]; got != tc.field {
				t.Fatalf("field = %q, want %q", got, tc.field)
			}
		})
	}
}

func TestRegister_DuplicateAccount(t *testing.T) {
	store := newFakeUserStore()
	svc := newTestService(store)

	if _, _, err := svc.Register(context.Background(), "alice", "alice@example.com", "hunter2"); err != nil {
		t.Fatalf("first register: %v", err)
	}

	_, _, err := svc.Register(context.Background(), "alice", "other@example.com", "hunter2")
	if !apperrors.IsCode(err, apperrors.CodeUserAlreadyExists) {
		t.Fatalf("duplicate username: code = %v, want %v", apperrors.GetCode(err), apperrors.CodeUserAlreadyExists)
	}

	_, _, err = svc.Register(context.Background(), "bob", "alice@example.com", "hunter2")
	if !apperrors.IsCode(err, apperrors.CodeUserAlreadyExists) {
		t.Fatalf("duplicate email: code = %v, want %v", apperrors.GetCode(err), apperrors.CodeUserAlreadyExists)
	}
}

func TestRegister_HashFailurePropagates(t *testing.T) {
	svc := newTestService(newFakeUserStore())
	svc.hashPassword = func(string) (string, error) {
		return "", apperrors.New(apperrors.CodeUnknown, "hash password")
	}

	_, _, err := svc.Register(context.Background(), "alice", "alice@example.com", "hunter2")
	if !apperrors.IsCode(err, apperrors.CodeUnknown) {
		t.Fatalf("code = %v, want %v", apperrors.GetCode(err), apperrors.CodeUnknown)
	}
}

func TestLogin_Success(t *testing.T) {
	store := newFakeUserStore()
	svc := newTestService(store)

	registered, _, err := svc.Register(context.Background(), "alice", "alice@example.com", "hunter2")
	if err != nil {
		t.Fatalf("register: %v", err)
	}

	found, token, err := svc.Login(context.Background(), "alice", "hunter2")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if found.ID != registered.ID {
		t.Fatalf("user id = %d, want %d", found.ID, registered.ID)
	}

	claims, err := svc.tokens.Verify(token)
	if err != nil {
		t.Fatalf("verify issued token: %v", err)
	}
	if claims.UserID != registered.ID {
		t.Fatalf("claims user id = %d, want %d", claims.UserID, registered.ID)
	}
}

func TestLogin_UnknownUserMatchesWrongPassword(t *testing.T) {
	store := newFakeUserStore()
	svc := newTestService(store)

	if _, _, err := svc.Register(context.Background(), "alice", "alice@example.com", "hunter2"); err != nil {
		t.Fatalf("register: %v", err)
	}

	_, _, unknownErr := svc.Login(context.Background(), "nobody", "hunter2")
	_, _, wrongErr := svc.Login(context.Background(), "alice", "wrong")

	if !apperrors.IsCode(unknownErr, apperrors.CodeInvalidCredentials) {
		t.Fatalf("unknown user: code = %v, want %v", apperrors.GetCode(unknownErr), apperrors.CodeInvalidCredentials)
	}
	if !apperrors.IsCode(wrongErr, apperrors.CodeInvalidCredentials) {
		t.Fatalf("wrong password: code = %v, want %v", apperrors.GetCode(wrongErr), apperrors.CodeInvalidCredentials)
	}
}

func TestLogin_CorruptHashIsNotCredentialFailure(t *testing.T) {
	store := newFakeUserStore()
	store.byUsername["alice"] = user.User{ID: 1, Username: "alice", PasswordHash: "not-a-bcrypt-hash"}
	svc := newTestService(store)

	_, _, err := svc.Login(context.Background(), "alice", "hunter2")
	if err == nil {
		t.Fatal("expected error for corrupt stored hash")
	}
	if apperrors.IsCode(err, apperrors.CodeInvalidCredentials) {
		t.Fatal("corrupt stored hash must not present as a credential failure")
	}
}

func TestLogin_StoreFailurePropagates(t *testing.T) {
	store := newFakeUserStore()
	store.getErr = errors.New("disk on fire")
	svc := newTestService(store)

	_, _, err := svc.Login(context.Background(), "alice", "hunter2")
	if err == nil || apperrors.IsCode(err, apperrors.CodeInvalidCredentials) {
		t.Fatalf("store failure must surface untranslated, got %v", err)
	}
}
