package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/bookhive/bookhive/internal/auth"
	"github.com/bookhive/bookhive/internal/metrics"
)

func newUserService(store *fakeUserStore) (*UserService, *auth.TokenService) {
	tokens := auth.NewTokenService("test-secret", time.Hour)
	return NewUserService(store, tokens, metrics.NewInMemory()), tokens
}

func TestUserService_Register(t *testing.T) {
	t.Parallel()

	store := newFakeUserStore()
	svc, tokens := newUserService(store)

	result, err := svc.Register(context.Background(), "alice", "alice@example.com", "sup3rsecret")
	if err != nil {
		t.Fatalf("Register failed: %v", err)
	}

	if result.User.Username != "alice" || result.User.Email != "alice@example.com" {
		t.Errorf("unexpected public user: %+v", result.User)
	}
	if result.User.ProfileImage == "" {
		t.Error("profile image should default to a generated avatar")
	}

	// The issued token must resolve back to the new account.
	userID, err := tokens.Verify(result.Token)
	if err != nil {
		t.Fatalf("issued token failed verification: %v", err)
	}
	if userID != result.User.ID {
		t.Errorf("token resolves to %q, want %q", userID, result.User.ID)
	}

	// The stored credential is a salted digest, never the plaintext.
	stored, err := store.GetUserByID(context.Background(), result.User.ID)
	if err != nil {
		t.Fatalf("stored user not found: %v", err)
	}
	if stored.PasswordHash == "sup3rsecret" {
		t.Error("plaintext password must never be stored")
	}
	if ok, _ := auth.VerifyPassword("sup3rsecret", stored.PasswordHash); !ok {
		t.Error("stored digest should verify against the submitted password")
	}
	if ok, _ := auth.VerifyPassword("wrongpassword", stored.PasswordHash); ok {
		t.Error("stored digest should not verify against a wrong password")
	}
}

func TestUserService_Register_Validation(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		username string
		email    string
		password string
		want     error
	}{
		{"missing username", "", "a@example.com", "longenough", ErrMissingFields},
		{"missing email", "alice", "", "longenough", ErrMissingFields},
		{"missing password", "alice", "a@example.com", "", ErrMissingFields},
		{"short username", "ab", "a@example.com", "longenough", ErrUsernameTooShort},
		{"short password", "alice", "a@example.com", "short", ErrPasswordTooShort},
		// Lengths count runes, not bytes: two CJK characters are 6 bytes
		// but still too short a username.
		{"short multibyte username", "日本", "a@example.com", "longenough", ErrUsernameTooShort},
		{"multibyte username long enough", "日本語", "a@example.com", "longenough", nil},
		{"short multibyte password", "alice", "a@example.com", "あいうえお", ErrPasswordTooShort},
		{"multibyte password long enough", "alice", "a@example.com", "あいうえおか", nil},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			svc, _ := newUserService(newFakeUserStore())
			_, err := svc.Register(context.Background(), tt.username, tt.email, tt.password)
			if !errors.Is(err, tt.want) {
				t.Errorf("Register() error = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestUserService_Register_DuplicateEmail(t *testing.T) {
	t.Parallel()

	store := newFakeUserStore()
	svc, _ := newUserService(store)

	if _, err := svc.Register(context.Background(), "alice", "shared@example.com", "sup3rsecret"); err != nil {
		t.Fatalf("first registration should succeed: %v", err)
	}

	_, err := svc.Register(context.Background(), "completely-different", "shared@example.com", "sup3rsecret")
	if !errors.Is(err, ErrEmailTaken) {
		t.Errorf("second registration with same email should conflict, got: %v", err)
	}
}

func TestUserService_Register_DuplicateUsername(t *testing.T) {
	t.Parallel()

	store := newFakeUserStore()
	svc, _ := newUserService(store)

	if _, err := svc.Register(context.Background(), "alice", "one@example.com", "sup3rsecret"); err != nil {
		t.Fatalf("first registration should succeed: %v", err)
	}

	_, err := svc.Register(context.Background(), "alice", "two@example.com", "sup3rsecret")
	if !errors.Is(err, ErrUsernameTaken) {
		t.Errorf("second registration with same username should conflict, got: %v", err)
	}
}

func TestUserService_Login(t *testing.T) {
	t.Parallel()

	store := newFakeUserStore()
	svc, tokens := newUserService(store)

	reg, err := svc.Register(context.Background(), "alice", "alice@example.com", "sup3rsecret")
	if err != nil {
		t.Fatalf("Register failed: %v", err)
	}

	result, err := svc.Login(context.Background(), "alice@example.com", "sup3rsecret")
	if err != nil {
		t.Fatalf("Login failed: %v", err)
	}
	if result.User.ID != reg.User.ID {
		t.Errorf("login returned user %q, want %q", result.User.ID, reg.User.ID)
	}
	if _, err := tokens.Verify(result.Token); err != nil {
		t.Errorf("login token failed verification: %v", err)
	}
}

func TestUserService_Login_GenericFailure(t *testing.T) {
	t.Parallel()

	store := newFakeUserStore()
	svc, _ := newUserService(store)

	if _, err := svc.Register(context.Background(), "alice", "alice@example.com", "sup3rsecret"); err != nil {
		t.Fatalf("Register failed: %v", err)
	}

	// Wrong password and unknown email must be indistinguishable.
	_, wrongPw := svc.Login(context.Background(), "alice@example.com", "not-the-password")
	_, unknown := svc.Login(context.Background(), "nobody@example.com", "sup3rsecret")

	if !errors.Is(wrongPw, ErrInvalidCredentials) {
		t.Errorf("wrong password: got %v, want ErrInvalidCredentials", wrongPw)
	}
	if !errors.Is(unknown, ErrInvalidCredentials) {
		t.Errorf("unknown email: got %v, want ErrInvalidCredentials", unknown)
	}
	if wrongPw.Error() != unknown.Error() {
		t.Error("credential failures must not be distinguishable by message")
	}
}
