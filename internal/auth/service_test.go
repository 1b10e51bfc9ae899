package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/palparty/backend/internal/user"
)

type fakeCredentials struct {
	users map[string]*user.User
}

func (f fakeCredentials) GetCredentialsByEmail(ctx context.Context, email string) (*user.User, error) {
	return f.users[email], nil
}

func newTestService(t *testing.T) (*Service, time.Time) {
	t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte("hunter2"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}

	source := fakeCredentials{users: map[string]*user.User{
		"alice@example.com": {
			ID:       1,
			Email:    "alice@example.com",
			Password: string(hash),
			Role:     user.RolePerson,
		},
	}}

	svc := NewService(source, "test-secret", DefaultTokenTTL)
	now := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return now }
	return svc, now
}

func TestAuthenticate(t *testing.T) {
	svc, _ := newTestService(t)

	u, err := svc.Authenticate(context.Background(), "alice@example.com", "hunter2")
	if err != nil {
		t.Fatalf("authenticate: %v", err)
	}
	if u.Email != "alice@example.com" || u.Role != user.RolePerson {
		t.Fatalf("unexpected identity: %+v", u)
	}
}

func TestAuthenticateUniformFailure(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	_, wrongPassword := svc.Authenticate(ctx, "alice@example.com", "nope")
	_, unknownEmail := svc.Authenticate(ctx, "bob@example.com", "hunter2")

	if !errors.Is(wrongPassword, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials for wrong password, got %v", wrongPassword)
	}
	if !errors.Is(unknownEmail, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials for unknown email, got %v", unknownEmail)
	}
	// unknown email and wrong password must be indistinguishable
	if wrongPassword.Error() != unknownEmail.Error() {
		t.Fatal("failure messages differ between unknown email and wrong password")
	}
}

func TestTokenRoundTrip(t *testing.T) {
	svc, _ := newTestService(t)

	token, err := svc.IssueToken(&user.SafeUser{Email: "alice@example.com", Role: user.RolePerson})
	if err != nil {
		t.Fatalf("issue token: %v", err)
	}

	claims, err := svc.ParseToken(token)
	if err != nil {
		t.Fatalf("parse token: %v", err)
	}
	if claims.Email != "alice@example.com" || claims.Role != string(user.RolePerson) {
		t.Fatalf("unexpected claims: %+v", claims)
	}
}

func TestTokenExpiry(t *testing.T) {
	svc, now := newTestService(t)

	token, err := svc.IssueToken(&user.SafeUser{Email: "alice@example.com", Role: user.RolePerson})
	if err != nil {
		t.Fatalf("issue token: %v", err)
	}

	svc.now = func() time.Time { return now.Add(13 * time.Hour) }
	if _, err := svc.ParseToken(token); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken after expiry, got %v", err)
	}
}

func TestTokenTampering(t *testing.T) {
	svc, _ := newTestService(t)

	other := NewService(fakeCredentials{}, "other-secret", DefaultTokenTTL)
	token, err := other.IssueToken(&user.SafeUser{Email: "alice@example.com", Role: user.RoleAdmin})
	if err != nil {
		t.Fatalf("issue token: %v", err)
	}

	if _, err := svc.ParseToken(token); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken for a foreign signature, got %v", err)
	}
}
