package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/palparty/backend/internal/user"
	"github.com/palparty/backend/pkg/middleware"
)

// Common errors
var (
	// ErrInvalidCredentials is returned for unknown emails and wrong
	// passwords alike, so callers cannot tell which one failed
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrInvalidToken       = errors.New("invalid or expired token")
)

// DefaultTokenTTL is the session token lifetime used when none is configured
const DefaultTokenTTL = 12 * time.Hour

// CredentialSource is the single store path that exposes password hashes
type CredentialSource interface {
	GetCredentialsByEmail(ctx context.Context, email string) (*user.User, error)
}

// Service verifies credentials and issues signed session tokens
type Service struct {
	users  CredentialSource
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewService creates a new credential service
func NewService(users CredentialSource, secret string, ttl time.Duration) *Service {
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}
	return &Service{
		users:  users,
		secret: []byte(secret),
		ttl:    ttl,
		now:    time.Now,
	}
}

// Authenticate verifies an email/password pair and returns the password-free
// user on success
func (s *Service) Authenticate(ctx context.Context, email, password string) (*user.SafeUser, error) {
	u, err := s.users.GetCredentialsByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(u.Password), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	return u.Safe(), nil
}

// IssueToken signs a session token carrying the user's email and role
func (s *Service) IssueToken(u *user.SafeUser) (string, error) {
	claims := jwt.MapClaims{
		"email": u.Email,
		"role":  string(u.Role),
		"exp":   s.now().Add(s.ttl).Unix(),
		"iat":   s.now().Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

// ParseToken validates a session token and extracts its claims
func (s *Service) ParseToken(tokenString string) (*middleware.Claims, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.secret, nil
	}, jwt.WithTimeFunc(func() time.Time { return s.now() }))
	if err != nil || !token.Valid {
		return nil, ErrInvalidToken
	}

	mapClaims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, ErrInvalidToken
	}

	email, _ := mapClaims["email"].(string)
	role, _ := mapClaims["role"].(string)
	if email == "" || !user.Role(role).Valid() {
		return nil, ErrInvalidToken
	}

	return &middleware.Claims{Email: email, Role: role}, nil
}
