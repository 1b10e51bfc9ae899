package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/palparty/backend/pkg/response"
)

// ContextKey is a custom type for context keys to avoid collisions
type ContextKey string

// UserKey is the context key for the authenticated caller
const UserKey ContextKey = "user"

// Claims is the identity payload carried by a validated session token
type Claims struct {
	Email string
	Role  string
}

// Principal is the authenticated caller attached to the request context.
// It is deliberately a local shape so the middleware does not depend on
// any feature package.
type Principal struct {
	ID    int64
	Email string
	Name  *string
	Role  string
}

// TokenParser validates session tokens; implemented by the auth service
type TokenParser interface {
	ParseToken(token string) (*Claims, error)
}

// PrincipalSource resolves a token identity to the caller's account record
type PrincipalSource interface {
	PrincipalByEmail(ctx context.Context, email string) (*Principal, error)
}

// Authenticator validates the bearer token and attaches the caller's
// account record to the request context
func Authenticator(tokens TokenParser, principals PrincipalSource) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				response.Unauthorized(w, "Authorization header required")
				return
			}

			parts := strings.Split(authHeader, " ")
			if len(parts) != 2 || parts[0] != "Bearer" {
				response.Unauthorized(w, "Invalid authorization header format")
				return
			}

			claims, err := tokens.ParseToken(parts[1])
			if err != nil {
				response.Unauthorized(w, "Invalid or expired token")
				return
			}

			caller, err := principals.PrincipalByEmail(r.Context(), claims.Email)
			if err != nil || caller == nil {
				response.Unauthorized(w, "Can't fetch user information")
				return
			}

			ctx := context.WithValue(r.Context(), UserKey, caller)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireRole gates a route on an exact role match. The check is
// deliberately non-hierarchical: ADMIN does not imply PERSON.
func RequireRole(role string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			caller, ok := GetUser(r.Context())
			if !ok {
				response.Unauthorized(w, "Can't fetch user information")
				return
			}
			if caller.Role != role {
				response.Forbidden(w, "Insufficient role")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// GetUser extracts the authenticated caller from the request context
func GetUser(ctx context.Context) (*Principal, bool) {
	caller, ok := ctx.Value(UserKey).(*Principal)
	return caller, ok && caller != nil
}
