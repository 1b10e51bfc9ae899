package auth

import "github.com/palparty/backend/internal/user"

// LoginRequest represents the request to authenticate
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// TokenResponse carries the issued session token
type TokenResponse struct {
	AccessToken string `json:"access_token"`
}

// RegisterResponse is the created account projection
type RegisterResponse struct {
	User *user.SafeUser `json:"user"`
}
