package user

import "net/mail"

// RegisterRequest represents the request to register a new account
type RegisterRequest struct {
	Email    string  `json:"email"`
	Password string  `json:"password"`
	Name     *string `json:"name,omitempty"`
}

// Validate checks the register request fields
func (r *RegisterRequest) Validate() error {
	if _, err := mail.ParseAddress(r.Email); err != nil {
		return ErrInvalidEmail
	}
	if r.Password == "" {
		return ErrPasswordRequired
	}
	return nil
}

// UpdateProfileRequest represents the request to update profile fields.
// Nil fields are left unchanged.
type UpdateProfileRequest struct {
	Name     *string `json:"name,omitempty"`
	Password *string `json:"password,omitempty"`
}

// ProfileResponse is the profile projection with event relations included
type ProfileResponse struct {
	*SafeUser
	EventsHosting     []int64 `json:"events_hosting"`
	EventsParticipant []int64 `json:"events_participant"`
}
