package user

import "time"

// Role is the access level attached to a user account
type Role string

const (
	RolePerson       Role = "PERSON"
	RoleOrganization Role = "ORGANIZATION"
	RoleAdmin        Role = "ADMIN"
)

// Valid reports whether r is a known role
func (r Role) Valid() bool {
	switch r {
	case RolePerson, RoleOrganization, RoleAdmin:
		return true
	}
	return false
}

// User is the full identity record including the password hash. It exists
// only on the credential-verification path; everything else works with
// SafeUser.
type User struct {
	ID         int64
	Email      string
	Password   string
	Name       *string
	Role       Role
	ImageURL   *string
	TelegramID *int64
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// SafeUser is the password-free projection returned across every boundary
type SafeUser struct {
	ID         int64     `json:"id"`
	Email      string    `json:"email"`
	Name       *string   `json:"name,omitempty"`
	Role       Role      `json:"role"`
	ImageURL   *string   `json:"image_url,omitempty"`
	TelegramID *int64    `json:"telegram_id,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

// Safe strips the password hash from a full record
func (u *User) Safe() *SafeUser {
	return &SafeUser{
		ID:         u.ID,
		Email:      u.Email,
		Name:       u.Name,
		Role:       u.Role,
		ImageURL:   u.ImageURL,
		TelegramID: u.TelegramID,
		CreatedAt:  u.CreatedAt,
	}
}
