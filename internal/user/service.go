package user

import (
	"context"
	"errors"
	"log/slog"

	"golang.org/x/crypto/bcrypt"

	"github.com/palparty/backend/internal/media"
	"github.com/palparty/backend/pkg/middleware"
)

// Common errors
var (
	ErrUserNotFound          = errors.New("user not found")
	ErrEmailAlreadyInUse     = errors.New("user with email address already exists")
	ErrInvalidEmail          = errors.New("a valid email address is required")
	ErrPasswordRequired      = errors.New("password is required")
	ErrTelegramAlreadyLinked = errors.New("telegram account is already linked")
	ErrUserHostingEvents     = errors.New("account still hosts events and cannot be deleted")
)

// Store is the persistence interface the service depends on; implemented
// by *Repository
type Store interface {
	Create(ctx context.Context, u *User) (*SafeUser, error)
	GetByID(ctx context.Context, id int64) (*SafeUser, error)
	GetByEmail(ctx context.Context, email string) (*SafeUser, error)
	GetByTelegramID(ctx context.Context, telegramID int64) (*SafeUser, error)
	Update(ctx context.Context, id int64, name, password, imageURL *string, telegramID *int64) (*SafeUser, error)
	GetEventIDs(ctx context.Context, userID int64) (hosting, participating []int64, err error)
	Delete(ctx context.Context, id int64) error
}

// Service handles user business logic
type Service struct {
	repo  Store
	media media.Storage
}

// NewService creates a new user service
func NewService(repo Store, storage media.Storage) *Service {
	return &Service{repo: repo, media: storage}
}

// Register creates a new PERSON account. The password is hashed before it
// reaches the store; the returned projection never carries it.
func (s *Service) Register(ctx context.Context, req *RegisterRequest, image []byte) (*SafeUser, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	existing, err := s.repo.GetByEmail(ctx, req.Email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, ErrEmailAlreadyInUse
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	u := &User{
		Email:    req.Email,
		Password: string(hash),
		Name:     req.Name,
		Role:     RolePerson,
	}

	if len(image) > 0 {
		url, err := s.media.Upload(ctx, image)
		if err != nil {
			return nil, err
		}
		slog.Info("profile image uploaded", "url", url)
		u.ImageURL = &url
	}

	return s.repo.Create(ctx, u)
}

// GetByID retrieves a user by their ID
func (s *Service) GetByID(ctx context.Context, id int64) (*SafeUser, error) {
	u, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, ErrUserNotFound
	}
	return u, nil
}

// GetByEmail retrieves a user by their email
func (s *Service) GetByEmail(ctx context.Context, email string) (*SafeUser, error) {
	u, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, ErrUserNotFound
	}
	return u, nil
}

// PrincipalByEmail resolves a token identity for the request middleware.
// A missing account returns nil without an error; the middleware treats
// both the same way.
func (s *Service) PrincipalByEmail(ctx context.Context, email string) (*middleware.Principal, error) {
	u, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, nil
	}
	return &middleware.Principal{
		ID:    u.ID,
		Email: u.Email,
		Name:  u.Name,
		Role:  string(u.Role),
	}, nil
}

// GetByTelegramID retrieves a user by their linked telegram account
func (s *Service) GetByTelegramID(ctx context.Context, telegramID int64) (*SafeUser, error) {
	u, err := s.repo.GetByTelegramID(ctx, telegramID)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, ErrUserNotFound
	}
	return u, nil
}

// Profile retrieves a user together with the ids of events they host and
// participate in
func (s *Service) Profile(ctx context.Context, id int64) (*ProfileResponse, error) {
	u, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	hosting, participating, err := s.repo.GetEventIDs(ctx, id)
	if err != nil {
		return nil, err
	}

	return &ProfileResponse{
		SafeUser:          u,
		EventsHosting:     hosting,
		EventsParticipant: participating,
	}, nil
}

// UpdateProfile modifies name, password and/or profile image. A new
// password is re-hashed; a new image replaces the old one in media storage.
func (s *Service) UpdateProfile(ctx context.Context, id int64, req *UpdateProfileRequest, image []byte) (*SafeUser, error) {
	current, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if current == nil {
		return nil, ErrUserNotFound
	}

	var password *string
	if req != nil && req.Password != nil {
		hash, err := bcrypt.GenerateFromPassword([]byte(*req.Password), bcrypt.DefaultCost)
		if err != nil {
			return nil, err
		}
		hashed := string(hash)
		password = &hashed
	}

	var imageURL *string
	if len(image) > 0 {
		oldURL := ""
		if current.ImageURL != nil {
			oldURL = *current.ImageURL
		}
		url, err := s.media.Replace(ctx, image, oldURL)
		if err != nil {
			return nil, err
		}
		imageURL = &url
	}

	var name *string
	if req != nil {
		name = req.Name
	}

	updated, err := s.repo.Update(ctx, id, name, password, imageURL, nil)
	if err != nil {
		return nil, err
	}
	if updated == nil {
		return nil, ErrUserNotFound
	}
	return updated, nil
}

// LinkTelegram stores the external messenger id on the user account
func (s *Service) LinkTelegram(ctx context.Context, userID, telegramID int64) error {
	updated, err := s.repo.Update(ctx, userID, nil, nil, nil, &telegramID)
	if err != nil {
		return err
	}
	if updated == nil {
		return ErrUserNotFound
	}
	return nil
}

// DeleteAccount removes the user record
func (s *Service) DeleteAccount(ctx context.Context, id int64) error {
	return s.repo.Delete(ctx, id)
}
