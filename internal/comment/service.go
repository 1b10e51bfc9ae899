package comment

import (
	"context"
	"errors"

	"github.com/palparty/backend/internal/user"
)

// MaxContentLength bounds comment content
const MaxContentLength = 200

// Common errors
var (
	ErrCommentNotFound  = errors.New("comment with provided id does not exist")
	ErrEventNotFound    = errors.New("event with provided id does not exist")
	ErrNotCommentAuthor = errors.New("user is not allowed to delete the comment")
	ErrEmptyContent     = errors.New("comment content is required")
	ErrContentTooLong   = errors.New("comment content is too long")
)

// Store is the persistence interface the service depends on; implemented
// by *Repository
type Store interface {
	Create(ctx context.Context, authorID, eventID int64, content string) (*Comment, error)
	GetByID(ctx context.Context, id int64) (*Comment, error)
	ListByEvent(ctx context.Context, eventID int64) ([]*Comment, error)
	Delete(ctx context.Context, id int64) error
}

// EventSource answers whether an event exists; implemented by the event
// service
type EventSource interface {
	Exists(ctx context.Context, eventID int64) (bool, error)
}

// Service handles comment business logic
type Service struct {
	repo   Store
	events EventSource
}

// NewService creates a new comment service
func NewService(repo Store, events EventSource) *Service {
	return &Service{repo: repo, events: events}
}

// Create adds a comment to an existing event
func (s *Service) Create(ctx context.Context, authorID, eventID int64, content string) (*Comment, error) {
	if content == "" {
		return nil, ErrEmptyContent
	}
	if len(content) > MaxContentLength {
		return nil, ErrContentTooLong
	}

	exists, err := s.events.Exists(ctx, eventID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, ErrEventNotFound
	}

	return s.repo.Create(ctx, authorID, eventID, content)
}

// GetByID retrieves a comment by its ID
func (s *Service) GetByID(ctx context.Context, id int64) (*Comment, error) {
	c, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if c == nil {
		return nil, ErrCommentNotFound
	}
	return c, nil
}

// ListByEvent retrieves all comments on an event
func (s *Service) ListByEvent(ctx context.Context, eventID int64) ([]*Comment, error) {
	return s.repo.ListByEvent(ctx, eventID)
}

// Delete removes a comment. Only the author or an ADMIN may delete it.
func (s *Service) Delete(ctx context.Context, callerID int64, callerRole user.Role, id int64) error {
	c, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if c == nil {
		return ErrCommentNotFound
	}

	if c.AuthorID != callerID && callerRole != user.RoleAdmin {
		return ErrNotCommentAuthor
	}

	return s.repo.Delete(ctx, id)
}
