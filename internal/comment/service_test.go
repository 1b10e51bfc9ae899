package comment

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/palparty/backend/internal/user"
)

type fakeStore struct {
	comments map[int64]*Comment
	nextID   int64
}

func newFakeStore() *fakeStore {
	return &fakeStore{comments: make(map[int64]*Comment)}
}

func (s *fakeStore) Create(ctx context.Context, authorID, eventID int64, content string) (*Comment, error) {
	s.nextID++
	c := &Comment{ID: s.nextID, AuthorID: authorID, EventID: eventID, Content: content}
	s.comments[c.ID] = c
	return c, nil
}

func (s *fakeStore) GetByID(ctx context.Context, id int64) (*Comment, error) {
	c, ok := s.comments[id]
	if !ok {
		return nil, nil
	}
	return c, nil
}

func (s *fakeStore) ListByEvent(ctx context.Context, eventID int64) ([]*Comment, error) {
	var comments []*Comment
	for _, c := range s.comments {
		if c.EventID == eventID {
			comments = append(comments, c)
		}
	}
	return comments, nil
}

func (s *fakeStore) Delete(ctx context.Context, id int64) error {
	if _, ok := s.comments[id]; !ok {
		return ErrCommentNotFound
	}
	delete(s.comments, id)
	return nil
}

type fakeEvents struct {
	existing map[int64]bool
}

func (f fakeEvents) Exists(ctx context.Context, eventID int64) (bool, error) {
	return f.existing[eventID], nil
}

func newTestService() (*Service, *fakeStore) {
	store := newFakeStore()
	return NewService(store, fakeEvents{existing: map[int64]bool{1: true}}), store
}

func TestCreateOnMissingEvent(t *testing.T) {
	svc, _ := newTestService()

	_, err := svc.Create(context.Background(), 10, 99, "hello")
	if !errors.Is(err, ErrEventNotFound) {
		t.Fatalf("expected ErrEventNotFound, got %v", err)
	}
}

func TestCreateValidatesContent(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	if _, err := svc.Create(ctx, 10, 1, ""); !errors.Is(err, ErrEmptyContent) {
		t.Fatalf("expected ErrEmptyContent, got %v", err)
	}

	long := strings.Repeat("x", MaxContentLength+1)
	if _, err := svc.Create(ctx, 10, 1, long); !errors.Is(err, ErrContentTooLong) {
		t.Fatalf("expected ErrContentTooLong, got %v", err)
	}
}

func TestCreateDefaults(t *testing.T) {
	svc, _ := newTestService()

	created, err := svc.Create(context.Background(), 10, 1, "see you there")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if created.Reactions != 0 {
		t.Fatalf("expected zero reactions, got %d", created.Reactions)
	}
}

func TestDeleteAuthorization(t *testing.T) {
	tests := []struct {
		name     string
		callerID int64
		role     user.Role
		wantErr  error
	}{
		{"author", 10, user.RolePerson, nil},
		{"admin", 99, user.RoleAdmin, nil},
		{"other person", 99, user.RolePerson, ErrNotCommentAuthor},
		{"organization", 99, user.RoleOrganization, ErrNotCommentAuthor},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, store := newTestService()
			ctx := context.Background()
			created, err := svc.Create(ctx, 10, 1, "mine")
			if err != nil {
				t.Fatalf("create: %v", err)
			}

			err = svc.Delete(ctx, tt.callerID, tt.role, created.ID)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("expected %v, got %v", tt.wantErr, err)
			}

			_, remains := store.comments[created.ID]
			if tt.wantErr == nil && remains {
				t.Fatal("expected the comment to be gone")
			}
			if tt.wantErr != nil && !remains {
				t.Fatal("expected the comment to survive")
			}
		})
	}
}

func TestDeleteMissingComment(t *testing.T) {
	svc, _ := newTestService()

	err := svc.Delete(context.Background(), 10, user.RoleAdmin, 42)
	if !errors.Is(err, ErrCommentNotFound) {
		t.Fatalf("expected ErrCommentNotFound, got %v", err)
	}
}

func TestGetByIDMissing(t *testing.T) {
	svc, _ := newTestService()

	_, err := svc.GetByID(context.Background(), 42)
	if !errors.Is(err, ErrCommentNotFound) {
		t.Fatalf("expected ErrCommentNotFound, got %v", err)
	}
}
