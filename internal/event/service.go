package event

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/lib/pq"

	"github.com/palparty/backend/internal/comment"
	"github.com/palparty/backend/internal/media"
)

const (
	// GraceInterval is the minimum lead time between event creation and
	// its scheduled start
	GraceInterval = 10 * time.Second
	// ActiveWindow is how long an event stays ACTIVE before passing
	ActiveWindow = 24 * time.Hour
	// MaxAttachments bounds the number of images per event
	MaxAttachments = 3
)

// Common errors
var (
	ErrEventNotFound       = errors.New("event with provided id was not found")
	ErrDateInPast          = errors.New("event date must be in the future")
	ErrDateRequired        = errors.New("event date is required")
	ErrNameRequired        = errors.New("event name is required")
	ErrNameTooLong         = errors.New("event name is too long")
	ErrDescriptionTooLong  = errors.New("event description is too long")
	ErrTooManyAttachments  = errors.New("too many attachments")
	ErrInvalidStatusFilter = errors.New("invalid value found in status filter")
	ErrAlreadyHosting      = errors.New("user is already hosting the event")
	ErrNotAccepting        = errors.New("event is not accepting participants")
	ErrAlreadyJoined       = errors.New("user already joined event")
	ErrNotParticipant      = errors.New("user is not a participant of the event")
	ErrNotHost             = errors.New("user is not the host of the event")
	ErrRegistrationClosed  = errors.New("event registration is already closed")
)

// Store is the persistence interface the service depends on; implemented
// by *Repository
type Store interface {
	Create(ctx context.Context, e *Event) (*Event, error)
	GetByID(ctx context.Context, id int64) (*Event, error)
	List(ctx context.Context, f ListFilter, limit, offset int) ([]*Event, int, error)
	ListPending(ctx context.Context) ([]*Event, error)
	UpdateStatus(ctx context.Context, id int64, status Status) error
	UpdateGroupLink(ctx context.Context, id int64, link string) error
	HostedWithoutGroupLink(ctx context.Context, userID int64) ([]*Event, error)
	GetParticipants(ctx context.Context, eventID int64) ([]*Participant, error)
	GetParticipant(ctx context.Context, eventID, userID int64) (*Participant, error)
	AddParticipant(ctx context.Context, eventID, userID int64) (*Participant, error)
	RemoveParticipant(ctx context.Context, eventID, userID int64) error
}

// Schedule registers keyed future callbacks; implemented by
// scheduler.Scheduler
type Schedule interface {
	ScheduleAt(key string, at time.Time, fn func())
	Cancel(key string) bool
}

// CommentLister provides the comments embedded in event details
type CommentLister interface {
	ListByEvent(ctx context.Context, eventID int64) ([]*comment.Comment, error)
}

// Service owns the event lifecycle and membership rules
type Service struct {
	repo     Store
	comments CommentLister
	sched    Schedule
	media    media.Storage
	now      func() time.Time
}

// NewService creates a new event service
func NewService(repo Store, comments CommentLister, sched Schedule, storage media.Storage) *Service {
	return &Service{
		repo:     repo,
		comments: comments,
		sched:    sched,
		media:    storage,
		now:      time.Now,
	}
}

func activationKey(id int64) string { return fmt.Sprintf("event:%d:activate", id) }
func passKey(id int64) string       { return fmt.Sprintf("event:%d:pass", id) }

// Create validates and persists a new WAITING event hosted by hostID and
// registers its two lifecycle timers
func (s *Service) Create(ctx context.Context, hostID int64, req *CreateEventRequest, attachments [][]byte) (*Event, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	if req.Date.Add(GraceInterval).Before(s.now()) {
		return nil, ErrDateInPast
	}
	if len(attachments) > MaxAttachments {
		return nil, ErrTooManyAttachments
	}

	e := &Event{
		Name:             req.Name,
		Description:      req.Description,
		ShortDescription: req.ShortDescription,
		Status:           StatusWaiting,
		HostID:           hostID,
		Date:             req.Date,
		// a nil array would reach the store as SQL NULL; the column is NOT NULL
		Images: pq.StringArray{},
	}

	for _, data := range attachments {
		url, err := s.media.Upload(ctx, data)
		if err != nil {
			return nil, err
		}
		e.Images = append(e.Images, url)
	}

	created, err := s.repo.Create(ctx, e)
	if err != nil {
		return nil, err
	}

	s.scheduleTransitions(created)
	slog.Info("event created", "event_id", created.ID, "host_id", hostID, "date", created.Date)

	return created, nil
}

func (s *Service) scheduleTransitions(e *Event) {
	id := e.ID
	s.sched.ScheduleAt(activationKey(id), e.Date, func() {
		s.fireTransition(id, StatusActive)
	})
	s.sched.ScheduleAt(passKey(id), e.Date.Add(ActiveWindow), func() {
		s.fireTransition(id, StatusPassed)
	})
}

// fireTransition is the scheduler callback target; it runs outside any
// request so errors are only logged
func (s *Service) fireTransition(id int64, to Status) {
	if err := s.UpdateStatus(context.Background(), id, to); err != nil {
		slog.Error("scheduled transition failed", "event_id", id, "status", to, "error", err)
	}
}

// UpdateStatus sets an event's status. The set is idempotent and
// monotonic: a status at or past the target leaves the event untouched,
// and a late activation never overwrites a host-closed event.
func (s *Service) UpdateStatus(ctx context.Context, id int64, to Status) error {
	e, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if e == nil {
		return ErrEventNotFound
	}

	if to.rank() <= e.Status.rank() {
		return nil
	}
	if to == StatusActive && e.Status != StatusWaiting {
		return nil
	}

	if err := s.repo.UpdateStatus(ctx, id, to); err != nil {
		return err
	}

	slog.Info("event status changed", "event_id", id, "from", e.Status, "to", to)
	return nil
}

// GetByID retrieves an event with its participants and comments
func (s *Service) GetByID(ctx context.Context, id int64) (*Detail, error) {
	e, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if e == nil {
		return nil, ErrEventNotFound
	}

	participants, err := s.repo.GetParticipants(ctx, id)
	if err != nil {
		return nil, err
	}

	comments, err := s.comments.ListByEvent(ctx, id)
	if err != nil {
		return nil, err
	}

	return &Detail{Event: e, Participants: participants, Comments: comments}, nil
}

// Exists reports whether an event with the given id exists
func (s *Service) Exists(ctx context.Context, id int64) (bool, error) {
	e, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return false, err
	}
	return e != nil, nil
}

// List retrieves a page of events matching the filter. Pages are
// zero-based; the offset is page*perPage.
func (s *Service) List(ctx context.Context, page, perPage int, f ListFilter) ([]*Event, int, error) {
	if page < 0 {
		page = 0
	}
	if perPage < 1 || perPage > 100 {
		perPage = 10
	}

	return s.repo.List(ctx, f, perPage, page*perPage)
}

// ListOfficial retrieves a page of events marked as official reposts
func (s *Service) ListOfficial(ctx context.Context, page, perPage int, f ListFilter) ([]*Event, int, error) {
	f.OfficialOnly = true
	return s.List(ctx, page, perPage, f)
}

// Join adds the user as a participant. Guards run in order: hosting,
// event accepting, duplicate membership — callers rely on the distinct
// conditions. The store's unique constraint stays the authority for
// concurrent duplicates.
func (s *Service) Join(ctx context.Context, eventID, userID int64) (*Participant, error) {
	e, err := s.repo.GetByID(ctx, eventID)
	if err != nil {
		return nil, err
	}
	if e == nil {
		return nil, ErrEventNotFound
	}

	if e.HostID == userID {
		return nil, ErrAlreadyHosting
	}
	if e.Status != StatusWaiting {
		return nil, ErrNotAccepting
	}

	existing, err := s.repo.GetParticipant(ctx, eventID, userID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, ErrAlreadyJoined
	}

	return s.repo.AddParticipant(ctx, eventID, userID)
}

// Leave removes the user's membership of the event
func (s *Service) Leave(ctx context.Context, eventID, userID int64) error {
	return s.repo.RemoveParticipant(ctx, eventID, userID)
}

// Close is the host-triggered early end of registration: WAITING goes to
// PREPARING and the pending activation timer is cancelled, so the closed
// state is not overwritten when the start time arrives
func (s *Service) Close(ctx context.Context, callerID, eventID int64) error {
	e, err := s.repo.GetByID(ctx, eventID)
	if err != nil {
		return err
	}
	if e == nil {
		return ErrEventNotFound
	}

	if e.HostID != callerID {
		return ErrNotHost
	}
	if e.Status != StatusWaiting {
		return ErrRegistrationClosed
	}

	if err := s.UpdateStatus(ctx, eventID, StatusPreparing); err != nil {
		return err
	}

	s.sched.Cancel(activationKey(eventID))
	return nil
}

// AttachGroupLink stores a messenger group invite link on the event
func (s *Service) AttachGroupLink(ctx context.Context, eventID int64, link string) error {
	return s.repo.UpdateGroupLink(ctx, eventID, link)
}

// HostedWithoutGroupLink retrieves the caller's hosted events that still
// lack a messenger group link
func (s *Service) HostedWithoutGroupLink(ctx context.Context, userID int64) ([]*Event, error) {
	return s.repo.HostedWithoutGroupLink(ctx, userID)
}

// RecoverSchedules re-registers lifecycle timers for unfinished events
// after a restart. Overdue transitions fire immediately through the
// scheduler's past-instant handling.
func (s *Service) RecoverSchedules(ctx context.Context) error {
	pending, err := s.repo.ListPending(ctx)
	if err != nil {
		return err
	}

	for _, e := range pending {
		id := e.ID
		if e.Status == StatusWaiting {
			s.sched.ScheduleAt(activationKey(id), e.Date, func() {
				s.fireTransition(id, StatusActive)
			})
		}
		s.sched.ScheduleAt(passKey(id), e.Date.Add(ActiveWindow), func() {
			s.fireTransition(id, StatusPassed)
		})
	}

	slog.Info("lifecycle schedules recovered", "events", len(pending))
	return nil
}
