package event

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/palparty/backend/internal/comment"
	"github.com/palparty/backend/internal/media"
)

type participantKey struct {
	eventID, userID int64
}

type fakeStore struct {
	events       map[int64]*Event
	participants map[participantKey]*Participant
	nextID       int64
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		events:       make(map[int64]*Event),
		participants: make(map[participantKey]*Participant),
	}
}

func (s *fakeStore) Create(ctx context.Context, e *Event) (*Event, error) {
	s.nextID++
	stored := *e
	stored.ID = s.nextID
	s.events[stored.ID] = &stored
	return &stored, nil
}

func (s *fakeStore) GetByID(ctx context.Context, id int64) (*Event, error) {
	e, ok := s.events[id]
	if !ok {
		return nil, nil
	}
	copied := *e
	return &copied, nil
}

func (s *fakeStore) List(ctx context.Context, f ListFilter, limit, offset int) ([]*Event, int, error) {
	var all []*Event
	for _, e := range s.events {
		all = append(all, e)
	}
	return all, len(all), nil
}

func (s *fakeStore) ListPending(ctx context.Context) ([]*Event, error) {
	var pending []*Event
	for _, e := range s.events {
		if e.Status != StatusPassed {
			pending = append(pending, e)
		}
	}
	return pending, nil
}

func (s *fakeStore) UpdateStatus(ctx context.Context, id int64, status Status) error {
	e, ok := s.events[id]
	if !ok {
		return ErrEventNotFound
	}
	e.Status = status
	return nil
}

func (s *fakeStore) UpdateGroupLink(ctx context.Context, id int64, link string) error {
	e, ok := s.events[id]
	if !ok {
		return ErrEventNotFound
	}
	e.GroupLink = &link
	return nil
}

func (s *fakeStore) HostedWithoutGroupLink(ctx context.Context, userID int64) ([]*Event, error) {
	var hosted []*Event
	for _, e := range s.events {
		if e.HostID == userID && e.GroupLink == nil {
			hosted = append(hosted, e)
		}
	}
	return hosted, nil
}

func (s *fakeStore) GetParticipants(ctx context.Context, eventID int64) ([]*Participant, error) {
	var participants []*Participant
	for key, p := range s.participants {
		if key.eventID == eventID {
			participants = append(participants, p)
		}
	}
	return participants, nil
}

func (s *fakeStore) GetParticipant(ctx context.Context, eventID, userID int64) (*Participant, error) {
	p, ok := s.participants[participantKey{eventID, userID}]
	if !ok {
		return nil, nil
	}
	return p, nil
}

func (s *fakeStore) AddParticipant(ctx context.Context, eventID, userID int64) (*Participant, error) {
	key := participantKey{eventID, userID}
	if _, ok := s.participants[key]; ok {
		return nil, ErrAlreadyJoined
	}
	s.nextID++
	p := &Participant{ID: s.nextID, EventID: eventID, UserID: userID}
	s.participants[key] = p
	return p, nil
}

func (s *fakeStore) RemoveParticipant(ctx context.Context, eventID, userID int64) error {
	key := participantKey{eventID, userID}
	if _, ok := s.participants[key]; !ok {
		return ErrNotParticipant
	}
	delete(s.participants, key)
	return nil
}

type fakeSchedule struct {
	scheduled map[string]time.Time
	callbacks map[string]func()
	cancelled []string
}

func newFakeSchedule() *fakeSchedule {
	return &fakeSchedule{
		scheduled: make(map[string]time.Time),
		callbacks: make(map[string]func()),
	}
}

func (s *fakeSchedule) ScheduleAt(key string, at time.Time, fn func()) {
	s.scheduled[key] = at
	s.callbacks[key] = fn
}

func (s *fakeSchedule) Cancel(key string) bool {
	_, ok := s.scheduled[key]
	delete(s.scheduled, key)
	delete(s.callbacks, key)
	s.cancelled = append(s.cancelled, key)
	return ok
}

type fakeComments struct{}

func (fakeComments) ListByEvent(ctx context.Context, eventID int64) ([]*comment.Comment, error) {
	return nil, nil
}

func newTestService(t *testing.T) (*Service, *fakeStore, *fakeSchedule, time.Time) {
	t.Helper()
	store := newFakeStore()
	sched := newFakeSchedule()
	svc := NewService(store, fakeComments{}, sched, media.Noop{})
	now := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return now }
	return svc, store, sched, now
}

func createEvent(t *testing.T, svc *Service, hostID int64, date time.Time) *Event {
	t.Helper()
	created, err := svc.Create(context.Background(), hostID, &CreateEventRequest{
		Name: "mountain trip",
		Date: date,
	}, nil)
	if err != nil {
		t.Fatalf("create event: %v", err)
	}
	return created
}

func TestCreateRejectsPastDate(t *testing.T) {
	svc, _, _, now := newTestService(t)

	_, err := svc.Create(context.Background(), 1, &CreateEventRequest{
		Name: "too late",
		Date: now.Add(-time.Hour),
	}, nil)
	if !errors.Is(err, ErrDateInPast) {
		t.Fatalf("expected ErrDateInPast, got %v", err)
	}
}

func TestCreateAcceptsGraceBoundary(t *testing.T) {
	svc, _, _, now := newTestService(t)

	// exactly grace in the past is still acceptable
	created := createEvent(t, svc, 1, now.Add(-GraceInterval))
	if created.Status != StatusWaiting {
		t.Fatalf("expected WAITING, got %s", created.Status)
	}
}

func TestCreateWithoutAttachmentsStoresEmptyImages(t *testing.T) {
	svc, store, _, now := newTestService(t)

	created := createEvent(t, svc, 1, now.Add(time.Hour))

	// the images column is NOT NULL; a nil array would reach the driver
	// as SQL NULL
	if store.events[created.ID].Images == nil {
		t.Fatal("event stored with a nil images array")
	}
	if len(created.Images) != 0 {
		t.Fatalf("expected no images, got %v", created.Images)
	}
}

func TestCreateValidatesFields(t *testing.T) {
	svc, _, _, now := newTestService(t)
	longName := "this event name is far too long to store"

	tests := []struct {
		name string
		req  *CreateEventRequest
		want error
	}{
		{"missing name", &CreateEventRequest{Date: now.Add(time.Hour)}, ErrNameRequired},
		{"long name", &CreateEventRequest{Name: longName, Date: now.Add(time.Hour)}, ErrNameTooLong},
		{"missing date", &CreateEventRequest{Name: "ok"}, ErrDateRequired},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Create(context.Background(), 1, tt.req, nil)
			if !errors.Is(err, tt.want) {
				t.Fatalf("expected %v, got %v", tt.want, err)
			}
		})
	}
}

func TestCreateRegistersLifecycleTimers(t *testing.T) {
	svc, _, sched, now := newTestService(t)

	date := now.Add(1000 * time.Second)
	created := createEvent(t, svc, 1, date)

	activateAt, ok := sched.scheduled[activationKey(created.ID)]
	if !ok {
		t.Fatal("expected an activation timer")
	}
	if !activateAt.Equal(date) {
		t.Fatalf("activation scheduled at %v, want %v", activateAt, date)
	}

	passAt, ok := sched.scheduled[passKey(created.ID)]
	if !ok {
		t.Fatal("expected a pass timer")
	}
	if !passAt.Equal(date.Add(ActiveWindow)) {
		t.Fatalf("pass scheduled at %v, want %v", passAt, date.Add(ActiveWindow))
	}
}

func TestJoinRejectsHost(t *testing.T) {
	svc, _, _, now := newTestService(t)
	created := createEvent(t, svc, 1, now.Add(time.Hour))

	_, err := svc.Join(context.Background(), created.ID, 1)
	if !errors.Is(err, ErrAlreadyHosting) {
		t.Fatalf("expected ErrAlreadyHosting, got %v", err)
	}
}

func TestJoinHostCheckedBeforeStatus(t *testing.T) {
	svc, store, _, now := newTestService(t)
	created := createEvent(t, svc, 1, now.Add(time.Hour))
	store.events[created.ID].Status = StatusPreparing

	// the host condition wins even when the event is also closed
	_, err := svc.Join(context.Background(), created.ID, 1)
	if !errors.Is(err, ErrAlreadyHosting) {
		t.Fatalf("expected ErrAlreadyHosting, got %v", err)
	}

	_, err = svc.Join(context.Background(), created.ID, 2)
	if !errors.Is(err, ErrNotAccepting) {
		t.Fatalf("expected ErrNotAccepting, got %v", err)
	}
}

func TestJoinLeaveJoin(t *testing.T) {
	svc, _, _, now := newTestService(t)
	created := createEvent(t, svc, 1, now.Add(time.Hour))
	ctx := context.Background()

	if _, err := svc.Join(ctx, created.ID, 2); err != nil {
		t.Fatalf("first join: %v", err)
	}

	_, err := svc.Join(ctx, created.ID, 2)
	if !errors.Is(err, ErrAlreadyJoined) {
		t.Fatalf("expected ErrAlreadyJoined, got %v", err)
	}

	if err := svc.Leave(ctx, created.ID, 2); err != nil {
		t.Fatalf("leave: %v", err)
	}

	if _, err := svc.Join(ctx, created.ID, 2); err != nil {
		t.Fatalf("rejoin after leave: %v", err)
	}
}

func TestLeaveWithoutMembership(t *testing.T) {
	svc, _, _, now := newTestService(t)
	created := createEvent(t, svc, 1, now.Add(time.Hour))

	err := svc.Leave(context.Background(), created.ID, 2)
	if !errors.Is(err, ErrNotParticipant) {
		t.Fatalf("expected ErrNotParticipant, got %v", err)
	}
}

func TestJoinUnknownEvent(t *testing.T) {
	svc, _, _, _ := newTestService(t)

	_, err := svc.Join(context.Background(), 42, 2)
	if !errors.Is(err, ErrEventNotFound) {
		t.Fatalf("expected ErrEventNotFound, got %v", err)
	}
}

func TestCloseByHost(t *testing.T) {
	svc, store, sched, now := newTestService(t)
	created := createEvent(t, svc, 1, now.Add(time.Hour))
	ctx := context.Background()

	if err := svc.Close(ctx, 1, created.ID); err != nil {
		t.Fatalf("close: %v", err)
	}
	if got := store.events[created.ID].Status; got != StatusPreparing {
		t.Fatalf("expected PREPARING, got %s", got)
	}

	// the pending activation must not resurrect the closed event
	if _, ok := sched.scheduled[activationKey(created.ID)]; ok {
		t.Fatal("expected the activation timer to be cancelled")
	}

	if err := svc.Close(ctx, 1, created.ID); !errors.Is(err, ErrRegistrationClosed) {
		t.Fatalf("expected ErrRegistrationClosed on second close, got %v", err)
	}
}

func TestCloseByNonHost(t *testing.T) {
	svc, _, _, now := newTestService(t)
	created := createEvent(t, svc, 1, now.Add(time.Hour))

	err := svc.Close(context.Background(), 3, created.ID)
	if !errors.Is(err, ErrNotHost) {
		t.Fatalf("expected ErrNotHost, got %v", err)
	}
}

func TestUpdateStatusIdempotent(t *testing.T) {
	svc, store, _, now := newTestService(t)
	created := createEvent(t, svc, 1, now.Add(time.Hour))
	ctx := context.Background()

	if err := svc.UpdateStatus(ctx, created.ID, StatusActive); err != nil {
		t.Fatalf("first update: %v", err)
	}
	if err := svc.UpdateStatus(ctx, created.ID, StatusActive); err != nil {
		t.Fatalf("second update: %v", err)
	}
	if got := store.events[created.ID].Status; got != StatusActive {
		t.Fatalf("expected ACTIVE, got %s", got)
	}
}

func TestUpdateStatusNeverRegresses(t *testing.T) {
	svc, store, _, now := newTestService(t)
	created := createEvent(t, svc, 1, now.Add(time.Hour))
	ctx := context.Background()

	if err := svc.UpdateStatus(ctx, created.ID, StatusPassed); err != nil {
		t.Fatalf("pass: %v", err)
	}
	if err := svc.UpdateStatus(ctx, created.ID, StatusActive); err != nil {
		t.Fatalf("late activation: %v", err)
	}
	if got := store.events[created.ID].Status; got != StatusPassed {
		t.Fatalf("expected PASSED to stick, got %s", got)
	}
}

func TestLateActivationSkipsClosedEvent(t *testing.T) {
	svc, store, _, now := newTestService(t)
	created := createEvent(t, svc, 1, now.Add(time.Hour))
	ctx := context.Background()

	if err := svc.Close(ctx, 1, created.ID); err != nil {
		t.Fatalf("close: %v", err)
	}
	if err := svc.UpdateStatus(ctx, created.ID, StatusActive); err != nil {
		t.Fatalf("late activation: %v", err)
	}
	if got := store.events[created.ID].Status; got != StatusPreparing {
		t.Fatalf("expected PREPARING to stick, got %s", got)
	}
}

func TestRecoverSchedules(t *testing.T) {
	svc, store, sched, now := newTestService(t)

	waiting := createEvent(t, svc, 1, now.Add(time.Hour))
	closed := createEvent(t, svc, 1, now.Add(time.Hour))
	store.events[closed.ID].Status = StatusPreparing
	done := createEvent(t, svc, 1, now.Add(time.Hour))
	store.events[done.ID].Status = StatusPassed

	// simulate a restart with an empty timer registry
	sched.scheduled = make(map[string]time.Time)
	sched.callbacks = make(map[string]func())

	if err := svc.RecoverSchedules(context.Background()); err != nil {
		t.Fatalf("recover: %v", err)
	}

	if _, ok := sched.scheduled[activationKey(waiting.ID)]; !ok {
		t.Fatal("expected activation timer for the WAITING event")
	}
	if _, ok := sched.scheduled[passKey(waiting.ID)]; !ok {
		t.Fatal("expected pass timer for the WAITING event")
	}
	if _, ok := sched.scheduled[activationKey(closed.ID)]; ok {
		t.Fatal("closed event must not get an activation timer")
	}
	if _, ok := sched.scheduled[passKey(closed.ID)]; !ok {
		t.Fatal("expected pass timer for the closed event")
	}
	if _, ok := sched.scheduled[passKey(done.ID)]; ok {
		t.Fatal("passed event must not be rescheduled")
	}
}

func TestFiredTransitionChangesStatus(t *testing.T) {
	svc, store, sched, now := newTestService(t)
	created := createEvent(t, svc, 1, now.Add(time.Hour))

	sched.callbacks[activationKey(created.ID)]()
	if got := store.events[created.ID].Status; got != StatusActive {
		t.Fatalf("expected ACTIVE after activation fired, got %s", got)
	}

	sched.callbacks[passKey(created.ID)]()
	if got := store.events[created.ID].Status; got != StatusPassed {
		t.Fatalf("expected PASSED after pass fired, got %s", got)
	}
}

func TestGetByIDNotFound(t *testing.T) {
	svc, _, _, _ := newTestService(t)

	_, err := svc.GetByID(context.Background(), 42)
	if !errors.Is(err, ErrEventNotFound) {
		t.Fatalf("expected ErrEventNotFound, got %v", err)
	}
}
