package event

import (
	"time"

	"github.com/lib/pq"
)

// Status is the lifecycle state of an event
type Status string

const (
	// StatusWaiting accepts participants until the host closes
	// registration or the start time arrives
	StatusWaiting Status = "WAITING"
	// StatusPreparing is the host-triggered early close
	StatusPreparing Status = "PREPARING"
	// StatusActive means the event window is running
	StatusActive Status = "ACTIVE"
	// StatusPassed is terminal
	StatusPassed Status = "PASSED"
)

// Valid reports whether s is a known status
func (s Status) Valid() bool {
	switch s {
	case StatusWaiting, StatusPreparing, StatusActive, StatusPassed:
		return true
	}
	return false
}

// rank orders statuses along the lifecycle; transitions never decrease it
func (s Status) rank() int {
	switch s {
	case StatusWaiting:
		return 0
	case StatusPreparing:
		return 1
	case StatusActive:
		return 2
	case StatusPassed:
		return 3
	}
	return -1
}

// Event represents a scheduled gathering
type Event struct {
	ID               int64          `json:"id"`
	Name             string         `json:"name"`
	Description      *string        `json:"description,omitempty"`
	ShortDescription *string        `json:"short_description,omitempty"`
	Status           Status         `json:"status"`
	HostID           int64          `json:"host_id"`
	Date             time.Time      `json:"date"`
	GroupLink        *string        `json:"group_link,omitempty"`
	RepostedID       *int64         `json:"reposted_id,omitempty"`
	Images           pq.StringArray `json:"images" swaggertype:"array,string"`
	CreatedAt        time.Time      `json:"created_at"`
}

// Official reports whether the event is a verified repost of another
func (e *Event) Official() bool {
	return e.RepostedID != nil
}

// Participant represents a user's membership in an event
type Participant struct {
	ID       int64     `json:"id"`
	EventID  int64     `json:"event_id"`
	UserID   int64     `json:"user_id"`
	JoinedAt time.Time `json:"joined_at"`
}
