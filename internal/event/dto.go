package event

import (
	"time"

	"github.com/palparty/backend/internal/comment"
)

// Field bounds, matching the store schema
const (
	MaxNameLength             = 30
	MaxDescriptionLength      = 85
	MaxShortDescriptionLength = 35
)

// CreateEventRequest represents the request to create a new event
type CreateEventRequest struct {
	Name             string    `json:"name"`
	Description      *string   `json:"description,omitempty"`
	ShortDescription *string   `json:"short_description,omitempty"`
	Date             time.Time `json:"date"`
}

// Validate checks the create request fields
func (r *CreateEventRequest) Validate() error {
	if r.Name == "" {
		return ErrNameRequired
	}
	if len(r.Name) > MaxNameLength {
		return ErrNameTooLong
	}
	if r.Description != nil && len(*r.Description) > MaxDescriptionLength {
		return ErrDescriptionTooLong
	}
	if r.ShortDescription != nil && len(*r.ShortDescription) > MaxShortDescriptionLength {
		return ErrDescriptionTooLong
	}
	if r.Date.IsZero() {
		return ErrDateRequired
	}
	return nil
}

// ListFilter selects which events a listing returns
type ListFilter struct {
	// Statuses is an inclusion set, or an exclusion set when Exclude is set
	Statuses []Status
	Exclude  bool
	// Keywords match by case-sensitive substring against name or
	// description; any keyword matching any field qualifies
	Keywords []string
	// OfficialOnly restricts the listing to reposted events
	OfficialOnly bool
}

// Detail is an event together with its participants and comments
type Detail struct {
	*Event
	Participants []*Participant     `json:"participants"`
	Comments     []*comment.Comment `json:"comments"`
}
