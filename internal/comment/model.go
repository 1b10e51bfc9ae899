package comment

import "time"

// Comment represents a comment left on an event. Content is immutable
// after creation; only the reaction counter changes.
type Comment struct {
	ID        int64     `json:"id"`
	AuthorID  int64     `json:"author_id"`
	EventID   int64     `json:"event_id"`
	Content   string    `json:"content"`
	Reactions int       `json:"reactions"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
