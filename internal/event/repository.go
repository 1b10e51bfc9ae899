package event

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/lib/pq"
)

// uniqueViolation is the Postgres error code for unique constraint conflicts
const uniqueViolation = "23505"

// Repository handles event and membership data persistence
type Repository struct {
	db *sql.DB
}

// NewRepository creates a new event repository with database dependency injected
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

const eventColumns = `id, name, description, short_description, status, host_id, date, group_link, reposted_id, images, created_at`

func scanEvent(scan func(dest ...interface{}) error) (*Event, error) {
	e := &Event{}
	err := scan(
		&e.ID,
		&e.Name,
		&e.Description,
		&e.ShortDescription,
		&e.Status,
		&e.HostID,
		&e.Date,
		&e.GroupLink,
		&e.RepostedID,
		&e.Images,
		&e.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return e, nil
}

// Create inserts a new event
func (r *Repository) Create(ctx context.Context, e *Event) (*Event, error) {
	query := `
		INSERT INTO events (name, description, short_description, status, host_id, date, reposted_id, images)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING ` + eventColumns

	row := r.db.QueryRowContext(ctx, query,
		e.Name, e.Description, e.ShortDescription, e.Status, e.HostID, e.Date, e.RepostedID, e.Images)
	created, err := scanEvent(row.Scan)
	if err != nil {
		return nil, fmt.Errorf("failed to create event: %w", err)
	}

	return created, nil
}

// GetByID retrieves an event by its ID
func (r *Repository) GetByID(ctx context.Context, id int64) (*Event, error) {
	query := `SELECT ` + eventColumns + ` FROM events WHERE id = $1`

	e, err := scanEvent(r.db.QueryRowContext(ctx, query, id).Scan)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get event: %w", err)
	}

	return e, nil
}

// buildWhere assembles the WHERE clause for a listing filter. Keywords
// match by case-sensitive substring against name or description, any
// keyword against either field.
func buildWhere(f ListFilter) (string, []interface{}) {
	var conditions []string
	var args []interface{}

	if len(f.Statuses) > 0 {
		statuses := make([]string, len(f.Statuses))
		for i, s := range f.Statuses {
			statuses[i] = string(s)
		}
		op := "= ANY"
		if f.Exclude {
			op = "!= ALL"
		}
		args = append(args, pq.Array(statuses))
		conditions = append(conditions, fmt.Sprintf("status %s($%d)", op, len(args)))
	}

	if len(f.Keywords) > 0 {
		var matches []string
		for _, keyword := range f.Keywords {
			args = append(args, "%"+keyword+"%")
			n := len(args)
			matches = append(matches, fmt.Sprintf("name LIKE $%d OR description LIKE $%d", n, n))
		}
		conditions = append(conditions, "("+strings.Join(matches, " OR ")+")")
	}

	if f.OfficialOnly {
		conditions = append(conditions, "reposted_id IS NOT NULL")
	}

	if len(conditions) == 0 {
		return "", nil
	}
	return "WHERE " + strings.Join(conditions, " AND "), args
}

// List retrieves events matching the filter with pagination, newest first
func (r *Repository) List(ctx context.Context, f ListFilter, limit, offset int) ([]*Event, int, error) {
	where, args := buildWhere(f)

	var total int
	countQuery := `SELECT COUNT(*) FROM events ` + where
	if err := r.db.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count events: %w", err)
	}

	query := fmt.Sprintf(`
		SELECT %s FROM events %s
		ORDER BY created_at DESC
		LIMIT $%d OFFSET $%d
	`, eventColumns, where, len(args)+1, len(args)+2)
	args = append(args, limit, offset)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list events: %w", err)
	}
	defer rows.Close()

	var events []*Event
	for rows.Next() {
		e, err := scanEvent(rows.Scan)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan event: %w", err)
		}
		events = append(events, e)
	}

	return events, total, nil
}

// ListPending retrieves events whose lifecycle is not finished, for the
// startup schedule recovery sweep
func (r *Repository) ListPending(ctx context.Context) ([]*Event, error) {
	query := `SELECT ` + eventColumns + ` FROM events WHERE status != $1`

	rows, err := r.db.QueryContext(ctx, query, StatusPassed)
	if err != nil {
		return nil, fmt.Errorf("failed to list pending events: %w", err)
	}
	defer rows.Close()

	var events []*Event
	for rows.Next() {
		e, err := scanEvent(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("failed to scan event: %w", err)
		}
		events = append(events, e)
	}

	return events, nil
}

// UpdateStatus sets an event's status
func (r *Repository) UpdateStatus(ctx context.Context, id int64, status Status) error {
	result, err := r.db.ExecContext(ctx, `UPDATE events SET status = $2 WHERE id = $1`, id, status)
	if err != nil {
		return fmt.Errorf("failed to update event status: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return ErrEventNotFound
	}

	return nil
}

// UpdateGroupLink attaches a messenger group invite link to an event
func (r *Repository) UpdateGroupLink(ctx context.Context, id int64, link string) error {
	result, err := r.db.ExecContext(ctx, `UPDATE events SET group_link = $2 WHERE id = $1`, id, link)
	if err != nil {
		return fmt.Errorf("failed to update group link: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return ErrEventNotFound
	}

	return nil
}

// HostedWithoutGroupLink retrieves events the user hosts that lack a
// messenger group link
func (r *Repository) HostedWithoutGroupLink(ctx context.Context, userID int64) ([]*Event, error) {
	query := `SELECT ` + eventColumns + ` FROM events WHERE host_id = $1 AND group_link IS NULL`

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list hosted events: %w", err)
	}
	defer rows.Close()

	var events []*Event
	for rows.Next() {
		e, err := scanEvent(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("failed to scan event: %w", err)
		}
		events = append(events, e)
	}

	return events, nil
}

// GetParticipants retrieves all memberships of an event
func (r *Repository) GetParticipants(ctx context.Context, eventID int64) ([]*Participant, error) {
	query := `
		SELECT id, event_id, user_id, joined_at
		FROM event_participants
		WHERE event_id = $1
		ORDER BY joined_at ASC
	`

	rows, err := r.db.QueryContext(ctx, query, eventID)
	if err != nil {
		return nil, fmt.Errorf("failed to list participants: %w", err)
	}
	defer rows.Close()

	var participants []*Participant
	for rows.Next() {
		p := &Participant{}
		if err := rows.Scan(&p.ID, &p.EventID, &p.UserID, &p.JoinedAt); err != nil {
			return nil, fmt.Errorf("failed to scan participant: %w", err)
		}
		participants = append(participants, p)
	}

	return participants, nil
}

// GetParticipant retrieves a single membership, nil if absent
func (r *Repository) GetParticipant(ctx context.Context, eventID, userID int64) (*Participant, error) {
	query := `
		SELECT id, event_id, user_id, joined_at
		FROM event_participants
		WHERE event_id = $1 AND user_id = $2
	`

	p := &Participant{}
	err := r.db.QueryRowContext(ctx, query, eventID, userID).Scan(&p.ID, &p.EventID, &p.UserID, &p.JoinedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get participant: %w", err)
	}

	return p, nil
}

// AddParticipant creates a membership. The unique constraint on
// (user_id, event_id) is the authority for duplicate joins; its violation
// is reported as ErrAlreadyJoined.
func (r *Repository) AddParticipant(ctx context.Context, eventID, userID int64) (*Participant, error) {
	query := `
		INSERT INTO event_participants (event_id, user_id)
		VALUES ($1, $2)
		RETURNING id, event_id, user_id, joined_at
	`

	p := &Participant{}
	err := r.db.QueryRowContext(ctx, query, eventID, userID).Scan(&p.ID, &p.EventID, &p.UserID, &p.JoinedAt)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			return nil, ErrAlreadyJoined
		}
		return nil, fmt.Errorf("failed to add participant: %w", err)
	}

	return p, nil
}

// RemoveParticipant deletes a membership keyed by (user, event)
func (r *Repository) RemoveParticipant(ctx context.Context, eventID, userID int64) error {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM event_participants WHERE event_id = $1 AND user_id = $2`, eventID, userID)
	if err != nil {
		return fmt.Errorf("failed to remove participant: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return ErrNotParticipant
	}

	return nil
}
