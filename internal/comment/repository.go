package comment

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// Repository handles comment data persistence
type Repository struct {
	db *sql.DB
}

// NewRepository creates a new comment repository with database dependency injected
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// Create inserts a new comment with the default reaction count
func (r *Repository) Create(ctx context.Context, authorID, eventID int64, content string) (*Comment, error) {
	query := `
		INSERT INTO comments (author_id, event_id, content)
		VALUES ($1, $2, $3)
		RETURNING id, author_id, event_id, content, reactions, created_at, updated_at
	`

	c := &Comment{}
	err := r.db.QueryRowContext(ctx, query, authorID, eventID, content).Scan(
		&c.ID,
		&c.AuthorID,
		&c.EventID,
		&c.Content,
		&c.Reactions,
		&c.CreatedAt,
		&c.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create comment: %w", err)
	}

	return c, nil
}

// GetByID retrieves a comment by its ID
func (r *Repository) GetByID(ctx context.Context, id int64) (*Comment, error) {
	query := `
		SELECT id, author_id, event_id, content, reactions, created_at, updated_at
		FROM comments
		WHERE id = $1
	`

	c := &Comment{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&c.ID,
		&c.AuthorID,
		&c.EventID,
		&c.Content,
		&c.Reactions,
		&c.CreatedAt,
		&c.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get comment: %w", err)
	}

	return c, nil
}

// ListByEvent retrieves all comments on an event, oldest first
func (r *Repository) ListByEvent(ctx context.Context, eventID int64) ([]*Comment, error) {
	query := `
		SELECT id, author_id, event_id, content, reactions, created_at, updated_at
		FROM comments
		WHERE event_id = $1
		ORDER BY created_at ASC
	`

	rows, err := r.db.QueryContext(ctx, query, eventID)
	if err != nil {
		return nil, fmt.Errorf("failed to list comments: %w", err)
	}
	defer rows.Close()

	var comments []*Comment
	for rows.Next() {
		c := &Comment{}
		if err := rows.Scan(
			&c.ID,
			&c.AuthorID,
			&c.EventID,
			&c.Content,
			&c.Reactions,
			&c.CreatedAt,
			&c.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan comment: %w", err)
		}
		comments = append(comments, c)
	}

	return comments, nil
}

// Delete removes a comment from the database
func (r *Repository) Delete(ctx context.Context, id int64) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM comments WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete comment: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return ErrCommentNotFound
	}

	return nil
}
