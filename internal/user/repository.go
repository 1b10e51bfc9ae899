package user

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"
)

// Postgres error codes for constraint conflicts
const (
	uniqueViolation     = "23505"
	foreignKeyViolation = "23503"
)

// Repository handles user data persistence. Every query except
// GetCredentialsByEmail selects the password-free column set, so the hash
// cannot leak through this layer.
type Repository struct {
	db *sql.DB
}

// NewRepository creates a new user repository with database dependency injected
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

const safeColumns = `id, email, name, role, image_url, telegram_id, created_at`

func scanSafe(row *sql.Row) (*SafeUser, error) {
	u := &SafeUser{}
	err := row.Scan(
		&u.ID,
		&u.Email,
		&u.Name,
		&u.Role,
		&u.ImageURL,
		&u.TelegramID,
		&u.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return u, nil
}

// Create inserts a new user; the password must already be hashed
func (r *Repository) Create(ctx context.Context, u *User) (*SafeUser, error) {
	query := `
		INSERT INTO users (email, password, name, role, image_url)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING ` + safeColumns

	created, err := scanSafe(r.db.QueryRowContext(ctx, query, u.Email, u.Password, u.Name, u.Role, u.ImageURL))
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			return nil, ErrEmailAlreadyInUse
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	return created, nil
}

// GetByID retrieves a user by their ID
func (r *Repository) GetByID(ctx context.Context, id int64) (*SafeUser, error) {
	query := `SELECT ` + safeColumns + ` FROM users WHERE id = $1`

	u, err := scanSafe(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	return u, nil
}

// GetByEmail retrieves a user by their email
func (r *Repository) GetByEmail(ctx context.Context, email string) (*SafeUser, error) {
	query := `SELECT ` + safeColumns + ` FROM users WHERE email = $1`

	u, err := scanSafe(r.db.QueryRowContext(ctx, query, email))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get user by email: %w", err)
	}

	return u, nil
}

// GetByTelegramID retrieves a user by their linked telegram account
func (r *Repository) GetByTelegramID(ctx context.Context, telegramID int64) (*SafeUser, error) {
	query := `SELECT ` + safeColumns + ` FROM users WHERE telegram_id = $1`

	u, err := scanSafe(r.db.QueryRowContext(ctx, query, telegramID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get user by telegram id: %w", err)
	}

	return u, nil
}

// GetCredentialsByEmail retrieves the full record including the password
// hash. This is the single credential-verification path.
func (r *Repository) GetCredentialsByEmail(ctx context.Context, email string) (*User, error) {
	query := `
		SELECT id, email, password, name, role, image_url, telegram_id, created_at, updated_at
		FROM users
		WHERE email = $1
	`

	u := &User{}
	err := r.db.QueryRowContext(ctx, query, email).Scan(
		&u.ID,
		&u.Email,
		&u.Password,
		&u.Name,
		&u.Role,
		&u.ImageURL,
		&u.TelegramID,
		&u.CreatedAt,
		&u.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get credentials: %w", err)
	}

	return u, nil
}

// Update modifies an existing user; nil fields are left unchanged
func (r *Repository) Update(ctx context.Context, id int64, name, password, imageURL *string, telegramID *int64) (*SafeUser, error) {
	query := `
		UPDATE users
		SET name = COALESCE($2, name),
		    password = COALESCE($3, password),
		    image_url = COALESCE($4, image_url),
		    telegram_id = COALESCE($5, telegram_id),
		    updated_at = now()
		WHERE id = $1
		RETURNING ` + safeColumns

	u, err := scanSafe(r.db.QueryRowContext(ctx, query, id, name, password, imageURL, telegramID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			return nil, ErrTelegramAlreadyLinked
		}
		return nil, fmt.Errorf("failed to update user: %w", err)
	}

	return u, nil
}

// GetEventIDs retrieves the ids of events the user hosts and participates in
func (r *Repository) GetEventIDs(ctx context.Context, userID int64) (hosting, participating []int64, err error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id FROM events WHERE host_id = $1`, userID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to list hosted events: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, nil, fmt.Errorf("failed to scan hosted event: %w", err)
		}
		hosting = append(hosting, id)
	}

	rows, err = r.db.QueryContext(ctx, `SELECT event_id FROM event_participants WHERE user_id = $1`, userID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to list joined events: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, nil, fmt.Errorf("failed to scan joined event: %w", err)
		}
		participating = append(participating, id)
	}

	return hosting, participating, nil
}

// Delete removes a user from the database. Memberships and comments
// cascade; hosted events hold a plain foreign key, so an account that
// still hosts events cannot be deleted.
func (r *Repository) Delete(ctx context.Context, id int64) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == foreignKeyViolation {
			return ErrUserHostingEvents
		}
		return fmt.Errorf("failed to delete user: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return ErrUserNotFound
	}

	return nil
}
