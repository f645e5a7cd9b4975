package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/artur/slide-bot/internal/database/models"
)

// UserRepository handles user data persistence
type UserRepository struct {
	db  *sql.DB
	now func() time.Time
}

// NewUserRepository creates a new UserRepository
func NewUserRepository(db *sql.DB) *UserRepository {
	return &UserRepository{db: db, now: time.Now}
}

// Upsert registers a user. A new row gets the current timestamp; an
// existing row only has its username replaced.
func (r *UserRepository) Upsert(ctx context.Context, userID int64, username string) error {
	query := `
		INSERT INTO users (user_id, username, date_added)
		VALUES (?, ?, ?)
		ON CONFLICT(user_id) DO UPDATE SET username = excluded.username
	`

	_, err := r.db.ExecContext(ctx, query, userID, username, r.now().Format(models.DateLayout))
	if err != nil {
		return fmt.Errorf("failed to upsert user: %w", err)
	}
	return nil
}

// MarkReachedEnd flags that the user has seen the whole onboarding deck.
// Unknown ids are ignored.
func (r *UserRepository) MarkReachedEnd(ctx context.Context, userID int64) error {
	_, err := r.db.ExecContext(ctx, `UPDATE users SET reached_end = 1 WHERE user_id = ?`, userID)
	if err != nil {
		return fmt.Errorf("failed to mark reached end: %w", err)
	}
	return nil
}

// ListIDs returns the ids of all stored users
func (r *UserRepository) ListIDs(ctx context.Context) ([]int64, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT user_id FROM users`)
	if err != nil {
		return nil, fmt.Errorf("failed to list user ids: %w", err)
	}
	defer rows.Close()

	ids := make([]int64, 0, 128)
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan user id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// ListAll returns every row ordered by user id
func (r *UserRepository) ListAll(ctx context.Context) ([]models.User, error) {
	query := `SELECT user_id, username, reached_end, date_added FROM users ORDER BY user_id`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	defer rows.Close()

	var users []models.User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, *user)
	}
	return users, rows.Err()
}

// GetByID retrieves a user; it returns nil, nil when the user is absent.
func (r *UserRepository) GetByID(ctx context.Context, userID int64) (*models.User, error) {
	query := `SELECT user_id, username, reached_end, date_added FROM users WHERE user_id = ?`

	user, err := scanUser(r.db.QueryRowContext(ctx, query, userID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return user, nil
}

// GetTotalUsers returns total number of unique users
func (r *UserRepository) GetTotalUsers(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM users").Scan(&count)
	return count, err
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (*models.User, error) {
	user := &models.User{}
	var username, dateAdded sql.NullString
	var reachedEnd sql.NullInt64

	err := row.Scan(&user.ID, &username, &reachedEnd, &dateAdded)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan user: %w", err)
	}

	user.Username = username.String
	user.ReachedEnd = reachedEnd.Int64 != 0
	user.DateAdded = dateAdded.String
	return user, nil
}
