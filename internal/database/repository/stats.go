package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/artur/slide-bot/internal/database/models"
)

// StatsRepository runs aggregate queries over the users table
type StatsRepository struct {
	db *sql.DB
}

// NewStatsRepository creates a new StatsRepository
func NewStatsRepository(db *sql.DB) *StatsRepository {
	return &StatsRepository{db: db}
}

// CountReachedEnd returns how many users finished onboarding
func (r *StatsRepository) CountReachedEnd(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM users WHERE reached_end = 1`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count reached end: %w", err)
	}
	return count, nil
}

// RegistrationsByDay groups users by registration date, oldest first.
// Rows without a date_added value are skipped.
func (r *StatsRepository) RegistrationsByDay(ctx context.Context) ([]models.DayCount, error) {
	query := `
		SELECT substr(date_added, 1, 10) AS day, COUNT(*) AS count
		FROM users
		WHERE date_added IS NOT NULL AND date_added != ''
		GROUP BY day
		ORDER BY day
	`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to get registrations by day: %w", err)
	}
	defer rows.Close()

	var results []models.DayCount
	for rows.Next() {
		var item models.DayCount
		if err := rows.Scan(&item.Day, &item.Count); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		results = append(results, item)
	}

	return results, rows.Err()
}
