package repository_test

import (
	"context"
	"testing"

	"github.com/artur/slide-bot/internal/database/models"
	"github.com/artur/slide-bot/internal/database/repository"
)

func TestStatsRepository_CountReachedEnd(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()
	ctx := context.Background()

	userRepo := repository.NewUserRepository(db)
	statsRepo := repository.NewStatsRepository(db)

	userRepo.Upsert(ctx, 1, "a")
	userRepo.Upsert(ctx, 2, "b")
	userRepo.Upsert(ctx, 3, "c")
	userRepo.MarkReachedEnd(ctx, 1)
	userRepo.MarkReachedEnd(ctx, 3)

	count, err := statsRepo.CountReachedEnd(ctx)
	if err != nil {
		t.Fatalf("Failed to count: %v", err)
	}
	if count != 2 {
		t.Errorf("Expected 2 users at the end, got %d", count)
	}
}

func TestStatsRepository_RegistrationsByDay(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()
	ctx := context.Background()

	userRepo := repository.NewUserRepository(db)
	statsRepo := repository.NewStatsRepository(db)

	repository.SetClock(userRepo, fixedClock("2025-03-02T09:00:00"))
	userRepo.Upsert(ctx, 1, "a")
	userRepo.Upsert(ctx, 2, "b")
	repository.SetClock(userRepo, fixedClock("2025-03-01T23:59:59"))
	userRepo.Upsert(ctx, 3, "c")

	// legacy row without a registration date
	if _, err := db.Exec(`INSERT INTO users (user_id, username) VALUES (4, 'legacy')`); err != nil {
		t.Fatalf("Failed to insert legacy row: %v", err)
	}

	days, err := statsRepo.RegistrationsByDay(ctx)
	if err != nil {
		t.Fatalf("Failed to get registrations: %v", err)
	}

	expected := []models.DayCount{
		{Day: "2025-03-01", Count: 1},
		{Day: "2025-03-02", Count: 2},
	}
	if len(days) != len(expected) {
		t.Fatalf("Expected %d days, got %d: %+v", len(expected), len(days), days)
	}
	for i := range expected {
		if days[i] != expected[i] {
			t.Errorf("day %d: expected %+v, got %+v", i, expected[i], days[i])
		}
	}
}
