package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/noah-isme/arena-go-api/internal/models"
)

func TestContestRepositoryGetByIDOrdersProblems(t *testing.T) {
	db := setupRepoTestDB(t, &models.Contest{}, &models.Problem{})
	repo := NewContestRepository(db)

	starts := time.Date(2025, 3, 10, 8, 0, 0, 0, time.UTC)
	contest := models.Contest{
		ID:              400,
		Title:           "Qualifier Round",
		Slug:            "qualifier-round",
		StartsAt:        starts,
		EndsAt:          starts.Add(6 * time.Hour),
		DurationMinutes: 60,
		Problems: []models.Problem{
			{ID: 402, Title: "Graph Paths", Difficulty: models.DifficultyHard, Position: 2},
			{ID: 401, Title: "Two Sum", Difficulty: models.DifficultyEasy, Position: 1},
		},
	}
	require.NoError(t, db.Create(&contest).Error)

	stored, err := repo.GetByID(context.Background(), 400)
	require.NoError(t, err)
	require.Len(t, stored.Problems, 2)
	require.Equal(t, "Two Sum", stored.Problems[0].Title)
	require.Equal(t, "Graph Paths", stored.Problems[1].Title)
}

func TestContestRepositoryGetByIDMissing(t *testing.T) {
	db := setupRepoTestDB(t, &models.Contest{}, &models.Problem{})
	repo := NewContestRepository(db)

	_, err := repo.GetByID(context.Background(), 999999)
	require.ErrorIs(t, err, gorm.ErrRecordNotFound)
}
