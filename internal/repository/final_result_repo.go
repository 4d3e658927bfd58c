package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/noah-isme/arena-go-api/internal/models"
)

// FinalResultRepository defines data operations for finalized contest results.
type FinalResultRepository interface {
	GetByContestAndUser(ctx context.Context, contestID, userID uint) (models.FinalResult, error)
	Create(ctx context.Context, result *models.FinalResult) error
	// UpdateLocked applies fn to the stored row inside a transaction holding a
	// row-level lock, so concurrent webhook merges never lose aggregate updates.
	UpdateLocked(ctx context.Context, contestID, userID uint, fn func(result *models.FinalResult) error) (models.FinalResult, error)
	CountBetter(ctx context.Context, contestID, excludeUserID uint, finalScore, totalSolved, durationSeconds int) (int64, error)
}

type finalResultRepository struct {
	db *gorm.DB
}

// NewFinalResultRepository instantiates the repository.
func NewFinalResultRepository(db *gorm.DB) FinalResultRepository {
	return &finalResultRepository{db: db}
}

func (r *finalResultRepository) GetByContestAndUser(ctx context.Context, contestID, userID uint) (models.FinalResult, error) {
	var result models.FinalResult
	err := r.db.WithContext(ctx).
		Where("contest_id = ?", contestID).
		Where("user_id = ?", userID).
		First(&result).Error
	if err != nil {
		return models.FinalResult{}, err
	}

	return result, nil
}

func (r *finalResultRepository) Create(ctx context.Context, result *models.FinalResult) error {
	return r.db.WithContext(ctx).Create(result).Error
}

func (r *finalResultRepository) UpdateLocked(ctx context.Context, contestID, userID uint, fn func(result *models.FinalResult) error) (models.FinalResult, error) {
	var result models.FinalResult

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		query := tx.Where("contest_id = ?", contestID).Where("user_id = ?", userID)
		// sqlite (used in tests) rejects FOR UPDATE; its single writer
		// serializes the transaction anyway.
		if tx.Dialector.Name() == "postgres" {
			query = query.Clauses(clause.Locking{Strength: "UPDATE"})
		}
		if err := query.First(&result).Error; err != nil {
			return err
		}

		if err := fn(&result); err != nil {
			return err
		}

		return tx.Save(&result).Error
	})
	if err != nil {
		return models.FinalResult{}, err
	}

	return result, nil
}

func (r *finalResultRepository) CountBetter(ctx context.Context, contestID, excludeUserID uint, finalScore, totalSolved, durationSeconds int) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.FinalResult{}).
		Where("contest_id = ?", contestID).
		Where("user_id <> ?", excludeUserID).
		Where(
			r.db.Where("final_score > ?", finalScore).
				Or("final_score = ? AND total_solved > ?", finalScore, totalSolved).
				Or("final_score = ? AND total_solved = ? AND duration_seconds < ?", finalScore, totalSolved, durationSeconds),
		).
		Count(&count).Error
	if err != nil {
		return 0, err
	}

	return count, nil
}
