package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/noah-isme/arena-go-api/internal/models"
)

// ContestRepository defines read access to contests and their problem sets.
type ContestRepository interface {
	GetByID(ctx context.Context, id uint) (models.Contest, error)
}

type contestRepository struct {
	db *gorm.DB
}

// NewContestRepository instantiates the repository.
func NewContestRepository(db *gorm.DB) ContestRepository {
	return &contestRepository{db: db}
}

func (r *contestRepository) GetByID(ctx context.Context, id uint) (models.Contest, error) {
	var contest models.Contest
	err := r.db.WithContext(ctx).
		Preload("Problems", func(db *gorm.DB) *gorm.DB {
			return db.Order("position ASC")
		}).
		First(&contest, id).Error
	if err != nil {
		return models.Contest{}, err
	}

	return contest, nil
}
