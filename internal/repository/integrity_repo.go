package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/noah-isme/arena-go-api/internal/models"
)

// IntegrityRepository stores webhook verdicts that arrived before their result existed.
type IntegrityRepository interface {
	SaveOrphan(ctx context.Context, orphan *models.OrphanIntegrityResult) error
	ListOrphans(ctx context.Context, contestID, userID uint) ([]models.OrphanIntegrityResult, error)
	DeleteOrphans(ctx context.Context, ids []uint) error
}

type integrityRepository struct {
	db *gorm.DB
}

// NewIntegrityRepository instantiates the repository.
func NewIntegrityRepository(db *gorm.DB) IntegrityRepository {
	return &integrityRepository{db: db}
}

func (r *integrityRepository) SaveOrphan(ctx context.Context, orphan *models.OrphanIntegrityResult) error {
	// Re-delivered webhooks overwrite the previous row for the same submission.
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "submission_id"}},
			UpdateAll: true,
		}).
		Create(orphan).Error
}

func (r *integrityRepository) ListOrphans(ctx context.Context, contestID, userID uint) ([]models.OrphanIntegrityResult, error) {
	var orphans []models.OrphanIntegrityResult
	err := r.db.WithContext(ctx).
		Where("contest_id = ?", contestID).
		Where("user_id = ?", userID).
		Order("created_at ASC").
		Find(&orphans).Error
	if err != nil {
		return nil, err
	}

	return orphans, nil
}

func (r *integrityRepository) DeleteOrphans(ctx context.Context, ids []uint) error {
	if len(ids) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Delete(&models.OrphanIntegrityResult{}, ids).Error
}
