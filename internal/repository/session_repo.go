package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/noah-isme/arena-go-api/internal/models"
)

// SessionRepository defines data operations for timed attempt sessions.
type SessionRepository interface {
	GetActive(ctx context.Context, contestID, userID uint) (models.Session, error)
	GetLatest(ctx context.Context, contestID, userID uint) (models.Session, error)
	Create(ctx context.Context, session *models.Session) error
	Update(ctx context.Context, session *models.Session) error
}

type sessionRepository struct {
	db *gorm.DB
}

// NewSessionRepository instantiates the repository.
func NewSessionRepository(db *gorm.DB) SessionRepository {
	return &sessionRepository{db: db}
}

func (r *sessionRepository) GetActive(ctx context.Context, contestID, userID uint) (models.Session, error) {
	var session models.Session
	err := r.db.WithContext(ctx).
		Where("contest_id = ?", contestID).
		Where("user_id = ?", userID).
		Where("status = ?", models.SessionStatusActive).
		Order("created_at DESC").
		First(&session).Error
	if err != nil {
		return models.Session{}, err
	}

	return session, nil
}

func (r *sessionRepository) GetLatest(ctx context.Context, contestID, userID uint) (models.Session, error) {
	var session models.Session
	err := r.db.WithContext(ctx).
		Where("contest_id = ?", contestID).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		First(&session).Error
	if err != nil {
		return models.Session{}, err
	}

	return session, nil
}

func (r *sessionRepository) Create(ctx context.Context, session *models.Session) error {
	return r.db.WithContext(ctx).Create(session).Error
}

func (r *sessionRepository) Update(ctx context.Context, session *models.Session) error {
	return r.db.WithContext(ctx).Save(session).Error
}
