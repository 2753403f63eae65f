package postgres

import (
	"context"
	"errors"

	"github.com/hirevox/hirevox/internal/models"
	"github.com/hirevox/hirevox/internal/utils"
	"gorm.io/gorm"
)

type FeedbackRepository interface {
	Insert(ctx context.Context, f *models.InterviewFeedback) error
	GetByID(ctx context.Context, id string) (*models.InterviewFeedback, error)
	ListBySession(ctx context.Context, sessionID string) ([]models.InterviewFeedback, error)
}

type feedbackRepo struct {
	db *gorm.DB
}

func NewFeedbackRepo(db *gorm.DB) FeedbackRepository {
	return &feedbackRepo{db: db}
}

func (r *feedbackRepo) Insert(ctx context.Context, f *models.InterviewFeedback) error {
	return r.db.WithContext(ctx).Create(f).Error
}

func (r *feedbackRepo) GetByID(ctx context.Context, id string) (*models.InterviewFeedback, error) {
	var row models.InterviewFeedback
	err := r.db.WithContext(ctx).Where("id = ?", id).Take(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, utils.ErrNotFound
	}
	return &row, err
}

func (r *feedbackRepo) ListBySession(ctx context.Context, sessionID string) ([]models.InterviewFeedback, error) {
	var rows []models.InterviewFeedback
	err := r.db.WithContext(ctx).
		Where("session_id = ?", sessionID).
		Order("created_at DESC").
		Find(&rows).Error
	return rows, err
}
