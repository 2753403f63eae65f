package postgres

import (
	"context"
	"errors"

	"github.com/hirevox/hirevox/internal/models"
	"github.com/hirevox/hirevox/internal/utils"
	"gorm.io/gorm"
)

type RecordingRepository interface {
	Insert(ctx context.Context, f *models.RecordingFile) error
	LatestBySession(ctx context.Context, sessionID string) (*models.RecordingFile, error)
}

type recordingRepo struct {
	db *gorm.DB
}

func NewRecordingRepo(db *gorm.DB) RecordingRepository {
	return &recordingRepo{db: db}
}

func (r *recordingRepo) Insert(ctx context.Context, f *models.RecordingFile) error {
	return r.db.WithContext(ctx).Create(f).Error
}

func (r *recordingRepo) LatestBySession(ctx context.Context, sessionID string) (*models.RecordingFile, error) {
	var row models.RecordingFile
	err := r.db.WithContext(ctx).
		Where("session_id = ?", sessionID).
		Order("uploaded_at DESC").
		Take(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, utils.ErrNotFound
	}
	return &row, err
}
