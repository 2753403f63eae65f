package postgres

import (
	"context"

	"github.com/hirevox/hirevox/internal/models"
	"gorm.io/gorm"
)

type TranscriptRepository interface {
	Insert(ctx context.Context, rec *models.TranscriptRecord) error
	ListBySession(ctx context.Context, sessionID string, limit int) ([]models.TranscriptRecord, error)
}

type transcriptRepo struct {
	db *gorm.DB
}

func NewTranscriptRepo(db *gorm.DB) TranscriptRepository {
	return &transcriptRepo{db: db}
}

func (r *transcriptRepo) Insert(ctx context.Context, rec *models.TranscriptRecord) error {
	return r.db.WithContext(ctx).Create(rec).Error
}

func (r *transcriptRepo) ListBySession(ctx context.Context, sessionID string, limit int) ([]models.TranscriptRecord, error) {
	if limit <= 0 {
		limit = 500
	}

	var rows []models.TranscriptRecord
	err := r.db.WithContext(ctx).
		Where("session_id = ?", sessionID).
		Order("elapsed_seconds ASC, timestamp ASC").
		Limit(limit).
		Find(&rows).Error
	return rows, err
}
