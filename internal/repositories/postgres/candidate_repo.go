package postgres

import (
	"context"
	"errors"

	"github.com/hirevox/hirevox/internal/models"
	"github.com/hirevox/hirevox/internal/utils"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type CandidateRepository interface {
	GetByCandidateID(ctx context.Context, candidateID string) (*models.CandidateProfile, error)
	Upsert(ctx context.Context, p *models.CandidateProfile) error
}

type candidateRepo struct {
	db *gorm.DB
}

func NewCandidateRepo(db *gorm.DB) CandidateRepository {
	return &candidateRepo{db: db}
}

func (r *candidateRepo) GetByCandidateID(ctx context.Context, candidateID string) (*models.CandidateProfile, error) {
	var p models.CandidateProfile
	err := r.db.WithContext(ctx).
		Where("candidate_id = ?", candidateID).
		Take(&p).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, utils.ErrNotFound
	}
	return &p, err
}

func (r *candidateRepo) Upsert(ctx context.Context, p *models.CandidateProfile) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "candidate_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"full_name", "email", "cv_text", "skills", "experience", "education", "preferences", "cv_embedding", "updated_at"}),
		}).
		Create(p).Error
}
