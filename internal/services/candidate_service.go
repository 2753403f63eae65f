package services

import (
	"context"
	"errors"
	"time"

	"github.com/hirevox/hirevox/internal/models"
	pgrepo "github.com/hirevox/hirevox/internal/repositories/postgres"
	"github.com/hirevox/hirevox/internal/utils"
)

type CandidateService interface {
	Get(ctx context.Context, candidateID string) (*models.CandidateProfile, error)
	Upsert(ctx context.Context, p *models.CandidateProfile) error
}

type candidateService struct {
	candidates pgrepo.CandidateRepository
}

func NewCandidateService(candidates pgrepo.CandidateRepository) CandidateService {
	return &candidateService{candidates: candidates}
}

func (s *candidateService) Get(ctx context.Context, candidateID string) (*models.CandidateProfile, error) {
	const op = "CandidateService.Get"

	if candidateID == "" {
		return nil, utils.E(utils.CodeInvalidArgument, op, "candidate_id is required", nil)
	}
	out, err := s.candidates.GetByCandidateID(ctx, candidateID)
	if err != nil {
		if errors.Is(err, utils.ErrNotFound) {
			return nil, utils.E(utils.CodeNotFound, op, "candidate not found", err)
		}
		return nil, utils.E(utils.CodeInternal, op, "failed to get candidate", err)
	}
	return out, nil
}

func (s *candidateService) Upsert(ctx context.Context, p *models.CandidateProfile) error {
	const op = "CandidateService.Upsert"

	if p == nil || p.CandidateID == "" {
		return utils.E(utils.CodeInvalidArgument, op, "candidate_id is required", nil)
	}
	p.UpdatedAt = time.Now().UTC()

	if err := s.candidates.Upsert(ctx, p); err != nil {
		return utils.E(utils.CodeInternal, op, "failed to upsert candidate", err)
	}
	return nil
}
