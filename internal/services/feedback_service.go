package services

import (
	"context"
	"encoding/json"
	"time"

	"github.com/hirevox/hirevox/internal/assess"
	"github.com/hirevox/hirevox/internal/models"
	pgrepo "github.com/hirevox/hirevox/internal/repositories/postgres"
	"github.com/hirevox/hirevox/internal/utils"

	"github.com/google/uuid"
)

type SubmitFeedbackInput struct {
	SessionID  string
	ReviewerID string
	Skills     []assess.SkillAssessment
	Notes      string
}

type FeedbackService interface {
	Submit(ctx context.Context, in SubmitFeedbackInput) (*models.InterviewFeedback, error)
	ListBySession(ctx context.Context, sessionID string) ([]models.InterviewFeedback, error)
}

type feedbackService struct {
	feedback pgrepo.FeedbackRepository
}

func NewFeedbackService(feedback pgrepo.FeedbackRepository) FeedbackService {
	return &feedbackService{feedback: feedback}
}

// Submit validates every rating against the scale and recomputes the
// matrix summary server-side; the client's aggregates are never trusted.
func (s *feedbackService) Submit(ctx context.Context, in SubmitFeedbackInput) (*models.InterviewFeedback, error) {
	const op = "FeedbackService.Submit"

	if in.SessionID == "" || in.ReviewerID == "" {
		return nil, utils.E(utils.CodeInvalidArgument, op, "session_id and reviewer_id are required", nil)
	}
	if len(in.Skills) == 0 {
		return nil, utils.E(utils.CodeInvalidArgument, op, "at least one skill assessment is required", nil)
	}
	for _, sk := range in.Skills {
		if !assess.ValidRating(sk.Rating, assess.DefaultMaxRating) {
			return nil, utils.E(utils.CodeInvalidArgument, op, "rating for "+sk.SkillLabel+" is off the scale", nil)
		}
	}

	summary := assess.Summarize(in.Skills)

	skillsJSON, err := json.Marshal(in.Skills)
	if err != nil {
		return nil, utils.E(utils.CodeInternal, op, "failed to encode skill assessments", err)
	}

	row := &models.InterviewFeedback{
		ID:         uuid.NewString(),
		SessionID:  in.SessionID,
		ReviewerID: in.ReviewerID,

		Skills: skillsJSON,

		MeanRating:       summary.MeanRating,
		MeetsTargetCount: summary.MeetsTargetCount,
		Proficiency:      summary.Proficiency,

		Notes:     in.Notes,
		CreatedAt: time.Now().UTC(),
	}

	if err := s.feedback.Insert(ctx, row); err != nil {
		return nil, utils.E(utils.CodeInternal, op, "failed to store feedback", err)
	}
	return row, nil
}

func (s *feedbackService) ListBySession(ctx context.Context, sessionID string) ([]models.InterviewFeedback, error) {
	const op = "FeedbackService.ListBySession"

	if sessionID == "" {
		return nil, utils.E(utils.CodeInvalidArgument, op, "session_id is required", nil)
	}
	out, err := s.feedback.ListBySession(ctx, sessionID)
	if err != nil {
		return nil, utils.E(utils.CodeInternal, op, "failed to list feedback", err)
	}
	return out, nil
}
