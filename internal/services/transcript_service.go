package services

import (
	"context"
	"time"

	"github.com/hirevox/hirevox/internal/models"
	pgrepo "github.com/hirevox/hirevox/internal/repositories/postgres"
	"github.com/hirevox/hirevox/internal/utils"

	"github.com/google/uuid"
)

type TranscriptService interface {
	Append(ctx context.Context, sessionID, speaker, text string, elapsedSeconds int, at time.Time) (*models.TranscriptRecord, error)
	ListBySession(ctx context.Context, sessionID string, limit int) ([]models.TranscriptRecord, error)
}

type transcriptService struct {
	transcripts pgrepo.TranscriptRepository
}

func NewTranscriptService(transcripts pgrepo.TranscriptRepository) TranscriptService {
	return &transcriptService{transcripts: transcripts}
}

func (s *transcriptService) Append(ctx context.Context, sessionID, speaker, text string, elapsedSeconds int, at time.Time) (*models.TranscriptRecord, error) {
	const op = "TranscriptService.Append"

	if sessionID == "" || speaker == "" {
		return nil, utils.E(utils.CodeInvalidArgument, op, "session_id and speaker are required", nil)
	}
	if text == "" {
		return nil, utils.E(utils.CodeInvalidArgument, op, "text is required", nil)
	}
	if at.IsZero() {
		at = time.Now().UTC()
	}

	row := &models.TranscriptRecord{
		ID:             uuid.NewString(),
		SessionID:      sessionID,
		Speaker:        speaker,
		Text:           text,
		ElapsedSeconds: elapsedSeconds,
		Timestamp:      at,
	}
	if err := s.transcripts.Insert(ctx, row); err != nil {
		return nil, utils.E(utils.CodeInternal, op, "failed to append transcript", err)
	}
	return row, nil
}

func (s *transcriptService) ListBySession(ctx context.Context, sessionID string, limit int) ([]models.TranscriptRecord, error) {
	const op = "TranscriptService.ListBySession"

	if sessionID == "" {
		return nil, utils.E(utils.CodeInvalidArgument, op, "session_id is required", nil)
	}
	out, err := s.transcripts.ListBySession(ctx, sessionID, limit)
	if err != nil {
		return nil, utils.E(utils.CodeInternal, op, "failed to list transcript", err)
	}
	return out, nil
}
