package services

import (
	"context"
	"time"

	"github.com/hirevox/hirevox/internal/models"
	mongorepo "github.com/hirevox/hirevox/internal/repositories/mongo"
	"github.com/hirevox/hirevox/internal/utils"
)

type ChunkService interface {
	InsertMediaChunk(ctx context.Context, sessionID string, chunkIndex int64, mediaURL, mediaBase64 *string, sizeBytes int64) (*models.MediaChunk, error)
	MarkSTT(ctx context.Context, sessionID string, chunkIndex int64, rawText string, confidence float64, status string) error
	ListBySession(ctx context.Context, sessionID string, limit int64) ([]models.MediaChunk, error)
}

type chunkService struct {
	chunks mongorepo.ChunkRepository
	ttl    time.Duration
}

func NewChunkService(chunks mongorepo.ChunkRepository, ttl time.Duration) ChunkService {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &chunkService{chunks: chunks, ttl: ttl}
}

func (s *chunkService) InsertMediaChunk(ctx context.Context, sessionID string, chunkIndex int64, mediaURL, mediaBase64 *string, sizeBytes int64) (*models.MediaChunk, error) {
	const op = "ChunkService.InsertMediaChunk"

	if sessionID == "" || chunkIndex <= 0 {
		return nil, utils.E(utils.CodeInvalidArgument, op, "session_id is required and chunk_index must be > 0", nil)
	}

	now := time.Now().UTC()
	doc := &models.MediaChunk{
		SessionID:   sessionID,
		ChunkIndex:  chunkIndex,
		MediaURL:    mediaURL,
		MediaBase64: mediaBase64,
		SizeBytes:   sizeBytes,

		STTStatus: "pending",

		Timestamp: now,
		ExpiresAt: now.Add(s.ttl),
	}

	if err := s.chunks.InsertChunk(ctx, doc); err != nil {
		return nil, utils.E(utils.CodeInternal, op, "failed to insert media chunk", err)
	}
	return doc, nil
}

func (s *chunkService) MarkSTT(ctx context.Context, sessionID string, chunkIndex int64, rawText string, confidence float64, status string) error {
	const op = "ChunkService.MarkSTT"

	if sessionID == "" || chunkIndex <= 0 || status == "" {
		return utils.E(utils.CodeInvalidArgument, op, "session_id, chunk_index (>0), and status are required", nil)
	}
	if err := s.chunks.UpdateSTT(ctx, sessionID, chunkIndex, rawText, confidence, status); err != nil {
		return utils.E(utils.CodeInternal, op, "failed to update stt fields", err)
	}
	return nil
}

func (s *chunkService) ListBySession(ctx context.Context, sessionID string, limit int64) ([]models.MediaChunk, error) {
	const op = "ChunkService.ListBySession"

	if sessionID == "" {
		return nil, utils.E(utils.CodeInvalidArgument, op, "session_id is required", nil)
	}
	out, err := s.chunks.ListBySession(ctx, sessionID, limit)
	if err != nil {
		return nil, utils.E(utils.CodeInternal, op, "failed to list media chunks", err)
	}
	return out, nil
}
