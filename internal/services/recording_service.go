package services

import (
	"bytes"
	"context"
	"encoding/base64"
	"strings"
	"time"

	"github.com/hirevox/hirevox/internal/models"
	mongorepo "github.com/hirevox/hirevox/internal/repositories/mongo"
	pgrepo "github.com/hirevox/hirevox/internal/repositories/postgres"
	"github.com/hirevox/hirevox/internal/storage"
	"github.com/hirevox/hirevox/internal/utils"

	"github.com/google/uuid"
)

type RecordingService interface {
	// Finalize assembles the session's buffered chunks in order, uploads
	// the recording, and records where it landed. Chunks expire from the
	// buffer afterwards via the TTL index.
	Finalize(ctx context.Context, sessionID, mimeType string) (*models.RecordingFile, error)
	LatestBySession(ctx context.Context, sessionID string) (*models.RecordingFile, error)
	// SignedURL returns a short-lived GET URL for the session's latest
	// recording; objects themselves stay private.
	SignedURL(ctx context.Context, sessionID string, ttl time.Duration) (string, error)
}

type recordingService struct {
	chunks     mongorepo.ChunkRepository
	recordings pgrepo.RecordingRepository
	uploader   storage.Uploader
	signer     storage.Signer
}

func NewRecordingService(chunks mongorepo.ChunkRepository, recordings pgrepo.RecordingRepository, uploader storage.Uploader, signer storage.Signer) RecordingService {
	return &recordingService{chunks: chunks, recordings: recordings, uploader: uploader, signer: signer}
}

func (s *recordingService) Finalize(ctx context.Context, sessionID, mimeType string) (*models.RecordingFile, error) {
	const op = "RecordingService.Finalize"

	if sessionID == "" {
		return nil, utils.E(utils.CodeInvalidArgument, op, "session_id is required", nil)
	}
	if mimeType == "" {
		mimeType = "video/webm"
	}

	chunks, err := s.chunks.ListBySession(ctx, sessionID, 0)
	if err != nil {
		return nil, utils.E(utils.CodeInternal, op, "failed to list media chunks", err)
	}
	if len(chunks) == 0 {
		return nil, utils.E(utils.CodeNotFound, op, "no media chunks buffered for session", nil)
	}

	var assembled bytes.Buffer
	for _, c := range chunks {
		if c.MediaBase64 == nil {
			continue
		}
		raw := *c.MediaBase64
		if i := strings.Index(raw, ","); i >= 0 {
			raw = raw[i+1:] // strip data:...;base64,
		}
		decoded, derr := base64.StdEncoding.DecodeString(raw)
		if derr != nil {
			return nil, utils.E(utils.CodeInternal, op, "corrupt media chunk in buffer", derr)
		}
		assembled.Write(decoded)
	}
	if assembled.Len() == 0 {
		return nil, utils.E(utils.CodeNotFound, op, "buffered chunks carried no media", nil)
	}

	objectName := "recordings/" + sessionID + "/" + uuid.NewString()
	path, err := s.uploader.Upload(ctx, objectName, mimeType, &assembled)
	if err != nil {
		return nil, utils.E(utils.CodeUnavailable, op, "failed to upload recording", err)
	}

	row := &models.RecordingFile{
		ID:         uuid.NewString(),
		SessionID:  sessionID,
		ObjectPath: path,
		SizeBytes:  int64(assembled.Len()),
		MimeType:   mimeType,
		UploadedAt: time.Now().UTC(),
	}
	if err := s.recordings.Insert(ctx, row); err != nil {
		return nil, utils.E(utils.CodeInternal, op, "failed to record upload", err)
	}
	return row, nil
}

func (s *recordingService) LatestBySession(ctx context.Context, sessionID string) (*models.RecordingFile, error) {
	const op = "RecordingService.LatestBySession"

	if sessionID == "" {
		return nil, utils.E(utils.CodeInvalidArgument, op, "session_id is required", nil)
	}
	out, err := s.recordings.LatestBySession(ctx, sessionID)
	if err != nil {
		if err == utils.ErrNotFound {
			return nil, utils.E(utils.CodeNotFound, op, "no recording for session", err)
		}
		return nil, utils.E(utils.CodeInternal, op, "failed to load recording", err)
	}
	return out, nil
}

func (s *recordingService) SignedURL(ctx context.Context, sessionID string, ttl time.Duration) (string, error) {
	const op = "RecordingService.SignedURL"

	rec, err := s.LatestBySession(ctx, sessionID)
	if err != nil {
		return "", err
	}
	if s.signer == nil {
		return "", utils.E(utils.CodeInternal, op, "no url signer configured", nil)
	}
	url, err := s.signer.SignedGetURL(ctx, rec.ObjectPath, ttl)
	if err != nil {
		return "", utils.E(utils.CodeInternal, op, "failed to sign url", err)
	}
	return url, nil
}
