package services

import (
	"context"
	"errors"
	"time"

	"github.com/hirevox/hirevox/internal/cache"
	"github.com/hirevox/hirevox/internal/models"
	mongorepo "github.com/hirevox/hirevox/internal/repositories/mongo"
	"github.com/hirevox/hirevox/internal/utils"

	"github.com/google/uuid"
)

// DefaultMaxDurationSeconds is the session length when the scheduler does
// not specify one (30 minutes).
const DefaultMaxDurationSeconds = 1800

const sessionCacheTTL = 30 * time.Second

type StartSessionInput struct {
	JobID          string
	CandidateName  string
	JobTitle       string
	CompanyName    string
	MaxDuration    int64
	TotalQuestions int32
	AccessCode     string
}

type SessionService interface {
	Schedule(ctx context.Context, in StartSessionInput) (*models.InterviewSession, error)
	Get(ctx context.Context, sessionID string) (*models.InterviewSession, error)
	VerifyAccess(ctx context.Context, sessionID, accessCode string) error
	Begin(ctx context.Context, sessionID string) (*models.InterviewSession, error)
	End(ctx context.Context, sessionID, reason string) (*models.InterviewSession, error)
	ListByJob(ctx context.Context, jobID string, limit int64) ([]models.InterviewSession, error)
}

type sessionService struct {
	sessions mongorepo.SessionRepository
	cache    cache.Cache
}

func NewSessionService(sessions mongorepo.SessionRepository, c cache.Cache) SessionService {
	return &sessionService{sessions: sessions, cache: c}
}

func sessionCacheKey(sessionID string) string { return "session:" + sessionID }

func (s *sessionService) Schedule(ctx context.Context, in StartSessionInput) (*models.InterviewSession, error) {
	const op = "SessionService.Schedule"

	if in.JobID == "" || in.CandidateName == "" {
		return nil, utils.E(utils.CodeInvalidArgument, op, "job_id and candidate_name are required", nil)
	}
	if in.MaxDuration <= 0 {
		in.MaxDuration = DefaultMaxDurationSeconds
	}
	if in.TotalQuestions <= 0 {
		in.TotalQuestions = 10
	}

	session := &models.InterviewSession{
		SessionID:          uuid.NewString(),
		JobID:              in.JobID,
		CandidateName:      in.CandidateName,
		JobTitle:           in.JobTitle,
		CompanyName:        in.CompanyName,
		MaxDurationSeconds: in.MaxDuration,
		TotalQuestions:     in.TotalQuestions,
		Status:             "scheduled",
		CreatedAt:          time.Now().UTC(),
	}

	if in.AccessCode != "" {
		hash, err := utils.HashAccessCode(in.AccessCode)
		if err != nil {
			return nil, utils.E(utils.CodeInternal, op, "failed to hash access code", err)
		}
		session.AccessCodeHash = hash
	}

	if err := s.sessions.Create(ctx, session); err != nil {
		return nil, utils.E(utils.CodeInternal, op, "failed to create session", err)
	}
	return session, nil
}

func (s *sessionService) Get(ctx context.Context, sessionID string) (*models.InterviewSession, error) {
	const op = "SessionService.Get"

	if sessionID == "" {
		return nil, utils.E(utils.CodeInvalidArgument, op, "session_id is required", nil)
	}

	if s.cache != nil {
		var cached models.InterviewSession
		if hit, _ := s.cache.GetJSON(ctx, sessionCacheKey(sessionID), &cached); hit {
			return &cached, nil
		}
	}

	out, err := s.sessions.GetBySessionID(ctx, sessionID)
	if err != nil {
		if errors.Is(err, utils.ErrNotFound) {
			return nil, utils.E(utils.CodeNotFound, op, "session not found", err)
		}
		return nil, utils.E(utils.CodeInternal, op, "failed to get session", err)
	}

	if s.cache != nil {
		_ = s.cache.SetJSON(ctx, sessionCacheKey(sessionID), out, sessionCacheTTL)
	}
	return out, nil
}

func (s *sessionService) VerifyAccess(ctx context.Context, sessionID, accessCode string) error {
	const op = "SessionService.VerifyAccess"

	sess, err := s.Get(ctx, sessionID)
	if err != nil {
		return err
	}
	if sess.AccessCodeHash == "" {
		return nil
	}
	if !utils.CheckAccessCode(sess.AccessCodeHash, accessCode) {
		return utils.E(utils.CodeForbidden, op, "invalid access code", nil)
	}
	return nil
}

func (s *sessionService) Begin(ctx context.Context, sessionID string) (*models.InterviewSession, error) {
	const op = "SessionService.Begin"

	sess, err := s.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if sess.Status == "completed" {
		return nil, utils.E(utils.CodeConflict, op, "session already completed", nil)
	}

	now := time.Now().UTC()
	if err := s.sessions.MarkStarted(ctx, sessionID, now); err != nil {
		return nil, utils.E(utils.CodeInternal, op, "failed to mark session started", err)
	}
	s.invalidate(ctx, sessionID)

	sess.Status = "active"
	sess.StartedAt = &now
	return sess, nil
}

func (s *sessionService) End(ctx context.Context, sessionID, reason string) (*models.InterviewSession, error) {
	const op = "SessionService.End"

	if reason == "" {
		reason = "user_ended"
	}

	sess, err := s.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	started := sess.CreatedAt
	if sess.StartedAt != nil {
		started = *sess.StartedAt
	}
	dur := int64(now.Sub(started).Seconds())
	if dur < 0 {
		dur = 0
	}

	if err := s.sessions.End(ctx, sessionID, reason, now, dur); err != nil {
		return nil, utils.E(utils.CodeInternal, op, "failed to end session", err)
	}
	s.invalidate(ctx, sessionID)

	sess.Status = "completed"
	sess.EndReason = reason
	sess.EndedAt = &now
	sess.DurationSeconds = dur
	return sess, nil
}

func (s *sessionService) ListByJob(ctx context.Context, jobID string, limit int64) ([]models.InterviewSession, error) {
	const op = "SessionService.ListByJob"

	if jobID == "" {
		return nil, utils.E(utils.CodeInvalidArgument, op, "job_id is required", nil)
	}
	out, err := s.sessions.ListByJob(ctx, jobID, limit)
	if err != nil {
		return nil, utils.E(utils.CodeInternal, op, "failed to list sessions", err)
	}
	return out, nil
}

func (s *sessionService) invalidate(ctx context.Context, sessionID string) {
	if s.cache != nil {
		_ = s.cache.Del(ctx, sessionCacheKey(sessionID))
	}
}
