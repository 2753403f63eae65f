package mongo

import (
	"context"
	"errors"
	"time"

	"github.com/hirevox/hirevox/internal/models"
	"github.com/hirevox/hirevox/internal/utils"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type SessionRepository interface {
	Create(ctx context.Context, s *models.InterviewSession) error
	GetBySessionID(ctx context.Context, sessionID string) (*models.InterviewSession, error)
	MarkStarted(ctx context.Context, sessionID string, startedAt time.Time) error
	End(ctx context.Context, sessionID, reason string, endedAt time.Time, durationSeconds int64) error
	ListByJob(ctx context.Context, jobID string, limit int64) ([]models.InterviewSession, error)
}

type sessionRepo struct {
	col *mongo.Collection
}

func NewSessionRepo(db *mongo.Database) SessionRepository {
	return &sessionRepo{col: db.Collection("interview_sessions")}
}

func (r *sessionRepo) Create(ctx context.Context, s *models.InterviewSession) error {
	if s.CreatedAt.IsZero() {
		s.CreatedAt = time.Now().UTC()
	}
	_, err := r.col.InsertOne(ctx, s)
	return err
}

func (r *sessionRepo) GetBySessionID(ctx context.Context, sessionID string) (*models.InterviewSession, error) {
	var s models.InterviewSession
	err := r.col.FindOne(ctx, bson.M{"session_id": sessionID}).Decode(&s)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, utils.ErrNotFound
	}
	return &s, err
}

func (r *sessionRepo) MarkStarted(ctx context.Context, sessionID string, startedAt time.Time) error {
	_, err := r.col.UpdateOne(ctx,
		bson.M{"session_id": sessionID},
		bson.M{"$set": bson.M{
			"status":     "active",
			"started_at": startedAt.UTC(),
		}},
	)
	return err
}

func (r *sessionRepo) End(ctx context.Context, sessionID, reason string, endedAt time.Time, durationSeconds int64) error {
	_, err := r.col.UpdateOne(ctx,
		bson.M{"session_id": sessionID},
		bson.M{"$set": bson.M{
			"status":           "completed",
			"end_reason":       reason,
			"ended_at":         endedAt.UTC(),
			"duration_seconds": durationSeconds,
		}},
	)
	return err
}

func (r *sessionRepo) ListByJob(ctx context.Context, jobID string, limit int64) ([]models.InterviewSession, error) {
	if limit <= 0 {
		limit = 100
	}

	cur, err := r.col.Find(ctx,
		bson.M{"job_id": jobID},
		options.Find().
			SetSort(bson.D{{Key: "created_at", Value: -1}}).
			SetLimit(limit),
	)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []models.InterviewSession
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}
