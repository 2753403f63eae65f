package mongo

import (
	"context"
	"time"

	"github.com/hirevox/hirevox/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type ChunkRepository interface {
	InsertChunk(ctx context.Context, c *models.MediaChunk) error
	UpdateSTT(ctx context.Context, sessionID string, chunkIndex int64, rawText string, confidence float64, status string) error
	ListBySession(ctx context.Context, sessionID string, limit int64) ([]models.MediaChunk, error)
}

type chunkRepo struct {
	col *mongo.Collection
}

func NewChunkRepo(db *mongo.Database) ChunkRepository {
	return &chunkRepo{col: db.Collection("media_chunks")}
}

func (r *chunkRepo) InsertChunk(ctx context.Context, c *models.MediaChunk) error {
	if c.Timestamp.IsZero() {
		c.Timestamp = time.Now().UTC()
	}
	_, err := r.col.InsertOne(ctx, c)
	return err
}

func (r *chunkRepo) UpdateSTT(ctx context.Context, sessionID string, chunkIndex int64, rawText string, confidence float64, status string) error {
	_, err := r.col.UpdateOne(ctx,
		bson.M{"session_id": sessionID, "chunk_index": chunkIndex},
		bson.M{"$set": bson.M{
			"raw_text":       rawText,
			"stt_confidence": confidence,
			"stt_status":     status,
		}},
	)
	return err
}

func (r *chunkRepo) ListBySession(ctx context.Context, sessionID string, limit int64) ([]models.MediaChunk, error) {
	opts := options.Find().SetSort(bson.D{{Key: "chunk_index", Value: 1}})
	if limit > 0 {
		opts = opts.SetLimit(limit)
	}

	cur, err := r.col.Find(ctx, bson.M{"session_id": sessionID}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []models.MediaChunk
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}
