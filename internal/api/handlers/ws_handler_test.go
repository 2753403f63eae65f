package handlers

import (
	"bytes"
	"context"
	"encoding/base64"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/hirevox/hirevox/internal/models"
	"github.com/hirevox/hirevox/internal/services"
	"github.com/hirevox/hirevox/internal/utils"
)

type insertedChunk struct {
	sessionID   string
	chunkIndex  int64
	mediaURL    *string
	mediaBase64 *string
	sizeBytes   int64
}

type fakeChunkSvc struct {
	inserted []insertedChunk
}

func (f *fakeChunkSvc) InsertMediaChunk(ctx context.Context, sessionID string, chunkIndex int64, mediaURL, mediaBase64 *string, sizeBytes int64) (*models.MediaChunk, error) {
	f.inserted = append(f.inserted, insertedChunk{
		sessionID:   sessionID,
		chunkIndex:  chunkIndex,
		mediaURL:    mediaURL,
		mediaBase64: mediaBase64,
		sizeBytes:   sizeBytes,
	})
	return &models.MediaChunk{SessionID: sessionID, ChunkIndex: chunkIndex}, nil
}

func (f *fakeChunkSvc) MarkSTT(ctx context.Context, sessionID string, chunkIndex int64, rawText string, confidence float64, status string) error {
	return nil
}

func (f *fakeChunkSvc) ListBySession(ctx context.Context, sessionID string, limit int64) ([]models.MediaChunk, error) {
	return nil, nil
}

type fakeSessionSvc struct{}

func (fakeSessionSvc) Schedule(ctx context.Context, in services.StartSessionInput) (*models.InterviewSession, error) {
	return nil, nil
}

func (fakeSessionSvc) Get(ctx context.Context, sessionID string) (*models.InterviewSession, error) {
	return &models.InterviewSession{SessionID: sessionID, Status: "active"}, nil
}

func (fakeSessionSvc) VerifyAccess(ctx context.Context, sessionID, accessCode string) error {
	return nil
}

func (fakeSessionSvc) Begin(ctx context.Context, sessionID string) (*models.InterviewSession, error) {
	return nil, nil
}

func (fakeSessionSvc) End(ctx context.Context, sessionID, reason string) (*models.InterviewSession, error) {
	return nil, nil
}

func (fakeSessionSvc) ListByJob(ctx context.Context, jobID string, limit int64) ([]models.InterviewSession, error) {
	return nil, nil
}

// unreachableRedis fails every command fast; chunk buffering must not
// depend on redis being up.
func unreachableRedis() *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 50 * time.Millisecond,
		MaxRetries:  -1,
	})
}

func TestBinaryMediaFrameBuffersChunk(t *testing.T) {
	chunks := &fakeChunkSvc{}
	h := NewWSHandler(fakeSessionSvc{}, chunks, unreachableRedis())

	payload := []byte{0x1a, 0x45, 0xdf, 0xa3, 0x01, 0x02}
	err := h.ingestBinaryChunk(context.Background(), "sess-1", 1, payload)

	// redis is down so the enqueue fails, but the chunk is buffered first
	if !utils.IsCode(err, utils.CodeUnavailable) {
		t.Errorf("err = %v, want UNAVAILABLE from the enqueue step", err)
	}
	if len(chunks.inserted) != 1 {
		t.Fatalf("buffered %d chunks, want 1", len(chunks.inserted))
	}

	got := chunks.inserted[0]
	if got.sessionID != "sess-1" || got.chunkIndex != 1 {
		t.Errorf("chunk = %s/%d, want sess-1/1", got.sessionID, got.chunkIndex)
	}
	if got.sizeBytes != int64(len(payload)) {
		t.Errorf("size = %d, want %d", got.sizeBytes, len(payload))
	}
	if got.mediaURL != nil {
		t.Error("binary frame must not carry a media url")
	}
	if got.mediaBase64 == nil {
		t.Fatal("binary frame not encoded into the buffer")
	}
	decoded, derr := base64.StdEncoding.DecodeString(*got.mediaBase64)
	if derr != nil {
		t.Fatalf("buffered media not valid base64: %v", derr)
	}
	if !bytes.Equal(decoded, payload) {
		t.Errorf("buffered media = %x, want %x", decoded, payload)
	}
}

func TestBinaryFramesIndexedInArrivalOrder(t *testing.T) {
	chunks := &fakeChunkSvc{}
	h := NewWSHandler(fakeSessionSvc{}, chunks, unreachableRedis())
	ctx := context.Background()

	for i := int64(1); i <= 3; i++ {
		_ = h.ingestBinaryChunk(ctx, "sess-1", i, []byte{byte(i)})
	}

	if len(chunks.inserted) != 3 {
		t.Fatalf("buffered %d chunks, want 3", len(chunks.inserted))
	}
	for i, got := range chunks.inserted {
		if got.chunkIndex != int64(i+1) {
			t.Errorf("chunk %d has index %d, want %d", i, got.chunkIndex, i+1)
		}
	}
}

func TestEmptyBinaryFrameRejected(t *testing.T) {
	chunks := &fakeChunkSvc{}
	h := NewWSHandler(fakeSessionSvc{}, chunks, unreachableRedis())

	err := h.ingestBinaryChunk(context.Background(), "sess-1", 1, nil)
	if !utils.IsCode(err, utils.CodeInvalidArgument) {
		t.Errorf("err = %v, want INVALID_ARGUMENT", err)
	}
	if len(chunks.inserted) != 0 {
		t.Errorf("empty frame buffered %d chunks, want 0", len(chunks.inserted))
	}
}
