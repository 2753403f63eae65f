package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type MediaChunk struct {
	ID         primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	SessionID  string             `bson:"session_id" json:"session_id"`
	ChunkIndex int64              `bson:"chunk_index" json:"chunk_index"`

	MediaURL    *string `bson:"media_url,omitempty" json:"media_url,omitempty"`
	MediaBase64 *string `bson:"media_base64,omitempty" json:"media_base64,omitempty"`
	SizeBytes   int64   `bson:"size_bytes" json:"size_bytes"`

	RawText       string  `bson:"raw_text,omitempty" json:"raw_text,omitempty"`
	STTStatus     string  `bson:"stt_status" json:"stt_status"` // pending|processing|done|failed
	STTConfidence float64 `bson:"stt_confidence,omitempty" json:"stt_confidence,omitempty"`

	Timestamp time.Time `bson:"timestamp" json:"timestamp"`

	ExpiresAt time.Time `bson:"expires_at" json:"expires_at"` // for TTL index
}
