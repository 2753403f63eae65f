package models

import (
	"time"

	"github.com/pgvector/pgvector-go"
	"gorm.io/datatypes"
)

type TranscriptRecord struct {
	ID             string          `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	SessionID      string          `gorm:"column:session_id;type:uuid;index" json:"session_id"`
	Speaker        string          `gorm:"column:speaker;type:text" json:"speaker"` // "interviewer" | "candidate"
	Text           string          `gorm:"column:text;type:text" json:"text"`
	ElapsedSeconds int             `gorm:"column:elapsed_seconds;type:integer" json:"elapsed_seconds"`
	Embedding      pgvector.Vector `gorm:"column:embedding;type:vector(768)" json:"embedding"`
	Timestamp      time.Time       `gorm:"column:timestamp;type:timestamptz;index" json:"timestamp"`
	Metadata       datatypes.JSON  `gorm:"column:metadata;type:jsonb" json:"metadata"`
}

func (TranscriptRecord) TableName() string { return "transcript_records" }
