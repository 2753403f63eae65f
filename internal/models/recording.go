package models

import "time"

type RecordingFile struct {
	ID         string `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	SessionID  string `gorm:"column:session_id;type:uuid;index" json:"session_id"`
	ObjectPath string `gorm:"column:object_path;type:text" json:"object_path"`

	SizeBytes int64  `gorm:"column:size_bytes;type:bigint" json:"size_bytes"`
	MimeType  string `gorm:"column:mime_type;type:text" json:"mime_type"`

	UploadedAt time.Time `gorm:"column:uploaded_at;type:timestamptz" json:"uploaded_at"`
}

func (RecordingFile) TableName() string { return "recording_files" }
