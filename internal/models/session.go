package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type InterviewSession struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	SessionID string             `bson:"session_id" json:"session_id"` // uuid v4
	JobID     string             `bson:"job_id" json:"job_id"`

	CandidateName string `bson:"candidate_name" json:"candidate_name"`
	JobTitle      string `bson:"job_title" json:"job_title"`
	CompanyName   string `bson:"company_name" json:"company_name"`

	MaxDurationSeconds int64 `bson:"max_duration_seconds" json:"max_duration_seconds"`
	TotalQuestions     int32 `bson:"total_questions" json:"total_questions"`

	Status    string `bson:"status" json:"status"`                           // scheduled|active|completed
	EndReason string `bson:"end_reason,omitempty" json:"end_reason,omitempty"` // user_ended|time_limit|sign_off

	// bcrypt hash of the one-time code the candidate uses to join
	AccessCodeHash string `bson:"access_code_hash,omitempty" json:"-"`

	CreatedAt time.Time  `bson:"created_at" json:"created_at"`
	StartedAt *time.Time `bson:"started_at,omitempty" json:"started_at,omitempty"`
	EndedAt   *time.Time `bson:"ended_at,omitempty" json:"ended_at,omitempty"`

	DurationSeconds int64 `bson:"duration_seconds" json:"duration_seconds"`
}
