package models

import (
	"time"

	"gorm.io/datatypes"
)

type InterviewFeedback struct {
	ID         string `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	SessionID  string `gorm:"column:session_id;type:uuid;index" json:"session_id"`
	ReviewerID string `gorm:"column:reviewer_id;type:uuid;index" json:"reviewer_id"`

	// serialized []assess.SkillAssessment
	Skills datatypes.JSON `gorm:"column:skills;type:jsonb" json:"skills"`

	MeanRating       float64 `gorm:"column:mean_rating;type:double precision" json:"mean_rating"`
	MeetsTargetCount int     `gorm:"column:meets_target_count;type:integer" json:"meets_target_count"`
	Proficiency      string  `gorm:"column:proficiency;type:text" json:"proficiency"`

	Notes string `gorm:"column:notes;type:text" json:"notes"`

	CreatedAt time.Time `gorm:"column:created_at;type:timestamptz" json:"created_at"`
}

func (InterviewFeedback) TableName() string { return "interview_feedback" }
