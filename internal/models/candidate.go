package models

import (
	"time"

	"github.com/lib/pq"
	"github.com/pgvector/pgvector-go"
	"gorm.io/datatypes"
)

type CandidateProfile struct {
	CandidateID string `gorm:"column:candidate_id;type:uuid;primaryKey" json:"candidate_id"`
	FullName    string `gorm:"column:full_name;type:text" json:"full_name"`
	Email       string `gorm:"column:email;type:text;index" json:"email"`
	CVText      string `gorm:"column:cv_text;type:text" json:"cv_text"`

	Skills pq.StringArray `gorm:"column:skills;type:text[]" json:"skills"`

	// JSONB, structure owned by the frontend forms
	Experience  datatypes.JSON `gorm:"column:experience;type:jsonb" json:"experience"`
	Education   datatypes.JSON `gorm:"column:education;type:jsonb" json:"education"`
	Preferences datatypes.JSON `gorm:"column:preferences;type:jsonb" json:"preferences"`

	// pgvector, filled by the AI matching layer
	CVEmbedding pgvector.Vector `gorm:"column:cv_embedding;type:vector(768)" json:"cv_embedding"`

	UpdatedAt time.Time `gorm:"column:updated_at;type:timestamptz" json:"updated_at"`
}

func (CandidateProfile) TableName() string { return "candidate_profiles" }
