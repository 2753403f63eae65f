package assess

import "github.com/hirevox/hirevox/internal/utils"

// SkillAssessment is one row of the skills matrix. TargetLevel, when set,
// is only compared against, never written by the matrix.
type SkillAssessment struct {
	SkillLabel  string   `json:"skill_label"`
	Rating      float64  `json:"rating"` // [0,5] in 0.5 steps, 0 = unrated
	Notes       string   `json:"notes,omitempty"`
	Required    bool     `json:"required"`
	TargetLevel *float64 `json:"target_level,omitempty"`
}

// Proficiency buckets derived from the mean rating.
const (
	ProficiencyNovice       = "Novice"
	ProficiencyBeginner     = "Beginner"
	ProficiencyIntermediate = "Intermediate"
	ProficiencyProficient   = "Proficient"
	ProficiencyExpert       = "Expert"
)

type Summary struct {
	MeanRating       float64 `json:"mean_rating"`
	MeetsTargetCount int     `json:"meets_target_count"`
	Proficiency      string  `json:"proficiency"`
}

// Matrix composes one rating per skill plus derived aggregates. ReadOnly
// disables mutation only; Summary is identical either way.
type Matrix struct {
	Skills    []SkillAssessment
	ReadOnly  bool
	AllowHalf bool
}

func NewMatrix(skills []SkillAssessment) *Matrix {
	return &Matrix{Skills: skills, AllowHalf: true}
}

func (m *Matrix) SetRating(i int, v float64) error {
	const op = "Matrix.SetRating"

	if m.ReadOnly {
		return utils.E(utils.CodeInvalidArgument, op, "matrix is read-only", nil)
	}
	if i < 0 || i >= len(m.Skills) {
		return utils.E(utils.CodeInvalidArgument, op, "skill index out of range", nil)
	}
	m.Skills[i].Rating = SnapRating(v, DefaultMaxRating, m.AllowHalf)
	return nil
}

func (m *Matrix) SetNotes(i int, notes string) error {
	const op = "Matrix.SetNotes"

	if m.ReadOnly {
		return utils.E(utils.CodeInvalidArgument, op, "matrix is read-only", nil)
	}
	if i < 0 || i >= len(m.Skills) {
		return utils.E(utils.CodeInvalidArgument, op, "skill index out of range", nil)
	}
	m.Skills[i].Notes = notes
	return nil
}

// Summary computes the aggregates. Unrated skills count as 0 in the mean
// on purpose: an unassessed required skill must pull the average down
// rather than disappear from it.
func (m *Matrix) Summary() Summary {
	return Summarize(m.Skills)
}

func Summarize(skills []SkillAssessment) Summary {
	if len(skills) == 0 {
		return Summary{Proficiency: ProficiencyNovice}
	}

	var sum float64
	meets := 0
	for _, s := range skills {
		sum += s.Rating
		if s.TargetLevel != nil && s.Rating >= *s.TargetLevel {
			meets++
		}
	}
	mean := sum / float64(len(skills))

	return Summary{
		MeanRating:       mean,
		MeetsTargetCount: meets,
		Proficiency:      ProficiencyBucket(mean),
	}
}

func ProficiencyBucket(mean float64) string {
	switch {
	case mean < 1.5:
		return ProficiencyNovice
	case mean < 2.5:
		return ProficiencyBeginner
	case mean < 3.5:
		return ProficiencyIntermediate
	case mean < 4.5:
		return ProficiencyProficient
	default:
		return ProficiencyExpert
	}
}
