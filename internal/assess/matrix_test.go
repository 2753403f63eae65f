package assess

import (
	"math"
	"testing"
)

func target(v float64) *float64 { return &v }

func TestSummarizeMeanIncludesUnratedSkills(t *testing.T) {
	skills := []SkillAssessment{
		{SkillLabel: "Go", Rating: 4},
		{SkillLabel: "SQL", Rating: 3},
		{SkillLabel: "Kubernetes", Rating: 0, Required: true}, // unrated pulls the mean down
	}

	sum := Summarize(skills)
	want := (4.0 + 3.0 + 0.0) / 3.0
	if math.Abs(sum.MeanRating-want) > 1e-9 {
		t.Errorf("mean = %v, want %v (unrated counts as 0)", sum.MeanRating, want)
	}
}

func TestSummarizeMeetsTarget(t *testing.T) {
	skills := []SkillAssessment{
		{SkillLabel: "Go", Rating: 4, TargetLevel: target(3)},       // meets
		{SkillLabel: "SQL", Rating: 3, TargetLevel: target(3)},      // meets (equal)
		{SkillLabel: "K8s", Rating: 2, TargetLevel: target(4)},      // below
		{SkillLabel: "Docs", Rating: 5},                             // no target: never counted
		{SkillLabel: "Comms", Rating: 0, TargetLevel: target(0.5)},  // unrated below target
	}

	sum := Summarize(skills)
	if sum.MeetsTargetCount != 2 {
		t.Errorf("meets-target = %d, want 2", sum.MeetsTargetCount)
	}
}

func TestProficiencyBuckets(t *testing.T) {
	tests := []struct {
		mean float64
		want string
	}{
		{0, ProficiencyNovice},
		{1.49, ProficiencyNovice},
		{1.5, ProficiencyBeginner},
		{2.49, ProficiencyBeginner},
		{2.5, ProficiencyIntermediate},
		{3.49, ProficiencyIntermediate},
		{3.5, ProficiencyProficient},
		{4.49, ProficiencyProficient},
		{4.5, ProficiencyExpert},
		{5, ProficiencyExpert},
	}
	for _, tt := range tests {
		if got := ProficiencyBucket(tt.mean); got != tt.want {
			t.Errorf("bucket(%v) = %s, want %s", tt.mean, got, tt.want)
		}
	}
}

func TestMatrixReadOnlyComputesIdentically(t *testing.T) {
	skills := []SkillAssessment{
		{SkillLabel: "Go", Rating: 4.5, TargetLevel: target(4)},
		{SkillLabel: "SQL", Rating: 2},
	}

	editable := NewMatrix(skills)
	readonly := NewMatrix(skills)
	readonly.ReadOnly = true

	if editable.Summary() != readonly.Summary() {
		t.Error("read-only mode changed the aggregate computation")
	}

	if err := readonly.SetRating(0, 1); err == nil {
		t.Error("read-only matrix accepted a mutation")
	}
	if readonly.Skills[0].Rating != 4.5 {
		t.Error("rejected mutation still changed the rating")
	}
}

func TestMatrixSetRatingSnapsAndBounds(t *testing.T) {
	m := NewMatrix([]SkillAssessment{{SkillLabel: "Go"}})

	if err := m.SetRating(0, 3.3); err != nil {
		t.Fatalf("SetRating: %v", err)
	}
	if m.Skills[0].Rating != 3.5 {
		t.Errorf("rating = %v, want snapped 3.5", m.Skills[0].Rating)
	}

	if err := m.SetRating(5, 1); err == nil {
		t.Error("out-of-range index accepted")
	}
}

func TestMatrixNeverWritesTargetLevel(t *testing.T) {
	m := NewMatrix([]SkillAssessment{{SkillLabel: "Go", TargetLevel: target(4)}})
	if err := m.SetRating(0, 5); err != nil {
		t.Fatalf("SetRating: %v", err)
	}
	if *m.Skills[0].TargetLevel != 4 {
		t.Errorf("target level mutated to %v", *m.Skills[0].TargetLevel)
	}
}

func TestSummarizeEmpty(t *testing.T) {
	sum := Summarize(nil)
	if sum.MeanRating != 0 || sum.MeetsTargetCount != 0 || sum.Proficiency != ProficiencyNovice {
		t.Errorf("empty summary = %+v", sum)
	}
}
