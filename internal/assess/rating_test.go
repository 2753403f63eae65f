package assess

import "testing"

func TestSnapRating(t *testing.T) {
	tests := []struct {
		name      string
		in        float64
		allowHalf bool
		want      float64
	}{
		{"clamp below", -2, false, 0},
		{"clamp above", 7.3, false, 5},
		{"whole steps round", 3.4, false, 3},
		{"whole steps round up", 3.6, false, 4},
		{"half steps keep halves", 3.5, true, 3.5},
		{"half steps round to nearest half", 3.3, true, 3.5},
		{"half steps round down", 3.2, true, 3},
		{"half clamp above", 5.5, true, 5},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := SnapRating(tt.in, DefaultMaxRating, tt.allowHalf); got != tt.want {
				t.Errorf("SnapRating(%v, half=%v) = %v, want %v", tt.in, tt.allowHalf, got, tt.want)
			}
		})
	}
}

func TestRatingCommittedValuesStayOnScale(t *testing.T) {
	inputs := []float64{-1, 0, 0.3, 0.5, 1.7, 2.25, 3.5, 4.9, 5, 6}

	for _, allowHalf := range []bool{false, true} {
		var committed []float64
		r := NewRating(DefaultMaxRating, allowHalf, func(v float64) { committed = append(committed, v) })
		for _, in := range inputs {
			r.Select(in)
		}
		for _, v := range committed {
			if v < 0 || v > DefaultMaxRating {
				t.Errorf("allowHalf=%v: committed %v out of range", allowHalf, v)
			}
			if allowHalf {
				if v*2 != float64(int(v*2)) {
					t.Errorf("committed %v not a multiple of 0.5", v)
				}
			} else if v != float64(int(v)) {
				t.Errorf("committed %v not an integer", v)
			}
		}
	}
}

func TestRatingHoverNeverCommits(t *testing.T) {
	var changes int
	r := NewRating(DefaultMaxRating, true, func(float64) { changes++ })
	r.Select(2)

	r.Hover(4.5)
	if r.Display() != 4.5 {
		t.Errorf("display = %v during hover, want 4.5", r.Display())
	}
	if r.Value() != 2 {
		t.Errorf("hover mutated the committed value: %v", r.Value())
	}
	r.ClearHover()
	if r.Display() != 2 {
		t.Errorf("display = %v after hover cleared, want 2", r.Display())
	}
	if changes != 1 {
		t.Errorf("change callback fired %d times, want 1", changes)
	}
}

func TestRatingDisabledSuppressesInteraction(t *testing.T) {
	r := NewRating(DefaultMaxRating, false, nil)
	r.SetValue(3)
	r.Disabled = true

	r.Select(5)
	r.Hover(5)
	if r.Value() != 3 || r.Display() != 3 {
		t.Errorf("disabled rating mutated: value=%v display=%v", r.Value(), r.Display())
	}
}

func TestRatingFillThresholds(t *testing.T) {
	r := NewRating(DefaultMaxRating, true, nil)
	r.SetValue(2.5)

	wants := []Fill{FillFull, FillFull, FillHalf, FillEmpty, FillEmpty}
	for i, want := range wants {
		if got := r.FillAt(i + 1); got != want {
			t.Errorf("FillAt(%d) = %v, want %v", i+1, got, want)
		}
	}
}

func TestRatingRequiredOnlyAffectsUnset(t *testing.T) {
	r := NewRating(DefaultMaxRating, false, nil)
	r.Required = true
	if !r.NeedsValue() {
		t.Error("required + unset must surface the validation message")
	}
	r.SetValue(1)
	if r.NeedsValue() {
		t.Error("required with a committed value must not surface the message")
	}
}

func TestValidRating(t *testing.T) {
	valid := []float64{0, 0.5, 3, 4.5, 5}
	invalid := []float64{-0.5, 0.25, 3.1, 5.5}
	for _, v := range valid {
		if !ValidRating(v, DefaultMaxRating) {
			t.Errorf("ValidRating(%v) = false, want true", v)
		}
	}
	for _, v := range invalid {
		if ValidRating(v, DefaultMaxRating) {
			t.Errorf("ValidRating(%v) = true, want false", v)
		}
	}
}
