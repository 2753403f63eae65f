package assess

import "math"

// DefaultMaxRating is the scale size used across feedback forms.
const DefaultMaxRating = 5

type Fill int

const (
	FillEmpty Fill = iota
	FillHalf
	FillFull
)

// Rating is a controlled discrete-scale value. The committed value only
// changes through Select, which reports the new value to the change
// callback; hover state is transient and never committed.
type Rating struct {
	Max       float64
	AllowHalf bool
	Disabled  bool
	Required  bool

	value    float64
	hover    float64
	hovering bool

	onChange func(float64)
}

func NewRating(max float64, allowHalf bool, onChange func(float64)) *Rating {
	if max <= 0 {
		max = DefaultMaxRating
	}
	return &Rating{Max: max, AllowHalf: allowHalf, onChange: onChange}
}

// SetValue updates the committed value from the owner side.
func (r *Rating) SetValue(v float64) {
	r.value = r.snap(v)
}

func (r *Rating) Value() float64 { return r.value }

// Select commits a user interaction. No-op while disabled.
func (r *Rating) Select(v float64) {
	if r.Disabled {
		return
	}
	r.value = r.snap(v)
	if r.onChange != nil {
		r.onChange(r.value)
	}
}

// Hover previews a value without committing it.
func (r *Rating) Hover(v float64) {
	if r.Disabled {
		return
	}
	r.hover = r.snap(v)
	r.hovering = true
}

func (r *Rating) ClearHover() {
	r.hover = 0
	r.hovering = false
}

// Display is the value the scale renders: the hover preview when present,
// the committed value otherwise.
func (r *Rating) Display() float64 {
	if r.hovering {
		return r.hover
	}
	return r.value
}

// FillAt reports the visual state of position p (1-based) derived purely
// from the display value against the position's thresholds.
func (r *Rating) FillAt(p int) Fill {
	d := r.Display()
	switch {
	case d >= float64(p):
		return FillFull
	case d >= float64(p)-0.5:
		return FillHalf
	default:
		return FillEmpty
	}
}

// NeedsValue reports whether the required-field message should show:
// only when required and the committed value is the unset sentinel.
func (r *Rating) NeedsValue() bool {
	return r.Required && r.value == 0
}

func (r *Rating) snap(v float64) float64 {
	return SnapRating(v, r.Max, r.AllowHalf)
}

// SnapRating clamps v to [0, max] and rounds it to the scale's minimum
// increment: 0.5 when half steps are allowed, 1 otherwise.
func SnapRating(v, max float64, allowHalf bool) float64 {
	if max <= 0 {
		max = DefaultMaxRating
	}
	if allowHalf {
		v = math.Round(v*2) / 2
	} else {
		v = math.Round(v)
	}
	if v < 0 {
		return 0
	}
	if v > max {
		return max
	}
	return v
}

// ValidRating reports whether v is on the scale: within [0, max] and on a
// 0.5 step (the coarsest step any form commits).
func ValidRating(v, max float64) bool {
	if max <= 0 {
		max = DefaultMaxRating
	}
	if v < 0 || v > max {
		return false
	}
	return v*2 == math.Trunc(v*2)
}
