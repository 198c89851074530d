package volume

import "math"

// Smoother is a one-step exponential moving average with a dead-band.
// Deltas within the dead-band are emitted as-is so fine adjustments do not
// lag behind the hand.
type Smoother struct {
	factor   float64
	deadBand float64
	prev     int
}

// NewSmoother creates a Smoother starting at 0.
func NewSmoother(factor, deadBand float64) *Smoother {
	return &Smoother{
		factor:   factor,
		deadBand: deadBand,
	}
}

// Update smooths target against the previously emitted value and returns
// the new value, clamped to [0, 100].
func (s *Smoother) Update(target int) int {
	delta := float64(target - s.prev)

	next := target
	if math.Abs(delta) > s.deadBand {
		next = int(math.Round(float64(s.prev) + s.factor*delta))
	}

	s.prev = clampPercent(next)
	return s.prev
}

// Value returns the last emitted value.
func (s *Smoother) Value() int {
	return s.prev
}

// Reset restarts the recurrence at 0.
func (s *Smoother) Reset() {
	s.prev = 0
}

func clampPercent(v int) int {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}
