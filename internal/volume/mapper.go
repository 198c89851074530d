// Package volume maps a pinch distance onto a smoothed volume percentage and
// the audio device's native level unit.
package volume

import (
	"fmt"
	"math"
)

// Config holds the control law constants.
type Config struct {
	// MinDistance and MaxDistance bound the pinch distance domain in pixels.
	MinDistance float64 `yaml:"min_distance"`
	MaxDistance float64 `yaml:"max_distance"`
	// SmoothingFactor is the EMA weight given to the new target.
	SmoothingFactor float64 `yaml:"smoothing_factor"`
	// DeadBand is the largest percent delta that passes through unsmoothed.
	DeadBand float64 `yaml:"dead_band"`
	// DeviceHysteresis is the smallest level change pushed to the device.
	DeviceHysteresis float64 `yaml:"device_hysteresis_db"`
}

// DefaultConfig returns the hand-tuned constants of the dashboard.
func DefaultConfig() Config {
	return Config{
		MinDistance:      30,
		MaxDistance:      200,
		SmoothingFactor:  0.3,
		DeadBand:         5,
		DeviceHysteresis: 0.5,
	}
}

// Validate reports whether the configuration can drive a mapper.
func (c Config) Validate() error {
	if c.MaxDistance <= c.MinDistance {
		return fmt.Errorf("max_distance (%g) must be greater than min_distance (%g)", c.MaxDistance, c.MinDistance)
	}
	if c.SmoothingFactor <= 0 || c.SmoothingFactor > 1 {
		return fmt.Errorf("smoothing_factor must be in (0, 1], got %g", c.SmoothingFactor)
	}
	if c.DeadBand < 0 {
		return fmt.Errorf("dead_band must not be negative, got %g", c.DeadBand)
	}
	if c.DeviceHysteresis < 0 {
		return fmt.Errorf("device_hysteresis_db must not be negative, got %g", c.DeviceHysteresis)
	}
	return nil
}

// Interp linearly maps x from [x0, x1] onto [y0, y1]. x is clamped to the
// domain first, so the result never leaves the range.
func Interp(x, x0, x1, y0, y1 float64) float64 {
	if x <= x0 {
		return y0
	}
	if x >= x1 {
		return y1
	}
	return y0 + (x-x0)*(y1-y0)/(x1-x0)
}

// TargetPercent converts a pinch distance to a volume percentage in [0, 100].
func (c Config) TargetPercent(distance float64) int {
	return int(Interp(distance, c.MinDistance, c.MaxDistance, 0, 100))
}

// Level is the part of the audio device the mapper writes through to.
type Level interface {
	Level() (float64, error)
	SetLevel(level float64) error
}

// Result is the outcome of mapping one distance.
type Result struct {
	TargetPercent   int     `json:"target_percent"`
	SmoothedPercent int     `json:"smoothed_percent"`
	DeviceLevel     float64 `json:"device_level"`
	// Written reports whether the level was pushed to the device.
	Written bool `json:"written"`
}

// Mapper owns the smoothing recurrence for one session and writes the
// resulting level through to the device.
type Mapper struct {
	config   Config
	smoother *Smoother
	device   Level
	minLevel float64
	maxLevel float64
}

// NewMapper creates a Mapper for a device whose level range is
// [minLevel, maxLevel]. The range is queried once per session by the caller.
func NewMapper(config Config, device Level, minLevel, maxLevel float64) *Mapper {
	return &Mapper{
		config:   config,
		smoother: NewSmoother(config.SmoothingFactor, config.DeadBand),
		device:   device,
		minLevel: minLevel,
		maxLevel: maxLevel,
	}
}

// Apply maps distance to a target, smooths it against the previously
// emitted percentage and pushes the level to the device when it moved by
// more than the hysteresis. The smoothing state advances even when the
// device call fails; the error is returned for the caller to log.
func (m *Mapper) Apply(distance float64) (Result, error) {
	target := m.config.TargetPercent(distance)
	smoothed := m.smoother.Update(target)

	res := Result{
		TargetPercent:   target,
		SmoothedPercent: smoothed,
		DeviceLevel:     m.DeviceLevel(smoothed),
	}

	if m.device == nil {
		return res, nil
	}

	current, err := m.device.Level()
	if err != nil {
		return res, fmt.Errorf("read device level: %w", err)
	}
	if math.Abs(current-res.DeviceLevel) <= m.config.DeviceHysteresis {
		return res, nil
	}

	if err := m.device.SetLevel(res.DeviceLevel); err != nil {
		return res, fmt.Errorf("set device level: %w", err)
	}
	res.Written = true

	return res, nil
}

// DeviceLevel converts a percentage to the device's level unit.
func (m *Mapper) DeviceLevel(percent int) float64 {
	return Interp(float64(percent), 0, 100, m.minLevel, m.maxLevel)
}

// Smoothed returns the last emitted percentage.
func (m *Mapper) Smoothed() int {
	return m.smoother.Value()
}
