// Package audio provides access to the system output level.
package audio

import (
	"context"
	"errors"
	"fmt"
)

// ErrUnavailable is returned when no output device can be acquired.
var ErrUnavailable = errors.New("audio device unavailable")

// Range is the device's valid level range in its native unit.
type Range struct {
	Min  float64 `json:"min"`
	Max  float64 `json:"max"`
	Unit string  `json:"unit,omitempty"`
}

// Validate checks that the range is usable for interpolation.
func (r Range) Validate() error {
	if r.Max <= r.Min {
		return fmt.Errorf("%w: empty level range [%g, %g]", ErrUnavailable, r.Min, r.Max)
	}
	return nil
}

// Device is an output device owned by a single detection session.
//
// Open acquires whatever per-context state the platform needs and returns
// the level range. It must be called from the goroutine that will use the
// device, and Close must be called from the same goroutine when the session
// ends. Level and SetLevel are only valid between Open and Close.
type Device interface {
	Open(ctx context.Context) (Range, error)
	Level() (float64, error)
	SetLevel(level float64) error
	Close() error
}

// Missing stands in for a device that could not be set up. Every session
// start fails with ErrUnavailable and Reason.
type Missing struct {
	Reason error
}

func (m Missing) Open(ctx context.Context) (Range, error) {
	return Range{}, fmt.Errorf("%w: %v", ErrUnavailable, m.Reason)
}

func (m Missing) Level() (float64, error) { return 0, ErrUnavailable }

func (m Missing) SetLevel(float64) error { return ErrUnavailable }

func (m Missing) Close() error { return nil }
