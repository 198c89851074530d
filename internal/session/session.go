// Package session holds the per-session state of the detection loop: the
// smoothing recurrence, the running counters and the per-frame step that
// turns a hand measurement into a published snapshot.
package session

import (
	"fmt"
	"time"

	"github.com/ayusman/handvol/internal/gesture"
	"github.com/ayusman/handvol/internal/state"
	"github.com/ayusman/handvol/internal/volume"
)

// Config tunes the classifier and the volume mapper for one session.
type Config struct {
	Gesture gesture.Thresholds
	Volume  volume.Config
}

// DefaultConfig returns the stock tuning.
func DefaultConfig() Config {
	return Config{
		Gesture: gesture.DefaultThresholds(),
		Volume:  volume.DefaultConfig(),
	}
}

// Counters count frames over the lifetime of one session.
type Counters struct {
	Frames     uint64 `json:"frames"`
	Detections uint64 `json:"detections"`
}

// Accuracy returns the share of frames with a detected hand as a
// percentage. It is 0 before the first frame.
func (c Counters) Accuracy() float64 {
	if c.Frames == 0 {
		return 0
	}
	return float64(c.Detections) / float64(c.Frames) * 100
}

// Step is the outcome of processing one frame.
type Step struct {
	Sample   gesture.Sample
	Control  volume.Result
	Snapshot state.Snapshot
	// Detected reports whether a hand was present.
	Detected bool
}

// Session is created at start and discarded at stop. It is owned by the
// detection loop and is not safe for concurrent use.
type Session struct {
	classifier *gesture.Classifier
	mapper     *volume.Mapper
	counters   Counters
	startedAt  time.Time
}

// New creates a Session whose device level range is [minLevel, maxLevel].
// device may be nil, in which case levels are computed but never written.
func New(cfg Config, device volume.Level, minLevel, maxLevel float64) *Session {
	return &Session{
		classifier: gesture.NewClassifier(cfg.Gesture),
		mapper:     volume.NewMapper(cfg.Volume, device, minLevel, maxLevel),
		startedAt:  time.Now(),
	}
}

// Process runs one frame through the classifier and the mapper. A nil
// measurement means no hand: the frame is counted but the mapper is left
// untouched. A device error does not stop the step; the snapshot is still
// complete and the error is returned for logging.
func (s *Session) Process(m *gesture.Measurement, responseTime time.Duration) (Step, error) {
	s.counters.Frames++

	step := Step{Sample: s.classifier.Classify(m)}

	var err error
	if m != nil {
		s.counters.Detections++
		step.Detected = true
		step.Control, err = s.mapper.Apply(step.Sample.Distance)
		if err != nil {
			err = fmt.Errorf("frame %d: %w", s.counters.Frames, err)
		}
	} else {
		smoothed := s.mapper.Smoothed()
		step.Control = volume.Result{
			SmoothedPercent: smoothed,
			DeviceLevel:     s.mapper.DeviceLevel(smoothed),
		}
	}

	step.Snapshot = state.Snapshot{
		Label:           step.Sample.Label,
		SmoothedPercent: step.Control.SmoothedPercent,
		Distance:        step.Sample.Distance,
		AccuracyPercent: s.counters.Accuracy(),
		ResponseTimeMs:  float64(responseTime) / float64(time.Millisecond),
		FingersExtended: step.Sample.FingersExtended,
		Frame:           s.counters.Frames,
	}

	return step, err
}

// Counters returns the current counters.
func (s *Session) Counters() Counters {
	return s.counters
}

// Smoothed returns the last emitted volume percentage.
func (s *Session) Smoothed() int {
	return s.mapper.Smoothed()
}

// StartedAt returns when the session was created.
func (s *Session) StartedAt() time.Time {
	return s.startedAt
}
