package session

import (
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ayusman/handvol/internal/gesture"
)

// hand returns a measurement with thumb and index tips distance pixels
// apart and the index, middle and ring fingers raised.
func hand(distance float64) *gesture.Measurement {
	return &gesture.Measurement{
		Thumb:   gesture.Point2D{X: 200, Y: 120},
		Index:   gesture.Point2D{X: 200 + distance, Y: 120},
		WristY:  400,
		MiddleY: 110,
		RingY:   130,
		PinkyY:  395,
	}
}

type recordingDevice struct {
	level  float64
	writes []float64
	err    error
}

func (d *recordingDevice) Level() (float64, error) { return d.level, nil }

func (d *recordingDevice) SetLevel(level float64) error {
	if d.err != nil {
		return d.err
	}
	d.level = level
	d.writes = append(d.writes, level)
	return nil
}

func TestCounters_Accuracy(t *testing.T) {
	tests := []struct {
		name     string
		counters Counters
		want     float64
	}{
		{name: "no frames", counters: Counters{}, want: 0},
		{name: "seven of ten", counters: Counters{Frames: 10, Detections: 7}, want: 70},
		{name: "all frames", counters: Counters{Frames: 3, Detections: 3}, want: 100},
		{name: "no detections", counters: Counters{Frames: 4}, want: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, tt.counters.Accuracy(), 1e-9)
		})
	}
}

func TestSession_AccuracyOverFrames(t *testing.T) {
	s := New(DefaultConfig(), nil, -65.25, 0)

	var last Step
	for i := 0; i < 10; i++ {
		var m *gesture.Measurement
		if i < 7 {
			m = hand(120)
		}
		var err error
		last, err = s.Process(m, time.Millisecond)
		require.NoError(t, err)
	}

	assert.Equal(t, Counters{Frames: 10, Detections: 7}, s.Counters())
	assert.InDelta(t, 70, last.Snapshot.AccuracyPercent, 1e-9)
	assert.Equal(t, uint64(10), last.Snapshot.Frame)
}

func TestSession_NoHandLeavesControlState(t *testing.T) {
	dev := &recordingDevice{level: -65.25}
	s := New(DefaultConfig(), dev, -65.25, 0)

	_, err := s.Process(hand(200), 0)
	require.NoError(t, err)
	require.Len(t, dev.writes, 1)

	step, err := s.Process(nil, 0)
	require.NoError(t, err)

	assert.False(t, step.Detected)
	assert.Equal(t, gesture.LabelNoHand, step.Snapshot.Label)
	assert.Equal(t, 30, step.Snapshot.SmoothedPercent, "smoothed value holds while no hand is seen")
	assert.Zero(t, step.Snapshot.Distance)
	assert.Len(t, dev.writes, 1, "no device write without a hand")
	assert.Equal(t, Counters{Frames: 2, Detections: 1}, s.Counters())
}

func TestSession_ResponseTime(t *testing.T) {
	s := New(DefaultConfig(), nil, -65.25, 0)

	step, err := s.Process(hand(100), 12500*time.Microsecond)
	require.NoError(t, err)

	assert.InDelta(t, 12.5, step.Snapshot.ResponseTimeMs, 1e-9)
}

func TestSession_DeviceErrorKeepsSnapshot(t *testing.T) {
	dev := &recordingDevice{level: -65.25, err: errors.New("device busy")}
	s := New(DefaultConfig(), dev, -65.25, 0)

	step, err := s.Process(hand(200), 0)
	require.Error(t, err)

	assert.True(t, step.Detected)
	assert.Equal(t, gesture.LabelOpenHand, step.Snapshot.Label)
	assert.Equal(t, 30, step.Snapshot.SmoothedPercent)
	assert.Equal(t, Counters{Frames: 1, Detections: 1}, s.Counters())
}

func TestSession_FreshSessionResets(t *testing.T) {
	first := New(DefaultConfig(), nil, -65.25, 0)
	for i := 0; i < 20; i++ {
		_, err := first.Process(hand(200), 0)
		require.NoError(t, err)
	}
	require.Equal(t, 100, first.Smoothed())

	second := New(DefaultConfig(), nil, -65.25, 0)
	assert.Zero(t, second.Smoothed())
	assert.Equal(t, Counters{}, second.Counters())

	step, err := second.Process(hand(200), 0)
	require.NoError(t, err)
	assert.Equal(t, 30, step.Snapshot.SmoothedPercent, "recurrence restarts at 0")
}

func TestSession_ScriptedTrace(t *testing.T) {
	dev := &recordingDevice{level: -65.25}
	s := New(DefaultConfig(), dev, -65.25, 0)

	distances := []float64{200, 200, 30, 30, 115}

	var labels []gesture.Label
	var smoothed []int
	for _, d := range distances {
		step, err := s.Process(hand(d), 0)
		require.NoError(t, err)
		labels = append(labels, step.Snapshot.Label)
		smoothed = append(smoothed, step.Snapshot.SmoothedPercent)
	}

	// 115 px with three raised fingers satisfies the open-hand rule.
	wantLabels := []gesture.Label{
		gesture.LabelOpenHand,
		gesture.LabelOpenHand,
		gesture.LabelPinch,
		gesture.LabelPinch,
		gesture.LabelOpenHand,
	}
	if diff := cmp.Diff(wantLabels, labels); diff != "" {
		t.Errorf("labels mismatch (-want +got):\n%s", diff)
	}

	if diff := cmp.Diff([]int{30, 51, 36, 25, 33}, smoothed); diff != "" {
		t.Errorf("smoothed trace mismatch (-want +got):\n%s", diff)
	}

	prev := 0
	for i, v := range smoothed {
		jump := v - prev
		if jump < 0 {
			jump = -jump
		}
		assert.Less(t, jump, 100, "step %d jumped straight across the range", i)
		prev = v
	}

	assert.Len(t, dev.writes, len(distances), "every step moves the level past the hysteresis")
}

func TestSession_HalfOpen(t *testing.T) {
	s := New(DefaultConfig(), nil, -65.25, 0)

	m := hand(80)
	step, err := s.Process(m, 0)
	require.NoError(t, err)

	assert.Equal(t, gesture.LabelHalfOpen, step.Snapshot.Label)
	assert.Equal(t, 3, step.Snapshot.FingersExtended)
}
