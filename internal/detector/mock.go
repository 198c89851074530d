package detector

import (
	"sync"

	"gocv.io/x/gocv"
)

// MockDetector is a test implementation of the Detector interface.
// It returns either fixed hands or a scripted sequence, one entry per call.
type MockDetector struct {
	mu     sync.Mutex
	hands  []HandLandmarks
	script [][]HandLandmarks
	err    error
	calls  int
	closed bool
}

// NewMockDetector creates a new MockDetector instance.
func NewMockDetector() *MockDetector {
	return &MockDetector{}
}

// SetHands sets the hands returned once any script is exhausted.
func (m *MockDetector) SetHands(hands []HandLandmarks) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.hands = hands
}

// Script queues results returned by successive Detect calls. A nil entry
// means no hand for that frame.
func (m *MockDetector) Script(frames ...[]HandLandmarks) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.script = append(m.script, frames...)
}

// SetError sets the error that will be returned by Detect.
func (m *MockDetector) SetError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

// Detect returns the next scripted result, or the fixed hands.
func (m *MockDetector) Detect(frame *gocv.Mat) ([]HandLandmarks, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	if len(m.script) > 0 {
		next := m.script[0]
		m.script = m.script[1:]
		return next, nil
	}
	return m.hands, nil
}

// Pending returns the number of scripted results not yet consumed.
func (m *MockDetector) Pending() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.script)
}

// Calls returns the number of Detect calls.
func (m *MockDetector) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// Close marks the detector closed.
func (m *MockDetector) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

// Closed reports whether Close was called.
func (m *MockDetector) Closed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closed
}

// PinchLandmarks returns a right hand whose thumb and index tips are
// distance pixels apart horizontally in a width x height frame, with the
// given number of fingers (index, middle, ring, pinky in that order)
// raised well above the wrist.
func PinchLandmarks(distance float64, fingers, width, height int) HandLandmarks {
	lm := HandLandmarks{
		Handedness: "Right",
		Score:      0.95,
	}

	const (
		wristY  = 0.85
		raisedY = 0.25
		curledY = 0.80
		tipY    = 0.40
	)

	lm.Points[Wrist] = Point3D{X: 0.5, Y: wristY}

	// A curled index pulls the thumb down with it so the pinch stays level.
	pinchY := tipY
	if fingers < 1 {
		pinchY = curledY
	}

	const thumbX = 0.25
	lm.Points[ThumbCMC] = Point3D{X: 0.42, Y: 0.78}
	lm.Points[ThumbMCP] = Point3D{X: 0.36, Y: 0.65}
	lm.Points[ThumbIP] = Point3D{X: 0.30, Y: 0.52}
	lm.Points[ThumbTip] = Point3D{X: thumbX, Y: pinchY}

	lm.Points[IndexMCP] = Point3D{X: 0.45, Y: 0.65}
	lm.Points[IndexTip] = Point3D{X: thumbX + distance/float64(width), Y: pinchY}

	tips := []int{MiddleTip, RingTip, PinkyTip}
	xs := []float64{0.55, 0.60, 0.65}
	for i, tip := range tips {
		y := curledY
		if i+1 < fingers {
			y = raisedY
		}
		lm.Points[tip] = Point3D{X: xs[i], Y: y}
	}
	lm.Points[MiddleMCP] = Point3D{X: 0.52, Y: 0.64}
	lm.Points[RingMCP] = Point3D{X: 0.58, Y: 0.66}
	lm.Points[PinkyMCP] = Point3D{X: 0.63, Y: 0.70}

	return lm
}
