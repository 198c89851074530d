// Package gesture classifies a single hand pose into the control-relevant
// pinch distance and a discrete gesture label.
package gesture

import (
	"errors"
	"math"
)

// Label is the discrete gesture shown on the dashboard.
type Label string

const (
	// LabelNoHand is reported when no landmark set was supplied for the frame.
	LabelNoHand Label = "no_hand"
	// LabelOpenHand is a wide thumb/index spread with most fingers raised.
	LabelOpenHand Label = "open_hand"
	// LabelHalfOpen is anything between an open hand and a pinch.
	LabelHalfOpen Label = "half_open"
	// LabelPinch is a closed thumb/index pair or a mostly closed hand.
	LabelPinch Label = "pinch"
)

// String returns the human readable name of the label.
func (l Label) String() string {
	switch l {
	case LabelOpenHand:
		return "Open Hand"
	case LabelHalfOpen:
		return "Half Open"
	case LabelPinch:
		return "Pinch Gesture"
	default:
		return "No Hand"
	}
}

// Color returns the display color associated with the label.
func (l Label) Color() string {
	switch l {
	case LabelOpenHand:
		return "#4CAF50"
	case LabelHalfOpen:
		return "#FF9800"
	case LabelPinch:
		return "#FF5722"
	default:
		return "#9E9E9E"
	}
}

// Point2D is a position in frame pixels, origin top-left.
type Point2D struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Measurement holds the pixel positions of the landmarks used for
// classification. It is produced once per frame with a detected hand.
type Measurement struct {
	Thumb   Point2D
	Index   Point2D
	WristY  float64
	MiddleY float64
	RingY   float64
	PinkyY  float64
}

// Sample is the classification result for one frame.
type Sample struct {
	Distance        float64 `json:"distance"`
	FingersExtended int     `json:"fingers_extended"`
	Label           Label   `json:"label"`
}

// Thresholds configures the classifier. All distances are in pixels.
type Thresholds struct {
	// OpenDistance is the pinch distance above which an open hand is possible.
	OpenDistance float64 `yaml:"open_distance"`
	// PinchDistance is the pinch distance below which the pose is a pinch.
	PinchDistance float64 `yaml:"pinch_distance"`
	// MinOpenFingers is the number of raised fingers needed for an open hand.
	MinOpenFingers int `yaml:"min_open_fingers"`
	// MaxPinchFingers is the raised finger count at or below which the pose is a pinch.
	MaxPinchFingers int `yaml:"max_pinch_fingers"`
	// FingerLift is how far above the wrist a fingertip must be to count as raised.
	FingerLift float64 `yaml:"finger_lift_px"`
}

// DefaultThresholds returns the thresholds the dashboard was tuned with.
func DefaultThresholds() Thresholds {
	return Thresholds{
		OpenDistance:    100,
		PinchDistance:   60,
		MinOpenFingers:  3,
		MaxPinchFingers: 1,
		FingerLift:      30,
	}
}

// Validate checks that the thresholds describe ordered, reachable labels.
func (t Thresholds) Validate() error {
	switch {
	case t.PinchDistance <= 0 || t.OpenDistance <= 0:
		return errors.New("gesture distances must be positive")
	case t.PinchDistance >= t.OpenDistance:
		return errors.New("pinch_distance must be below open_distance")
	case t.MinOpenFingers < 0 || t.MinOpenFingers > 4:
		return errors.New("min_open_fingers must be between 0 and 4")
	case t.MaxPinchFingers < 0 || t.MaxPinchFingers >= t.MinOpenFingers:
		return errors.New("max_pinch_fingers must be between 0 and min_open_fingers")
	case t.FingerLift < 0:
		return errors.New("finger_lift_px must not be negative")
	}
	return nil
}

// Distance returns the Euclidean distance between two points.
func Distance(a, b Point2D) float64 {
	return math.Hypot(a.X-b.X, a.Y-b.Y)
}

// Classifier turns measurements into samples.
type Classifier struct {
	thresholds Thresholds
}

// NewClassifier creates a Classifier with the given thresholds.
func NewClassifier(t Thresholds) *Classifier {
	return &Classifier{thresholds: t}
}

// Classify computes the sample for one frame. A nil measurement means no
// hand was detected and yields a zero-distance LabelNoHand sample.
func (c *Classifier) Classify(m *Measurement) Sample {
	if m == nil {
		return Sample{Label: LabelNoHand}
	}

	distance := Distance(m.Index, m.Thumb)
	fingers := c.countExtended(m)

	return Sample{
		Distance:        distance,
		FingersExtended: fingers,
		Label:           c.label(distance, fingers),
	}
}

// countExtended counts the index, middle, ring and pinky tips that sit at
// least FingerLift pixels above the wrist. Smaller y is higher on screen.
func (c *Classifier) countExtended(m *Measurement) int {
	limit := m.WristY - c.thresholds.FingerLift

	count := 0
	for _, y := range [...]float64{m.Index.Y, m.MiddleY, m.RingY, m.PinkyY} {
		if y <= limit {
			count++
		}
	}
	return count
}

func (c *Classifier) label(distance float64, fingers int) Label {
	t := c.thresholds
	switch {
	case fingers >= t.MinOpenFingers && distance > t.OpenDistance:
		return LabelOpenHand
	case fingers <= t.MaxPinchFingers || distance < t.PinchDistance:
		return LabelPinch
	default:
		return LabelHalfOpen
	}
}
