// Package detector finds hand landmarks in camera frames.
package detector

import "github.com/ayusman/handvol/internal/gesture"

// Hand landmark indices following MediaPipe convention.
// See: https://developers.google.com/mediapipe/solutions/vision/hand_landmarker
const (
	Wrist        = 0
	ThumbCMC     = 1
	ThumbMCP     = 2
	ThumbIP      = 3
	ThumbTip     = 4
	IndexMCP     = 5
	IndexPIP     = 6
	IndexDIP     = 7
	IndexTip     = 8
	MiddleMCP    = 9
	MiddlePIP    = 10
	MiddleDIP    = 11
	MiddleTip    = 12
	RingMCP      = 13
	RingPIP      = 14
	RingDIP      = 15
	RingTip      = 16
	PinkyMCP     = 17
	PinkyPIP     = 18
	PinkyDIP     = 19
	PinkyTip     = 20
	NumLandmarks = 21
)

// Point3D is a landmark position. X and Y are normalized to [0, 1] of the
// frame width and height with the origin at the top left.
type Point3D struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// HandLandmarks represents the 21 hand landmarks detected by MediaPipe.
type HandLandmarks struct {
	Points     [NumLandmarks]Point3D `json:"points"`
	Handedness string                `json:"handedness"` // "Left" or "Right"
	Score      float64               `json:"score"`
}

// Pixel scales landmark i to pixel coordinates in a width x height frame.
func (h *HandLandmarks) Pixel(i, width, height int) gesture.Point2D {
	p := h.Points[i]
	return gesture.Point2D{
		X: p.X * float64(width),
		Y: p.Y * float64(height),
	}
}

// Measurement extracts the fingertip and wrist positions the classifier
// uses, in pixels of a width x height frame. A nil hand yields nil.
func (h *HandLandmarks) Measurement(width, height int) *gesture.Measurement {
	if h == nil {
		return nil
	}

	return &gesture.Measurement{
		Thumb:   h.Pixel(ThumbTip, width, height),
		Index:   h.Pixel(IndexTip, width, height),
		WristY:  h.Pixel(Wrist, width, height).Y,
		MiddleY: h.Pixel(MiddleTip, width, height).Y,
		RingY:   h.Pixel(RingTip, width, height).Y,
		PinkyY:  h.Pixel(PinkyTip, width, height).Y,
	}
}

// First returns the first hand, or nil when hands is empty.
func First(hands []HandLandmarks) *HandLandmarks {
	if len(hands) == 0 {
		return nil
	}
	return &hands[0]
}
