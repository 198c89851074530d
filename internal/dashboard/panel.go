package dashboard

import (
	"time"

	"github.com/ayusman/handvol/internal/gesture"
	"github.com/ayusman/handvol/internal/state"
)

// Cards are the gesture cards in display order.
var Cards = []gesture.Label{
	gesture.LabelOpenHand,
	gesture.LabelHalfOpen,
	gesture.LabelPinch,
}

// Card is one gesture card, highlighted when it matches the current label.
type Card struct {
	Label  gesture.Label `json:"label"`
	Name   string        `json:"name"`
	Color  string        `json:"color"`
	Active bool          `json:"active"`
}

// Metrics are the scalar readouts.
type Metrics struct {
	VolumePercent int     `json:"volume_percent"`
	Distance      float64 `json:"distance"`
	// DistanceMM is the rough physical pinch width shown next to Distance.
	DistanceMM      float64 `json:"distance_mm"`
	AccuracyPercent float64 `json:"accuracy_percent"`
	ResponseTimeMs  float64 `json:"response_time_ms"`
}

// Panel is what renderers draw on one tick.
type Panel struct {
	Seq         uint64          `json:"seq"`
	PublishedAt time.Time       `json:"published_at"`
	Label       gesture.Label   `json:"label"`
	LabelName   string          `json:"label_name"`
	LabelColor  string          `json:"label_color"`
	Fingers     int             `json:"fingers_extended"`
	Metrics     Metrics         `json:"metrics"`
	Cards       []Card          `json:"cards"`
	Histories   state.Histories `json:"histories"`
	// Frame is the JPEG encoded display frame, nil before the first session.
	Frame []byte `json:"-"`
}

// NewPanel lays out v for rendering. The histories and frame alias v,
// which is immutable.
func NewPanel(v *state.View) *Panel {
	snap := v.Snapshot

	cards := make([]Card, len(Cards))
	for i, l := range Cards {
		cards[i] = Card{Label: l, Name: l.String(), Color: l.Color(), Active: l == snap.Label}
	}

	return &Panel{
		Seq:         v.Seq,
		PublishedAt: v.PublishedAt,
		Label:       snap.Label,
		LabelName:   snap.Label.String(),
		LabelColor:  snap.Label.Color(),
		Fingers:     snap.FingersExtended,
		Metrics: Metrics{
			VolumePercent:   snap.SmoothedPercent,
			Distance:        snap.Distance,
			DistanceMM:      snap.Distance / 10,
			AccuracyPercent: snap.AccuracyPercent,
			ResponseTimeMs:  snap.ResponseTimeMs,
		},
		Cards:     cards,
		Histories: v.Histories,
		Frame:     v.Image,
	}
}
