package detector

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"errors"
	"math"
	"strings"
	"testing"

	"github.com/ayusman/handvol/internal/gesture"
)

const epsilon = 1e-9

func TestHandLandmarks_Measurement(t *testing.T) {
	var hand HandLandmarks
	hand.Points[Wrist] = Point3D{X: 0.5, Y: 0.9}
	hand.Points[ThumbTip] = Point3D{X: 0.25, Y: 0.5}
	hand.Points[IndexTip] = Point3D{X: 0.5, Y: 0.25}
	hand.Points[MiddleTip] = Point3D{X: 0.55, Y: 0.2}
	hand.Points[RingTip] = Point3D{X: 0.6, Y: 0.3}
	hand.Points[PinkyTip] = Point3D{X: 0.65, Y: 0.75}

	m := hand.Measurement(640, 480)

	want := gesture.Measurement{
		Thumb:   gesture.Point2D{X: 160, Y: 240},
		Index:   gesture.Point2D{X: 320, Y: 120},
		WristY:  432,
		MiddleY: 96,
		RingY:   144,
		PinkyY:  360,
	}
	checks := []struct {
		name      string
		got, want float64
	}{
		{"thumb x", m.Thumb.X, want.Thumb.X},
		{"thumb y", m.Thumb.Y, want.Thumb.Y},
		{"index x", m.Index.X, want.Index.X},
		{"index y", m.Index.Y, want.Index.Y},
		{"wrist y", m.WristY, want.WristY},
		{"middle y", m.MiddleY, want.MiddleY},
		{"ring y", m.RingY, want.RingY},
		{"pinky y", m.PinkyY, want.PinkyY},
	}
	for _, c := range checks {
		if math.Abs(c.got-c.want) > epsilon {
			t.Errorf("%s: expected %f, got %f", c.name, c.want, c.got)
		}
	}
}

func TestHandLandmarks_MeasurementNil(t *testing.T) {
	var hand *HandLandmarks
	if hand.Measurement(640, 480) != nil {
		t.Error("expected nil measurement for nil hand")
	}
}

func TestFirst(t *testing.T) {
	if First(nil) != nil {
		t.Error("expected nil for no hands")
	}

	hands := []HandLandmarks{{Handedness: "Left"}, {Handedness: "Right"}}
	if got := First(hands); got == nil || got.Handedness != "Left" {
		t.Errorf("expected the first hand, got %+v", got)
	}
}

func TestPinchLandmarks(t *testing.T) {
	c := gesture.NewClassifier(gesture.DefaultThresholds())

	tests := []struct {
		distance float64
		fingers  int
		want     gesture.Label
	}{
		{distance: 200, fingers: 3, want: gesture.LabelOpenHand},
		{distance: 150, fingers: 4, want: gesture.LabelOpenHand},
		{distance: 80, fingers: 3, want: gesture.LabelHalfOpen},
		{distance: 30, fingers: 3, want: gesture.LabelPinch},
		{distance: 150, fingers: 1, want: gesture.LabelPinch},
		{distance: 150, fingers: 0, want: gesture.LabelPinch},
	}

	for _, tt := range tests {
		hand := PinchLandmarks(tt.distance, tt.fingers, 640, 480)
		sample := c.Classify(hand.Measurement(640, 480))

		if math.Abs(sample.Distance-tt.distance) > epsilon {
			t.Errorf("distance %v: measured %v", tt.distance, sample.Distance)
		}
		if sample.FingersExtended != tt.fingers {
			t.Errorf("distance %v: expected %d fingers, got %d", tt.distance, tt.fingers, sample.FingersExtended)
		}
		if sample.Label != tt.want {
			t.Errorf("distance %v fingers %d: expected %s, got %s", tt.distance, tt.fingers, tt.want, sample.Label)
		}
	}
}

func TestMockDetector(t *testing.T) {
	t.Run("returns empty hands by default", func(t *testing.T) {
		mock := NewMockDetector()

		hands, err := mock.Detect(nil)
		if err != nil {
			t.Errorf("unexpected error: %v", err)
		}
		if hands != nil {
			t.Errorf("expected nil hands, got %v", hands)
		}
	})

	t.Run("plays the script before fixed hands", func(t *testing.T) {
		mock := NewMockDetector()
		fixed := []HandLandmarks{PinchLandmarks(100, 3, 640, 480)}
		mock.SetHands(fixed)
		mock.Script(
			[]HandLandmarks{PinchLandmarks(200, 3, 640, 480)},
			nil,
		)

		first, _ := mock.Detect(nil)
		second, _ := mock.Detect(nil)
		third, _ := mock.Detect(nil)

		if len(first) != 1 || second != nil || len(third) != 1 {
			t.Fatalf("unexpected sequence: %d, %v, %d", len(first), second, len(third))
		}
		if mock.Pending() != 0 {
			t.Errorf("expected script to be consumed, %d pending", mock.Pending())
		}
		if mock.Calls() != 3 {
			t.Errorf("expected 3 calls, got %d", mock.Calls())
		}
	})

	t.Run("returns configured error", func(t *testing.T) {
		mock := NewMockDetector()
		expectedErr := errors.New("detection failed")
		mock.SetError(expectedErr)

		hands, err := mock.Detect(nil)
		if err != expectedErr {
			t.Errorf("expected error %v, got %v", expectedErr, err)
		}
		if hands != nil {
			t.Errorf("expected nil hands when error is set, got %v", hands)
		}
	})

	t.Run("Close marks closed", func(t *testing.T) {
		mock := NewMockDetector()
		if err := mock.Close(); err != nil {
			t.Errorf("expected Close to return nil, got %v", err)
		}
		if !mock.Closed() {
			t.Error("expected Closed() to be true")
		}
	})

	t.Run("implements Detector interface", func(t *testing.T) {
		var _ Detector = (*MockDetector)(nil)
	})
}

func TestConfig(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.MaxHands != 1 || cfg.MinConfidence != 0.7 || cfg.MinTrackingConf != 0.7 {
		t.Errorf("unexpected defaults %+v", cfg)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("defaults should validate: %v", err)
	}

	bad := []Config{
		{MaxHands: 0, MinConfidence: 0.5, MinTrackingConf: 0.5},
		{MaxHands: 1, MinConfidence: 1.5, MinTrackingConf: 0.5},
		{MaxHands: 1, MinConfidence: 0.5, MinTrackingConf: -0.1},
	}
	for _, c := range bad {
		if err := c.Validate(); err == nil {
			t.Errorf("expected %+v to be rejected", c)
		}
	}
}

func TestWriteFrame(t *testing.T) {
	var buf bytes.Buffer
	payload := []byte{0xff, 0xd8, 0xff, 0xd9}

	if err := writeFrame(&buf, payload); err != nil {
		t.Fatalf("writeFrame() failed: %v", err)
	}

	out := buf.Bytes()
	if len(out) != 8 {
		t.Fatalf("expected 8 bytes, got %d", len(out))
	}
	if n := binary.BigEndian.Uint32(out[:4]); n != 4 {
		t.Errorf("expected length prefix 4, got %d", n)
	}
	if !bytes.Equal(out[4:], payload) {
		t.Errorf("payload mismatch: %x", out[4:])
	}
}

func TestReadHands(t *testing.T) {
	var points []string
	for i := 0; i < NumLandmarks; i++ {
		points = append(points, `{"x":0.5,"y":0.25,"z":0}`)
	}
	full := `{"points":[` + strings.Join(points, ",") + `],"handedness":"Right","score":0.9}`
	partial := `{"points":[{"x":0.1,"y":0.1,"z":0}],"handedness":"Left","score":0.8}`

	tests := []struct {
		name    string
		line    string
		want    int
		wantErr bool
	}{
		{name: "no hands", line: `{"hands":[]}`, want: 0},
		{name: "one hand", line: `{"hands":[` + full + `]}`, want: 1},
		{name: "partial hand dropped", line: `{"hands":[` + partial + `,` + full + `]}`, want: 1},
		{name: "service error", line: `{"error":"could not decode frame"}`, wantErr: true},
		{name: "garbage", line: `not json`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hands, err := readHands(bufio.NewReader(strings.NewReader(tt.line + "\n")))
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("readHands() failed: %v", err)
			}
			if len(hands) != tt.want {
				t.Fatalf("expected %d hands, got %d", tt.want, len(hands))
			}
			if tt.want == 1 && (hands[0].Handedness != "Right" || hands[0].Points[PinkyTip].Y != 0.25) {
				t.Errorf("unexpected hand %+v", hands[0])
			}
		})
	}
}

func TestReadHands_EOF(t *testing.T) {
	if _, err := readHands(bufio.NewReader(strings.NewReader(""))); err == nil {
		t.Error("expected error on closed stream")
	}
}
