package capture

import (
	"fmt"
	"image"
	"image/color"

	"gocv.io/x/gocv"

	"github.com/ayusman/handvol/internal/gesture"
)

// Volume bar geometry in frame pixels.
var (
	barRect = image.Rect(50, 150, 85, 400)
	textAt  = image.Pt(40, 430)
)

var (
	tipColor  = color.RGBA{R: 255, B: 255, A: 255}
	lineColor = color.RGBA{G: 255, A: 255}
	barColor  = color.RGBA{G: 255, A: 255}
	textColor = color.RGBA{B: 255, A: 255}
)

// Overlay is what gets drawn on a frame with a detected hand.
type Overlay struct {
	Thumb   gesture.Point2D
	Index   gesture.Point2D
	Percent int
}

// BarFill returns the filled part of the volume bar for percent.
func BarFill(percent int) image.Rectangle {
	if percent < 0 {
		percent = 0
	}
	if percent > 100 {
		percent = 100
	}
	top := barRect.Max.Y - barRect.Dy()*percent/100
	return image.Rect(barRect.Min.X, top, barRect.Max.X, barRect.Max.Y)
}

// Draw paints the fingertip markers, the pinch line and the volume bar.
func Draw(frame *gocv.Mat, o Overlay) {
	thumb := image.Pt(int(o.Thumb.X), int(o.Thumb.Y))
	index := image.Pt(int(o.Index.X), int(o.Index.Y))

	gocv.Circle(frame, thumb, 12, tipColor, -1)
	gocv.Circle(frame, index, 12, tipColor, -1)
	gocv.Line(frame, thumb, index, lineColor, 3)

	gocv.Rectangle(frame, barRect, barColor, 3)
	gocv.Rectangle(frame, BarFill(o.Percent), barColor, -1)
	gocv.PutText(frame, fmt.Sprintf("%d%%", o.Percent), textAt, gocv.FontHersheySimplex, 1, textColor, 3)
}

// Encode resizes frame to size and returns it as JPEG.
func Encode(frame *gocv.Mat, size image.Point) ([]byte, error) {
	out := *frame
	if frame.Cols() != size.X || frame.Rows() != size.Y {
		resized := gocv.NewMat()
		defer resized.Close()
		gocv.Resize(*frame, &resized, size, 0, 0, gocv.InterpolationArea)
		out = resized
	}

	buf, err := gocv.IMEncode(".jpg", out)
	if err != nil {
		return nil, fmt.Errorf("encode frame: %w", err)
	}
	defer buf.Close()

	// GetBytes aliases native memory freed by Close.
	return append([]byte(nil), buf.GetBytes()...), nil
}
