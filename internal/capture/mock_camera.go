package capture

import (
	"image"
	"image/color"
	"sync"

	"gocv.io/x/gocv"
)

// MockCamera produces synthetic frames for testing. Each frame carries a
// marker in its top-left corner so mirroring can be observed.
type MockCamera struct {
	config  Config
	mu      sync.Mutex
	running bool
	openErr error
	gaps    int
	reads   int
	opens   int
	closes  int
}

// NewMockCamera creates a mock producing frames of the configured size.
func NewMockCamera(config Config) *MockCamera {
	return &MockCamera{config: config}
}

// SetOpenError makes Open fail with err.
func (c *MockCamera) SetOpenError(err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.openErr = err
}

// SkipFrames makes the next n reads return ErrNoFrame.
func (c *MockCamera) SkipFrames(n int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gaps = n
}

func (c *MockCamera) Open() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.openErr != nil {
		return c.openErr
	}
	if !c.running {
		c.running = true
		c.opens++
	}
	return nil
}

func (c *MockCamera) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.running {
		c.running = false
		c.closes++
	}
	return nil
}

func (c *MockCamera) ReadFrame() (*gocv.Mat, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.running {
		return nil, ErrCameraNotOpen
	}
	if c.gaps > 0 {
		c.gaps--
		return nil, ErrNoFrame
	}
	c.reads++

	frame := gocv.NewMatWithSize(c.config.Height, c.config.Width, gocv.MatTypeCV8UC3)
	gocv.Rectangle(&frame, image.Rect(0, 0, 20, 20), color.RGBA{R: 255, A: 255}, -1)

	if c.config.Mirror {
		Mirror(&frame)
	}
	return &frame, nil
}

func (c *MockCamera) IsOpen() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.running
}

// Reads returns the number of frames delivered.
func (c *MockCamera) Reads() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.reads
}

// Counts returns how many times the camera was opened and closed.
func (c *MockCamera) Counts() (opens, closes int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.opens, c.closes
}
