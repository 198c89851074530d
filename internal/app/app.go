// Package app runs detection sessions: it owns the camera, the hand
// detector and the audio device while a session is running and publishes
// every processed frame to the shared state store.
package app

import (
	"errors"
	"image"
	"log"
	"slices"
	"sync"
	"time"

	"github.com/ayusman/handvol/internal/audio"
	"github.com/ayusman/handvol/internal/capture"
	"github.com/ayusman/handvol/internal/detector"
	"github.com/ayusman/handvol/internal/session"
	"github.com/ayusman/handvol/internal/state"
)

// DefaultFrameInterval paces the detection loop at roughly 30 frames per second.
const DefaultFrameInterval = 33 * time.Millisecond

// ErrAlreadyRunning is returned by Start while a session is running.
var ErrAlreadyRunning = errors.New("session already running")

// Config holds configuration options for the application.
type Config struct {
	Camera   capture.Config
	Detector detector.Config
	Session  session.Config
	// FrameInterval is the target period of one loop iteration.
	FrameInterval time.Duration
	// Display is the size published frames are scaled to.
	Display     image.Point
	HistorySize int
}

// DefaultConfig returns the stock configuration.
func DefaultConfig() Config {
	return Config{
		Camera:        capture.DefaultConfig(),
		Detector:      detector.DefaultConfig(),
		Session:       session.DefaultConfig(),
		FrameInterval: DefaultFrameInterval,
		Display:       image.Pt(capture.DefaultWidth, capture.DefaultHeight),
		HistorySize:   state.DefaultHistorySize,
	}
}

// Summary describes a finished session.
type Summary struct {
	User       string
	StartedAt  time.Time
	EndedAt    time.Time
	Frames     uint64
	Detections uint64
	Accuracy   float64
	// Err is the reason the session ended on its own, if it did.
	Err error
}

// Recorder persists session summaries.
type Recorder interface {
	RecordSession(s Summary) error
}

// Status is the externally visible run state.
type Status struct {
	Running   bool      `json:"running"`
	User      string    `json:"user,omitempty"`
	StartedAt time.Time `json:"started_at,omitempty"`
}

// App is the detection loop's state machine: Idle until Start, Running
// until Stop or an unrecoverable failure inside the loop.
type App struct {
	config   Config
	camera   capture.Camera
	detector detector.Detector
	device   audio.Device
	state    *state.Store
	recorder Recorder

	// lifecycle serializes Start and Stop.
	lifecycle sync.Mutex

	mu        sync.RWMutex
	run       *run
	tuning    *session.Config
	listeners []func(running bool)
}

// run is one Running period.
type run struct {
	user      string
	startedAt time.Time
	stop      chan struct{}
	done      chan struct{}
}

// New creates an App using the configured camera, the given audio device
// and the MediaPipe detector when it is installed.
func New(config Config, device audio.Device) *App {
	if config.FrameInterval <= 0 {
		config.FrameInterval = DefaultFrameInterval
	}
	if config.Display.X <= 0 || config.Display.Y <= 0 {
		config.Display = image.Pt(capture.DefaultWidth, capture.DefaultHeight)
	}

	a := &App{
		config: config,
		camera: capture.NewCamera(config.Camera),
		device: device,
		state:  state.NewStore(config.HistorySize),
	}

	// Try MediaPipe first, fall back to mock detector
	if mp, err := detector.NewMediaPipeDetector(config.Detector); err == nil {
		a.detector = mp
		log.Println("Using MediaPipe hand detection")
	} else {
		log.Printf("MediaPipe not available (%v), using mock detector", err)
		a.detector = detector.NewMockDetector()
	}

	return a
}

// SetCamera replaces the camera. It must not be called while running.
func (a *App) SetCamera(c capture.Camera) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.camera = c
}

// SetDetector sets the hand detector implementation to use.
func (a *App) SetDetector(d detector.Detector) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.detector = d
}

// SetRecorder sets where finished sessions are recorded.
func (a *App) SetRecorder(r Recorder) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.recorder = r
}

// SetTuning replaces the classifier and mapper tuning. It takes effect at
// the next Start so a running smoothing recurrence is never disturbed.
func (a *App) SetTuning(cfg session.Config) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.tuning = &cfg
}

// OnStateChange registers fn to be called after every Start and Stop.
func (a *App) OnStateChange(fn func(running bool)) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.listeners = append(a.listeners, fn)
}

// State returns the store every processed frame is published to.
func (a *App) State() *state.Store {
	return a.state
}

// Config returns the configuration the next session will use.
func (a *App) Config() Config {
	a.mu.RLock()
	defer a.mu.RUnlock()

	cfg := a.config
	if a.tuning != nil {
		cfg.Session = *a.tuning
	}
	return cfg
}

// Status reports whether a session is running and who started it.
func (a *App) Status() Status {
	a.mu.RLock()
	defer a.mu.RUnlock()

	if a.run == nil {
		return Status{}
	}
	return Status{Running: true, User: a.run.user, StartedAt: a.run.startedAt}
}

// IsRunning reports whether a session is running.
func (a *App) IsRunning() bool {
	return a.Status().Running
}

// Start acquires the camera and the audio device and starts a new session
// for user. It returns only once the session is running, or with the
// acquisition error, in which case the App stays Idle.
func (a *App) Start(user string) error {
	a.lifecycle.Lock()
	defer a.lifecycle.Unlock()

	a.mu.Lock()
	if a.run != nil {
		a.mu.Unlock()
		return ErrAlreadyRunning
	}
	if a.tuning != nil {
		a.config.Session = *a.tuning
		a.tuning = nil
	}
	cfg := a.config
	r := &run{
		user:      user,
		startedAt: time.Now(),
		stop:      make(chan struct{}),
		done:      make(chan struct{}),
	}
	a.run = r
	a.mu.Unlock()

	ready := make(chan error, 1)
	go a.produce(cfg, r, ready)

	if err := <-ready; err != nil {
		<-r.done
		return err
	}
	return nil
}

// Stop signals the running session to finish its current frame, waits for
// it to release its devices and returns to Idle. It is a no-op when Idle.
func (a *App) Stop() {
	a.lifecycle.Lock()
	defer a.lifecycle.Unlock()

	a.mu.RLock()
	r := a.run
	a.mu.RUnlock()

	if r == nil {
		return
	}

	close(r.stop)
	<-r.done
}

// Close stops any running session and releases the detector.
func (a *App) Close() error {
	a.Stop()

	a.mu.RLock()
	d := a.detector
	a.mu.RUnlock()

	if d != nil {
		return d.Close()
	}
	return nil
}

// finished clears r once its goroutine has released everything. Listeners
// are only told about sessions that actually started.
func (a *App) finished(r *run, started bool) {
	a.mu.Lock()
	if a.run == r {
		a.run = nil
	}
	a.mu.Unlock()

	if started {
		a.notify(false)
	}
}

func (a *App) notify(running bool) {
	a.mu.RLock()
	listeners := slices.Clone(a.listeners)
	a.mu.RUnlock()

	for _, fn := range listeners {
		fn(running)
	}
}
