package app

import (
	"context"
	"errors"
	"fmt"
	"log"
	"runtime"
	"time"

	"github.com/ayusman/handvol/internal/capture"
	"github.com/ayusman/handvol/internal/detector"
	"github.com/ayusman/handvol/internal/session"
	"github.com/ayusman/handvol/internal/volume"
)

// produce is the detection goroutine for one session. It owns the camera
// and the audio device from acquisition until it returns, on every path.
//
// Loop:
// 1. Stop is checked at the top of every iteration
// 2. Read a frame; a missing frame skips the iteration uncounted
// 3. Detect hands, classify the first one and map it to a volume
// 4. Draw the overlay, scale and encode the frame
// 5. Publish the snapshot, then wait for the next tick
func (a *App) produce(cfg Config, r *run, ready chan<- error) {
	defer close(r.done)

	// Platform audio APIs may keep per-thread state, so the device is
	// opened, used and closed on one OS thread.
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	a.mu.RLock()
	camera, det, device, recorder := a.camera, a.detector, a.device, a.recorder
	a.mu.RUnlock()

	var (
		sess    *session.Session
		loopErr error
	)
	// Runs after the devices below are released.
	defer func() {
		if sess == nil {
			a.finished(r, false)
			return
		}
		a.state.Rest()
		a.record(recorder, r, sess, loopErr)
		a.finished(r, true)
		log.Println("Detection session stopped")
	}()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := camera.Open(); err != nil {
		ready <- fmt.Errorf("open camera: %w", err)
		return
	}
	defer func() {
		if err := camera.Close(); err != nil {
			log.Printf("Error closing camera: %v", err)
		}
	}()

	var (
		level              volume.Level
		minLevel, maxLevel float64
	)
	if device != nil {
		rng, err := device.Open(ctx)
		if err != nil {
			ready <- fmt.Errorf("open audio device: %w", err)
			return
		}
		defer func() {
			if err := device.Close(); err != nil {
				log.Printf("Error closing audio device: %v", err)
			}
		}()
		level, minLevel, maxLevel = device, rng.Min, rng.Max
	}

	sess = session.New(cfg.Session, level, minLevel, maxLevel)
	a.state.Reset()
	log.Printf("Detection session started for %q", r.user)
	// Listeners hear about the start before anything the loop can do.
	a.notify(true)
	ready <- nil

	defer func() {
		if p := recover(); p != nil {
			loopErr = fmt.Errorf("detection loop panic: %v", p)
			log.Printf("Error in detection loop: %v", loopErr)
		}
	}()

	p := &pipeline{config: cfg, camera: camera, detector: det, session: sess, app: a}
	p.loop(r.stop)
}

func (a *App) record(recorder Recorder, r *run, sess *session.Session, err error) {
	if recorder == nil {
		return
	}

	c := sess.Counters()
	s := Summary{
		User:       r.user,
		StartedAt:  r.startedAt,
		EndedAt:    time.Now(),
		Frames:     c.Frames,
		Detections: c.Detections,
		Accuracy:   c.Accuracy(),
		Err:        err,
	}
	if err := recorder.RecordSession(s); err != nil {
		log.Printf("Error recording session: %v", err)
	}
}

// pipeline is the per-session loop state.
type pipeline struct {
	config   Config
	camera   capture.Camera
	detector detector.Detector
	session  *session.Session
	app      *App

	lastErr string
}

func (p *pipeline) loop(stop <-chan struct{}) {
	ticker := time.NewTicker(p.config.FrameInterval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		default:
		}

		p.step()

		select {
		case <-stop:
			return
		case <-ticker.C:
		}
	}
}

// step processes one frame.
func (p *pipeline) step() {
	frame, err := p.camera.ReadFrame()
	if err != nil {
		if !errors.Is(err, capture.ErrNoFrame) {
			p.logOnce("Error reading frame: %v", err)
		}
		return
	}
	defer frame.Close()

	began := time.Now()
	hands, err := p.detector.Detect(frame)
	elapsed := time.Since(began)
	if err != nil {
		p.logOnce("Error detecting hands: %v", err)
		hands = nil
	}

	m := detector.First(hands).Measurement(frame.Cols(), frame.Rows())

	out, err := p.session.Process(m, elapsed)
	if err != nil {
		p.logOnce("Error setting volume: %v", err)
	}

	if m != nil {
		capture.Draw(frame, capture.Overlay{
			Thumb:   m.Thumb,
			Index:   m.Index,
			Percent: out.Snapshot.SmoothedPercent,
		})
	}

	img, err := capture.Encode(frame, p.config.Display)
	if err != nil {
		p.logOnce("Error encoding frame: %v", err)
	}

	p.app.state.Publish(out.Snapshot, img)
}

// logOnce suppresses a message identical to the previous one so a
// persistent fault does not log on every frame.
func (p *pipeline) logOnce(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	if msg == p.lastErr {
		return
	}
	p.lastErr = msg
	log.Print(msg)
}
