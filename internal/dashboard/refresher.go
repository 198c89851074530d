// Package dashboard runs the fixed-rate refresh loop that pulls the latest
// view from the state store and hands it to every registered renderer.
package dashboard

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ayusman/handvol/internal/state"
)

// DefaultInterval refreshes at roughly 30 Hz.
const DefaultInterval = 33 * time.Millisecond

// ErrAlreadyRunning is returned by Run when the loop is already ticking.
var ErrAlreadyRunning = errors.New("refresher already running")

// Renderer draws one panel. Render is called from the refresh goroutine
// only and should not block for long.
type Renderer interface {
	Render(p *Panel) error
}

// RendererFunc adapts a function to Renderer.
type RendererFunc func(p *Panel) error

func (f RendererFunc) Render(p *Panel) error { return f(p) }

type entry struct {
	name     string
	renderer Renderer
	lastErr  string
	failures uint64
}

// Refresher is the consumer side of the state store.
type Refresher struct {
	store    *state.Store
	interval time.Duration

	mu      sync.Mutex
	entries []*entry

	running atomic.Bool
	ticks   atomic.Uint64
}

// New creates a Refresher reading from store every interval.
func New(store *state.Store, interval time.Duration) *Refresher {
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Refresher{store: store, interval: interval}
}

// Register adds a renderer under name, used in logs.
func (r *Refresher) Register(name string, renderer Renderer) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, &entry{name: name, renderer: renderer})
}

// Interval returns the refresh period.
func (r *Refresher) Interval() time.Duration {
	return r.interval
}

// Ticks returns how many refreshes have run.
func (r *Refresher) Ticks() uint64 {
	return r.ticks.Load()
}

// Failures returns how many times the named renderer failed.
func (r *Refresher) Failures(name string) uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()

	var n uint64
	for _, e := range r.entries {
		if e.name == name {
			n += e.failures
		}
	}
	return n
}

// Run refreshes until ctx is cancelled. It ticks regardless of whether a
// session is running; while idle the renderers redraw the rest snapshot.
func (r *Refresher) Run(ctx context.Context) error {
	if !r.running.CompareAndSwap(false, true) {
		return ErrAlreadyRunning
	}
	defer r.running.Store(false)

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	r.Refresh()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			r.Refresh()
		}
	}
}

// Refresh performs a single tick.
func (r *Refresher) Refresh() {
	p := NewPanel(r.store.Load())
	r.ticks.Add(1)

	r.mu.Lock()
	entries := append([]*entry(nil), r.entries...)
	r.mu.Unlock()

	for _, e := range entries {
		err := render(e.renderer, p)

		r.mu.Lock()
		if err == nil {
			e.lastErr = ""
			r.mu.Unlock()
			continue
		}
		e.failures++
		repeat := err.Error() == e.lastErr
		e.lastErr = err.Error()
		r.mu.Unlock()

		if !repeat {
			log.Printf("Error rendering %s: %v", e.name, err)
		}
	}
}

// render isolates a renderer so a panic fails only that renderer's tick.
func render(rd Renderer, p *Panel) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("renderer panic: %v", rec)
		}
	}()
	return rd.Render(p)
}
