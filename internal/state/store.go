// Package state exchanges the latest pipeline metrics and their bounded
// histories between the detection loop and any number of readers.
//
// The detection loop is the only writer. Every Publish builds a fresh,
// immutable View and swaps it in atomically, so readers never block the
// writer and never observe a half-written snapshot.
package state

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/ayusman/handvol/internal/gesture"
)

// DefaultHistorySize is the number of samples kept per history.
const DefaultHistorySize = 100

// Snapshot is one self-consistent set of metrics from a single classified frame.
type Snapshot struct {
	Label           gesture.Label `json:"label"`
	SmoothedPercent int           `json:"smoothed_percent"`
	Distance        float64       `json:"distance"`
	AccuracyPercent float64       `json:"accuracy_percent"`
	ResponseTimeMs  float64       `json:"response_time_ms"`
	FingersExtended int           `json:"fingers_extended"`
	// Frame is the ordinal of the frame within its session, 0 at rest.
	Frame uint64 `json:"frame"`
}

// RestSnapshot is shown while no session is running.
func RestSnapshot() Snapshot {
	return Snapshot{Label: gesture.LabelNoHand}
}

// Histories are the three bounded series, oldest first.
type Histories struct {
	Volume       []float64 `json:"volume"`
	ResponseTime []float64 `json:"response_time"`
	Accuracy     []float64 `json:"accuracy"`
}

// View is everything a reader needs for one redraw. A View is never
// modified after it has been published; readers must not modify it either.
type View struct {
	Snapshot  Snapshot  `json:"snapshot"`
	Histories Histories `json:"histories"`
	// Image is the JPEG encoded processed frame, nil when none was published.
	Image []byte `json:"-"`
	// Seq increases by one on every publish, reset or rest.
	Seq         uint64    `json:"seq"`
	PublishedAt time.Time `json:"published_at"`
}

// Store is the single-writer, multi-reader exchange point.
//
// Ring appends are O(1), but every Publish, Reset and Rest copies the three
// histories into a fresh View, so their cost grows with the history size.
type Store struct {
	// mu serializes writers; readers never take it.
	mu           sync.Mutex
	volume       *Ring[float64]
	responseTime *Ring[float64]
	accuracy     *Ring[float64]
	seq          uint64

	current atomic.Pointer[View]
}

// NewStore creates a Store whose histories hold up to capacity samples each.
func NewStore(capacity int) *Store {
	if capacity <= 0 {
		capacity = DefaultHistorySize
	}

	s := &Store{
		volume:       NewRing[float64](capacity),
		responseTime: NewRing[float64](capacity),
		accuracy:     NewRing[float64](capacity),
	}
	s.current.Store(&View{
		Snapshot:  RestSnapshot(),
		Histories: s.histories(),
	})
	return s
}

// Publish replaces the current snapshot and appends it to the histories.
// It never waits on readers; an unread view is simply replaced.
func (s *Store) Publish(snap Snapshot, image []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.volume.Add(float64(snap.SmoothedPercent))
	s.responseTime.Add(snap.ResponseTimeMs)
	s.accuracy.Add(snap.AccuracyPercent)

	s.swap(snap, image)
}

// Reset clears the histories and returns to the rest snapshot. It is called
// when a new session starts.
func (s *Store) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.volume.Clear()
	s.responseTime.Clear()
	s.accuracy.Clear()

	s.swap(RestSnapshot(), nil)
}

// Rest returns to the rest snapshot but keeps the histories and the last
// image, so an idle dashboard still shows the previous session.
func (s *Store) Rest() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.swap(RestSnapshot(), s.current.Load().Image)
}

// Load returns the most recently published view.
func (s *Store) Load() *View {
	return s.current.Load()
}

// Snapshot returns a copy of the current snapshot.
func (s *Store) Snapshot() Snapshot {
	return s.current.Load().Snapshot
}

// Histories returns copies of the current histories.
func (s *Store) Histories() Histories {
	h := s.current.Load().Histories
	return Histories{
		Volume:       append([]float64(nil), h.Volume...),
		ResponseTime: append([]float64(nil), h.ResponseTime...),
		Accuracy:     append([]float64(nil), h.Accuracy...),
	}
}

// Capacity returns the per-history capacity.
func (s *Store) Capacity() int {
	return s.volume.Cap()
}

// swap must be called with mu held.
func (s *Store) swap(snap Snapshot, image []byte) {
	s.seq++
	s.current.Store(&View{
		Snapshot:    snap,
		Histories:   s.histories(),
		Image:       image,
		Seq:         s.seq,
		PublishedAt: time.Now(),
	})
}

func (s *Store) histories() Histories {
	return Histories{
		Volume:       s.volume.Values(),
		ResponseTime: s.responseTime.Values(),
		Accuracy:     s.accuracy.Values(),
	}
}
