package dashboard

import (
	"context"
	"sync"
)

// Latest is a renderer that keeps the most recent panel and wakes anyone
// waiting for a newer one. Streaming handlers wait on it instead of
// reading the store on their own clock.
type Latest struct {
	mu      sync.Mutex
	panel   *Panel
	changed chan struct{}
}

// NewLatest creates an empty Latest.
func NewLatest() *Latest {
	return &Latest{changed: make(chan struct{})}
}

// Render stores p if it is newer than the current panel.
func (l *Latest) Render(p *Panel) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.panel != nil && l.panel.Seq == p.Seq {
		return nil
	}
	l.panel = p
	close(l.changed)
	l.changed = make(chan struct{})
	return nil
}

// Panel returns the current panel, nil before the first render.
func (l *Latest) Panel() *Panel {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.panel
}

// Wait blocks until a panel with a sequence number other than seq is
// available, or ctx is done.
func (l *Latest) Wait(ctx context.Context, seq uint64) (*Panel, error) {
	for {
		l.mu.Lock()
		p, changed := l.panel, l.changed
		l.mu.Unlock()

		if p != nil && p.Seq != seq {
			return p, nil
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-changed:
		}
	}
}
