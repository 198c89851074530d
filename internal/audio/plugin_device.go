package audio

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ayusman/handvol/internal/plugin"
)

// Actions a mixer plugin must answer.
const (
	ActionRange = "volume-range"
	ActionGet   = "volume-get"
	ActionSet   = "volume-set"
)

// DefaultLevelRefresh is how long a level read from the plugin is reused.
const DefaultLevelRefresh = 250 * time.Millisecond

type levelData struct {
	Level float64 `json:"level"`
}

// PluginDevice drives the mixer through an external plugin executable.
// Reads are cached for a short interval since every call starts a process.
type PluginDevice struct {
	exec    *plugin.Executor
	plugin  *plugin.Plugin
	refresh time.Duration

	ctx    context.Context
	cancel context.CancelFunc

	level     float64
	levelRead time.Time
	now       func() time.Time
}

// NewPluginDevice creates a device backed by p. A non-positive refresh
// selects DefaultLevelRefresh.
func NewPluginDevice(exec *plugin.Executor, p *plugin.Plugin, refresh time.Duration) *PluginDevice {
	if refresh <= 0 {
		refresh = DefaultLevelRefresh
	}
	return &PluginDevice{
		exec:    exec,
		plugin:  p,
		refresh: refresh,
		now:     time.Now,
	}
}

// Open queries the level range. Any failure is reported as ErrUnavailable.
func (d *PluginDevice) Open(ctx context.Context) (Range, error) {
	if d.plugin == nil {
		return Range{}, fmt.Errorf("%w: no mixer plugin", ErrUnavailable)
	}

	var r Range
	if err := d.exec.Call(ctx, d.plugin, ActionRange, nil, &r); err != nil {
		return Range{}, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if err := r.Validate(); err != nil {
		return Range{}, err
	}

	d.ctx, d.cancel = context.WithCancel(ctx)
	d.levelRead = time.Time{}
	return r, nil
}

// Level returns the current level, reusing a recent read.
func (d *PluginDevice) Level() (float64, error) {
	if err := d.opened(); err != nil {
		return 0, err
	}
	if !d.levelRead.IsZero() && d.now().Sub(d.levelRead) < d.refresh {
		return d.level, nil
	}

	var data levelData
	if err := d.exec.Call(d.ctx, d.plugin, ActionGet, nil, &data); err != nil {
		return 0, err
	}
	d.level = data.Level
	d.levelRead = d.now()
	return d.level, nil
}

// SetLevel pushes level to the mixer.
func (d *PluginDevice) SetLevel(level float64) error {
	if err := d.opened(); err != nil {
		return err
	}
	if err := d.exec.Call(d.ctx, d.plugin, ActionSet, levelData{Level: level}, nil); err != nil {
		return err
	}
	d.level = level
	d.levelRead = d.now()
	return nil
}

// Close cancels any call still in flight.
func (d *PluginDevice) Close() error {
	if d.cancel != nil {
		d.cancel()
		d.cancel = nil
	}
	d.ctx = nil
	return nil
}

func (d *PluginDevice) opened() error {
	if d.ctx == nil {
		return errors.New("audio device not open")
	}
	return nil
}
