package volume

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeDevice struct {
	level   float64
	writes  []float64
	readErr error
	setErr  error
}

func (d *fakeDevice) Level() (float64, error) {
	if d.readErr != nil {
		return 0, d.readErr
	}
	return d.level, nil
}

func (d *fakeDevice) SetLevel(level float64) error {
	if d.setErr != nil {
		return d.setErr
	}
	d.level = level
	d.writes = append(d.writes, level)
	return nil
}

func TestInterp(t *testing.T) {
	tests := []struct {
		name string
		x    float64
		want float64
	}{
		{name: "below domain clamps to start", x: -50, want: 0},
		{name: "domain start", x: 30, want: 0},
		{name: "midpoint", x: 115, want: 50},
		{name: "domain end", x: 200, want: 100},
		{name: "above domain clamps to end", x: 1000, want: 100},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, Interp(tt.x, 30, 200, 0, 100), 1e-9)
		})
	}
}

func TestInterp_DescendingRange(t *testing.T) {
	assert.InDelta(t, -65.25, Interp(0, 0, 100, -65.25, 0), 1e-9)
	assert.InDelta(t, 0, Interp(100, 0, 100, -65.25, 0), 1e-9)
	assert.InDelta(t, -32.625, Interp(50, 0, 100, -65.25, 0), 1e-9)
}

func TestConfig_TargetPercent_Clamping(t *testing.T) {
	cfg := DefaultConfig()

	for d := -10.0; d <= 30; d += 0.5 {
		assert.Equal(t, 0, cfg.TargetPercent(d), "distance %.1f", d)
	}
	for d := 200.0; d <= 500; d += 7 {
		assert.Equal(t, 100, cfg.TargetPercent(d), "distance %.1f", d)
	}

	prev := cfg.TargetPercent(30)
	for d := 30.0; d <= 200; d += 0.25 {
		got := cfg.TargetPercent(d)
		require.GreaterOrEqual(t, got, prev, "not monotonic at distance %.2f", d)
		prev = got
	}
}

func TestConfig_Validate(t *testing.T) {
	require.NoError(t, DefaultConfig().Validate())

	bad := []func(*Config){
		func(c *Config) { c.MaxDistance = c.MinDistance },
		func(c *Config) { c.SmoothingFactor = 0 },
		func(c *Config) { c.SmoothingFactor = 1.5 },
		func(c *Config) { c.DeadBand = -1 },
		func(c *Config) { c.DeviceHysteresis = -0.1 },
	}
	for i, mutate := range bad {
		cfg := DefaultConfig()
		mutate(&cfg)
		assert.Error(t, cfg.Validate(), "case %d", i)
	}
}

func TestSmoother_DeadBand(t *testing.T) {
	tests := []struct {
		name   string
		prev   int
		target int
	}{
		{name: "equal", prev: 40, target: 40},
		{name: "up by dead-band", prev: 40, target: 45},
		{name: "down by dead-band", prev: 40, target: 35},
		{name: "up by one", prev: 99, target: 100},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewSmoother(0.3, 5)
			s.prev = tt.prev

			assert.Equal(t, tt.target, s.Update(tt.target))
		})
	}
}

func TestSmoother_EMAStep(t *testing.T) {
	s := NewSmoother(0.3, 5)

	assert.Equal(t, 30, s.Update(100), "first step from 0 toward 100")
	assert.Equal(t, 51, s.Update(100))
	assert.Equal(t, 66, s.Update(100))
}

func TestSmoother_Convergence(t *testing.T) {
	for _, target := range []int{0, 7, 50, 93, 100} {
		for _, start := range []int{0, 20, 64, 100} {
			s := NewSmoother(0.3, 5)
			s.prev = start

			prev := start
			for i := 0; i < 50; i++ {
				got := s.Update(target)
				if start <= target {
					require.GreaterOrEqual(t, got, prev, "start %d target %d step %d", start, target, i)
					require.LessOrEqual(t, got, target, "overshoot start %d target %d step %d", start, target, i)
				} else {
					require.LessOrEqual(t, got, prev, "start %d target %d step %d", start, target, i)
					require.GreaterOrEqual(t, got, target, "overshoot start %d target %d step %d", start, target, i)
				}
				prev = got
			}
			assert.Equal(t, target, prev, "start %d did not converge", start)
		}
	}
}

func TestSmoother_Reset(t *testing.T) {
	s := NewSmoother(0.3, 5)
	s.Update(100)
	s.Update(100)
	require.NotZero(t, s.Value())

	s.Reset()
	assert.Zero(t, s.Value())
	assert.Equal(t, 30, s.Update(100))
}

func TestMapper_DeviceLevel(t *testing.T) {
	m := NewMapper(DefaultConfig(), nil, -65.25, 0)

	assert.InDelta(t, -65.25, m.DeviceLevel(0), 1e-9)
	assert.InDelta(t, 0, m.DeviceLevel(100), 1e-9)
	assert.InDelta(t, -45.675, m.DeviceLevel(30), 1e-9)
}

func TestMapper_Apply_WritesThrough(t *testing.T) {
	dev := &fakeDevice{level: -65.25}
	m := NewMapper(DefaultConfig(), dev, -65.25, 0)

	res, err := m.Apply(200)
	require.NoError(t, err)

	assert.Equal(t, 100, res.TargetPercent)
	assert.Equal(t, 30, res.SmoothedPercent)
	assert.True(t, res.Written)
	require.Len(t, dev.writes, 1)
	assert.InDelta(t, res.DeviceLevel, dev.writes[0], 1e-9)
	assert.Equal(t, 30, m.Smoothed())
}

func TestMapper_Apply_Hysteresis(t *testing.T) {
	cfg := DefaultConfig()
	dev := &fakeDevice{}
	m := NewMapper(cfg, dev, -65.25, 0)

	// Put the device within the hysteresis band of the level for 30%.
	dev.level = m.DeviceLevel(30) + cfg.DeviceHysteresis/2

	res, err := m.Apply(200)
	require.NoError(t, err)

	assert.Equal(t, 30, res.SmoothedPercent)
	assert.False(t, res.Written)
	assert.Empty(t, dev.writes)
}

func TestMapper_Apply_DeviceErrors(t *testing.T) {
	t.Run("read error", func(t *testing.T) {
		dev := &fakeDevice{readErr: errors.New("gone")}
		m := NewMapper(DefaultConfig(), dev, -65.25, 0)

		res, err := m.Apply(200)
		require.Error(t, err)
		assert.Equal(t, 30, res.SmoothedPercent, "smoothing advances even on device error")
		assert.Equal(t, 30, m.Smoothed())
	})

	t.Run("write error", func(t *testing.T) {
		dev := &fakeDevice{level: -65.25, setErr: errors.New("busy")}
		m := NewMapper(DefaultConfig(), dev, -65.25, 0)

		res, err := m.Apply(200)
		require.Error(t, err)
		assert.False(t, res.Written)
	})
}

func TestMapper_Apply_NoDevice(t *testing.T) {
	m := NewMapper(DefaultConfig(), nil, -65.25, 0)

	res, err := m.Apply(115)
	require.NoError(t, err)
	assert.Equal(t, 50, res.TargetPercent)
	assert.Equal(t, 15, res.SmoothedPercent)
	assert.False(t, res.Written)
}
