package audio

import (
	"context"
	"errors"
	"sync"
)

// MockDevice is an in-memory Device for testing.
type MockDevice struct {
	mu       sync.Mutex
	r        Range
	level    float64
	writes   []float64
	open     bool
	opens    int
	closes   int
	openErr  error
	levelErr error
}

// NewMockDevice creates a mock with the given range, starting at its minimum.
func NewMockDevice(min, max float64) *MockDevice {
	return &MockDevice{
		r:     Range{Min: min, Max: max, Unit: "dB"},
		level: min,
	}
}

// SetOpenError makes the next Open calls fail with err.
func (m *MockDevice) SetOpenError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.openErr = err
}

// SetLevelError makes Level and SetLevel fail with err.
func (m *MockDevice) SetLevelError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.levelErr = err
}

func (m *MockDevice) Open(ctx context.Context) (Range, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.openErr != nil {
		return Range{}, m.openErr
	}
	if m.open {
		return Range{}, errors.New("mock device already open")
	}
	m.open = true
	m.opens++
	return m.r, nil
}

func (m *MockDevice) Level() (float64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.levelErr != nil {
		return 0, m.levelErr
	}
	return m.level, nil
}

func (m *MockDevice) SetLevel(level float64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.levelErr != nil {
		return m.levelErr
	}
	m.level = level
	m.writes = append(m.writes, level)
	return nil
}

func (m *MockDevice) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.open {
		m.open = false
		m.closes++
	}
	return nil
}

// IsOpen reports whether the device is currently acquired.
func (m *MockDevice) IsOpen() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.open
}

// Counts returns how many times the device was opened and closed.
func (m *MockDevice) Counts() (opens, closes int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.opens, m.closes
}

// Writes returns a copy of every level written.
func (m *MockDevice) Writes() []float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]float64(nil), m.writes...)
}
