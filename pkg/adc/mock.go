package adc

import (
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/daqforge/godaq/pkg/config"
)

// Mock simulates an analog input for testing and development. Values are
// computed from elapsed time on each Read, so the mock needs no goroutine
// of its own.
type Mock struct {
	cfg      *config.MockConfig
	maxCount uint16

	mu        sync.RWMutex
	connected bool
	startTime time.Time

	now func() time.Time // Injectable clock for tests
}

// NewMock creates a new mocked source. maxCount bounds the simulated
// converter output (4095 for 12-bit).
func NewMock(cfg *config.MockConfig, maxCount uint16) *Mock {
	if cfg == nil {
		def := config.Default()
		cfg = &def.Mock
	}
	if maxCount == 0 {
		maxCount = 4095
	}

	return &Mock{
		cfg:      cfg,
		maxCount: maxCount,
		now:      time.Now,
	}
}

// Connect simulates connecting to the hardware.
func (m *Mock) Connect() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.connected {
		return fmt.Errorf("already connected")
	}

	m.connected = true
	m.startTime = m.now()

	return nil
}

// Close stops the mocked source.
func (m *Mock) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.connected = false
	return nil
}

// Read returns a simulated converter value: a slow sine wave around the
// configured bias plus a small amount of deterministic noise, clamped to
// the converter range.
func (m *Mock) Read() (uint16, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if !m.connected {
		return 0, fmt.Errorf("not connected")
	}

	elapsed := m.now().Sub(m.startTime)

	phase := 2 * math.Pi * elapsed.Seconds() / m.cfg.Period.Seconds()
	value := m.cfg.Bias + m.cfg.Amplitude*math.Sin(phase)

	// Deterministic pseudo-noise, same flavor as thermal jitter
	noise := (math.Sin(float64(elapsed.Nanoseconds())*0.001) +
		math.Cos(float64(elapsed.Nanoseconds())*0.0013)) *
		m.cfg.NoiseLevel * 0.5
	value += noise

	if value < 0 {
		value = 0
	} else if value > float64(m.maxCount) {
		value = float64(m.maxCount)
	}

	return uint16(value), nil
}

// IsConnected returns whether the source is currently connected.
func (m *Mock) IsConnected() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.connected
}
