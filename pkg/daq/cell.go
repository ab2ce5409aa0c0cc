package daq

import (
	"math"
	"sync/atomic"
)

// AverageCell holds the most recently published batch average. The value
// is stored as one atomic word, so readers in any goroutine get either the
// previous average or the new one, never a torn value. Only the averager
// writes it.
type AverageCell struct {
	bits atomic.Uint64
}

// Store publishes a new average.
func (c *AverageCell) Store(v float64) {
	c.bits.Store(math.Float64bits(v))
}

// Load returns the last published average, 0 before the first batch
// completes.
func (c *AverageCell) Load() float64 {
	return math.Float64frombits(c.bits.Load())
}
