// Package daq implements the acquisition core: a ticker-driven sampler
// pushes raw values into a bounded buffer, and an averaging goroutine
// wakes once per full batch to drain it and publish the mean.
//
// The sampler and averager are the only writer and the only reader of the
// buffer, and the batch counter is incremented only by the sampler and
// reset only by the averager. All cross-goroutine state is atomic, so the
// handoff needs no lock.
package daq

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/daqforge/godaq/pkg/adc"
	"github.com/daqforge/godaq/pkg/config"
	"github.com/daqforge/godaq/pkg/ring"
)

// Pipeline owns the buffer, the batch counter, the wake channel, and the
// published average, and runs the sampler and averager roles against them.
type Pipeline struct {
	source   adc.Source
	logger   *zap.Logger
	interval time.Duration
	batch    int

	buf   *ring.Buffer[uint16]
	count atomic.Int32  // samples pushed since the last drain (0..batch)
	wake  chan struct{} // capacity 1: wakes coalesce, never get lost
	avg   AverageCell

	// Stats
	dropped   atomic.Uint64 // samples dropped because Push failed
	underruns atomic.Uint64 // batches discarded because the drain came up short
	batches   atomic.Uint64 // batches published

	cbMu      sync.RWMutex
	onSample  []func(v uint16)
	onPublish []func(avg float64)
}

// New creates a pipeline for the given source. The buffer capacity equals
// the batch size, as one batch is always fully drained before the next
// one starts filling.
func New(cfg *config.AcquisitionConfig, source adc.Source, logger *zap.Logger) *Pipeline {
	if logger == nil {
		logger = zap.NewNop()
	}
	interval := cfg.SampleInterval
	if interval <= 0 {
		interval = 100 * time.Millisecond
	}
	batch := cfg.BatchSize
	if batch <= 0 {
		batch = 10
	}

	return &Pipeline{
		source:   source,
		logger:   logger,
		interval: interval,
		batch:    batch,
		buf:      ring.New[uint16](batch),
		wake:     make(chan struct{}, 1),
	}
}

// Run starts the averager and the sampler and blocks until ctx is
// cancelled.
func (p *Pipeline) Run(ctx context.Context) {
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		p.runAverager(ctx)
	}()
	go func() {
		defer wg.Done()
		p.runSampler(ctx)
	}()
	wg.Wait()
	p.logger.Info("[daq] pipeline stopped",
		zap.Uint64("batches", p.batches.Load()),
		zap.Uint64("dropped", p.dropped.Load()),
		zap.Uint64("underruns", p.underruns.Load()),
	)
}

// Average returns the mean of the most recently completed batch, 0 before
// the first batch completes.
func (p *Pipeline) Average() float64 {
	return p.avg.Load()
}

// BatchSize returns the number of samples per averaging batch.
func (p *Pipeline) BatchSize() int {
	return p.batch
}

// Dropped returns the number of samples dropped by failed pushes.
func (p *Pipeline) Dropped() uint64 {
	return p.dropped.Load()
}

// Underruns returns the number of batches discarded by a short drain.
func (p *Pipeline) Underruns() uint64 {
	return p.underruns.Load()
}

// Batches returns the number of batches published so far.
func (p *Pipeline) Batches() uint64 {
	return p.batches.Load()
}

// OnSample registers a callback invoked with every raw value the sampler
// buffers. Callbacks run on the sampler goroutine and must return quickly.
func (p *Pipeline) OnSample(cb func(v uint16)) {
	p.cbMu.Lock()
	defer p.cbMu.Unlock()
	p.onSample = append(p.onSample, cb)
}

// OnPublish registers a callback invoked with every published batch
// average. Callbacks run on the averager goroutine and must return
// quickly.
func (p *Pipeline) OnPublish(cb func(avg float64)) {
	p.cbMu.Lock()
	defer p.cbMu.Unlock()
	p.onPublish = append(p.onPublish, cb)
}

func (p *Pipeline) notifySample(v uint16) {
	p.cbMu.RLock()
	cbs := p.onSample
	p.cbMu.RUnlock()
	for _, cb := range cbs {
		cb(v)
	}
}

func (p *Pipeline) notifyPublish(avg float64) {
	p.cbMu.RLock()
	cbs := p.onPublish
	p.cbMu.RUnlock()
	for _, cb := range cbs {
		cb(avg)
	}
}
