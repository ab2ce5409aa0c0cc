package daq

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/daqforge/godaq/pkg/adc"
)

// runSampler is the producer role: one source read and one push per tick.
func (p *Pipeline) runSampler(ctx context.Context) {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			p.logger.Info("[sampler] stopping")
			return
		case <-ticker.C:
			p.sampleOnce()
		}
	}
}

// sampleOnce runs a single acquisition tick. The per-tick work is O(1)
// and never blocks on the averager: if the current batch is complete and
// still waiting for its drain, the tick is a no-op.
func (p *Pipeline) sampleOnce() {
	if int(p.count.Load()) >= p.batch {
		// Batch complete, awaiting drain. The next tick supersedes
		// this sample.
		return
	}

	v, err := p.source.Read()
	if err != nil {
		if errors.Is(err, adc.ErrNoSample) {
			// Hardware hasn't produced its first value yet.
			return
		}
		p.logger.Warn("[sampler] source read failed", zap.Error(err))
		return
	}

	if err := p.buf.Push(v); err != nil {
		// The counter said there was room but the buffer disagrees.
		// The two are maintained in lockstep, so this means the
		// producer/consumer protocol broke. Drop the sample and keep
		// ticking.
		p.dropped.Add(1)
		p.logger.Warn("[sampler] push failed with incomplete batch, dropping sample",
			zap.Error(err),
			zap.Int32("count", p.count.Load()),
			zap.Int("batch", p.batch),
		)
		return
	}

	p.notifySample(v)

	// The counter transition to a full batch gates the wake, so exactly
	// one signal is issued per batch no matter how many ticks follow.
	if p.count.Add(1) == int32(p.batch) {
		p.signal()
	}
}

// signal wakes the averager. The send is non-blocking against a
// capacity-1 channel: if a wake is already pending the new one coalesces
// with it, and no wake is ever lost while the averager is busy.
func (p *Pipeline) signal() {
	select {
	case p.wake <- struct{}{}:
	default:
	}
}
