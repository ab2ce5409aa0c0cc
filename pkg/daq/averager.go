package daq

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
)

// ErrBatchUnderrun is returned by a drain that finds fewer samples than
// the batch size. The wake protocol guarantees a full batch, so an
// underrun means the producer/consumer handoff lost synchronization.
var ErrBatchUnderrun = errors.New("daq: batch underrun")

// runAverager is the consumer role: wait for the wake, drain one batch,
// publish its mean. The wait on the wake channel is the only place the
// consumer suspends.
func (p *Pipeline) runAverager(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			p.logger.Info("[averager] stopping")
			return
		case <-p.wake:
			// Verify the batch is actually complete rather than
			// trusting the wake alone.
			if int(p.count.Load()) < p.batch {
				continue
			}

			avg, err := p.drain()
			if err != nil {
				p.underruns.Add(1)
				p.logger.Error("[averager] discarding batch", zap.Error(err))
			} else {
				p.avg.Store(avg)
				p.batches.Add(1)
			}

			// Reset on both paths: a stuck counter would stall the
			// sampler forever.
			p.count.Store(0)

			if err == nil {
				p.notifyPublish(avg)
			}
		}
	}
}

// drain pops exactly one batch of samples and returns their mean. A pop
// failure before the batch is complete is reported as ErrBatchUnderrun;
// the samples already popped are discarded.
func (p *Pipeline) drain() (float64, error) {
	var sum float64
	for i := 0; i < p.batch; i++ {
		v, err := p.buf.Pop()
		if err != nil {
			return 0, fmt.Errorf("%w: got %d of %d samples", ErrBatchUnderrun, i, p.batch)
		}
		sum += float64(v)
	}
	return sum / float64(p.batch), nil
}
