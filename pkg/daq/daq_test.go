package daq

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/daqforge/godaq/pkg/config"
)

// seqSource returns 1, 2, 3, ... on successive reads.
type seqSource struct {
	mu        sync.Mutex
	next      uint16
	connected bool
}

func (s *seqSource) Connect() error { s.mu.Lock(); defer s.mu.Unlock(); s.connected = true; return nil }
func (s *seqSource) Close() error   { s.mu.Lock(); defer s.mu.Unlock(); s.connected = false; return nil }
func (s *seqSource) IsConnected() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.connected
}
func (s *seqSource) Read() (uint16, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.next++
	return s.next, nil
}

// valuesSource replays a fixed script of values, then repeats the last one.
type valuesSource struct {
	mu     sync.Mutex
	values []uint16
	pos    int
}

func (s *valuesSource) Connect() error    { return nil }
func (s *valuesSource) Close() error      { return nil }
func (s *valuesSource) IsConnected() bool { return true }
func (s *valuesSource) Read() (uint16, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v := s.values[s.pos]
	if s.pos < len(s.values)-1 {
		s.pos++
	}
	return v, nil
}

func acqConfig(interval time.Duration, batch int) *config.AcquisitionConfig {
	return &config.AcquisitionConfig{
		SampleInterval: interval,
		BatchSize:      batch,
	}
}

func TestSampler_SignalsExactlyOnceAfterNthPush(t *testing.T) {
	p := New(acqConfig(time.Hour, 10), &seqSource{}, nil)

	for i := 0; i < 9; i++ {
		p.sampleOnce()
		select {
		case <-p.wake:
			t.Fatalf("wake signaled after %d pushes, want none before 10", i+1)
		default:
		}
	}

	// The 10th push completes the batch.
	p.sampleOnce()
	select {
	case <-p.wake:
	default:
		t.Fatal("no wake signal after the 10th push")
	}

	// Further ticks are no-ops and must not re-signal.
	p.sampleOnce()
	p.sampleOnce()
	select {
	case <-p.wake:
		t.Fatal("wake re-signaled while batch awaits drain")
	default:
	}
	assert.Equal(t, int32(10), p.count.Load())
	assert.Equal(t, 10, p.buf.Len())
}

func TestDrainAndPublish(t *testing.T) {
	src := &valuesSource{values: []uint16{100, 200, 100, 200, 100, 200, 100, 200, 100, 200}}
	p := New(acqConfig(time.Hour, 10), src, nil)

	for i := 0; i < 10; i++ {
		p.sampleOnce()
	}

	avg, err := p.drain()
	require.NoError(t, err)
	assert.InDelta(t, 150.0, avg, 0.0001)
	assert.Equal(t, 0, p.buf.Len())
}

func TestAverager_PublishesAndResetsCounter(t *testing.T) {
	src := &valuesSource{values: []uint16{100, 200, 100, 200, 100, 200, 100, 200, 100, 200}}
	p := New(acqConfig(time.Hour, 10), src, nil)

	published := make(chan float64, 1)
	p.OnPublish(func(avg float64) { published <- avg })

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan struct{})
	go func() {
		defer close(done)
		p.runAverager(ctx)
	}()

	for i := 0; i < 10; i++ {
		p.sampleOnce()
	}

	select {
	case avg := <-published:
		assert.InDelta(t, 150.0, avg, 0.0001)
	case <-time.After(2 * time.Second):
		t.Fatal("no average published")
	}

	assert.InDelta(t, 150.0, p.Average(), 0.0001)
	assert.Equal(t, int32(0), p.count.Load())
	assert.Equal(t, uint64(1), p.Batches())
	assert.Equal(t, uint64(0), p.Underruns())

	cancel()
	<-done
}

func TestAverage_IdempotentBetweenPublishes(t *testing.T) {
	p := New(acqConfig(time.Hour, 10), &seqSource{}, nil)

	assert.Equal(t, 0.0, p.Average(), "sentinel before the first batch")

	p.avg.Store(512.3)
	first := p.Average()
	for i := 0; i < 100; i++ {
		assert.Equal(t, first, p.Average())
	}
}

func TestSampler_PushFailureDropsSample(t *testing.T) {
	p := New(acqConfig(time.Hour, 10), &seqSource{}, nil)

	// Corrupt the handoff: fill the buffer behind the counter's back so
	// the next tick sees room in the counter but none in the buffer.
	for i := 0; i < 10; i++ {
		require.NoError(t, p.buf.Push(uint16(i)))
	}
	require.Equal(t, int32(0), p.count.Load())

	p.sampleOnce()

	assert.Equal(t, uint64(1), p.Dropped())
	assert.Equal(t, int32(0), p.count.Load(), "dropped sample must not count toward the batch")
	select {
	case <-p.wake:
		t.Fatal("dropped sample must not signal")
	default:
	}
}

func TestAverager_UnderrunIsLoudAndResets(t *testing.T) {
	p := New(acqConfig(time.Hour, 10), &seqSource{}, nil)

	// Claim a full batch without buffering the samples.
	p.count.Store(10)
	p.signal()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan struct{})
	go func() {
		defer close(done)
		p.runAverager(ctx)
	}()

	require.Eventually(t, func() bool {
		return p.Underruns() == 1
	}, 2*time.Second, time.Millisecond)

	assert.Equal(t, int32(0), p.count.Load(), "counter must reset after a lost batch")
	assert.Equal(t, uint64(0), p.Batches())
	assert.Equal(t, 0.0, p.Average(), "a lost batch must not publish")

	cancel()
	<-done
}

func TestAverager_IgnoresSpuriousWake(t *testing.T) {
	p := New(acqConfig(time.Hour, 10), &seqSource{}, nil)

	// Wake with only a partial batch staged.
	for i := 0; i < 3; i++ {
		p.sampleOnce()
	}
	p.signal()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan struct{})
	go func() {
		defer close(done)
		p.runAverager(ctx)
	}()

	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, uint64(0), p.Batches())
	assert.Equal(t, uint64(0), p.Underruns())
	assert.Equal(t, int32(3), p.count.Load(), "partial batch must stay staged")

	cancel()
	<-done
}

func TestDrain_Underrun(t *testing.T) {
	p := New(acqConfig(time.Hour, 10), &seqSource{}, nil)

	require.NoError(t, p.buf.Push(7))
	_, err := p.drain()
	assert.ErrorIs(t, err, ErrBatchUnderrun)
}

// TestRun_EveryBatchHasExactlyNSamples runs the full pipeline against a
// strictly increasing source. Each batch then covers N consecutive values,
// so its mean is forced: any batch built from the wrong number of samples
// would break the arithmetic progression of published averages.
func TestRun_EveryBatchHasExactlyNSamples(t *testing.T) {
	const batch = 10
	p := New(acqConfig(200*time.Microsecond, batch), &seqSource{}, nil)

	var mu sync.Mutex
	var averages []float64
	p.OnPublish(func(avg float64) {
		mu.Lock()
		averages = append(averages, avg)
		mu.Unlock()
	})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		p.Run(ctx)
	}()

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(averages) >= 20
	}, 10*time.Second, time.Millisecond)

	cancel()
	<-done

	mu.Lock()
	defer mu.Unlock()
	for k, avg := range averages {
		// Batch k holds values kN+1 .. kN+N, whose mean is kN+(N+1)/2.
		want := float64(k*batch) + float64(batch+1)/2
		assert.InDelta(t, want, avg, 0.0001, "batch %d", k)
	}
	assert.Equal(t, uint64(0), p.Underruns())
	assert.Equal(t, uint64(0), p.Dropped())
}
