package monitor

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeSweeper fails or panics on selected calls.
type fakeSweeper struct {
	calls   atomic.Int32
	failOn  map[int32]bool
	panicOn map[int32]bool
}

func (f *fakeSweeper) SweepOnce(context.Context, time.Time) (int, error) {
	n := f.calls.Add(1)
	if f.panicOn[n] {
		panic("boom")
	}
	if f.failOn[n] {
		return 0, assert.AnError
	}
	return 1, nil
}

// slowSweeper ignores cancellation and records how many sweeps overlap.
type slowSweeper struct {
	delay   time.Duration
	calls   atomic.Int32
	active  atomic.Int32
	maxSeen atomic.Int32
}

func (s *slowSweeper) SweepOnce(context.Context, time.Time) (int, error) {
	s.calls.Add(1)
	n := s.active.Add(1)
	defer s.active.Add(-1)
	for {
		seen := s.maxSeen.Load()
		if n <= seen || s.maxSeen.CompareAndSwap(seen, n) {
			break
		}
	}
	time.Sleep(s.delay)
	return 0, nil
}

// blockingSweeper blocks until its context is cancelled.
type blockingSweeper struct {
	started chan struct{}
	once    sync.Once
}

func (b *blockingSweeper) SweepOnce(ctx context.Context, _ time.Time) (int, error) {
	b.once.Do(func() { close(b.started) })
	<-ctx.Done()
	return 0, ctx.Err()
}

func TestSweeperKeepsRunningAfterFailures(t *testing.T) {
	fake := &fakeSweeper{
		failOn:  map[int32]bool{1: true, 3: true},
		panicOn: map[int32]bool{2: true},
	}
	s := NewExpirationSweeper(fake, 5*time.Millisecond)

	require.NoError(t, s.Start(context.Background()))
	assert.True(t, s.Running())
	assert.Eventually(t, func() bool { return fake.calls.Load() >= 5 }, 2*time.Second, 5*time.Millisecond)

	require.NoError(t, s.Stop(context.Background()))
	assert.False(t, s.Running())

	after := fake.calls.Load()
	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, after, fake.calls.Load(), "no sweeps after Stop")
}

func TestSweeperSweepsImmediately(t *testing.T) {
	fake := &fakeSweeper{}
	s := NewExpirationSweeper(fake, time.Hour)

	require.NoError(t, s.Start(context.Background()))
	defer s.Stop(context.Background())

	assert.Eventually(t, func() bool { return fake.calls.Load() == 1 }, time.Second, time.Millisecond)
}

func TestSweeperStartStopAreIdempotent(t *testing.T) {
	fake := &fakeSweeper{}
	s := NewExpirationSweeper(fake, time.Hour)

	require.NoError(t, s.Stop(context.Background()), "stopping an idle sweeper")

	require.NoError(t, s.Start(context.Background()))
	require.NoError(t, s.Start(context.Background()))
	assert.Eventually(t, func() bool { return fake.calls.Load() >= 1 }, time.Second, time.Millisecond)
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, int32(1), fake.calls.Load(), "second Start does not launch another loop")

	require.NoError(t, s.Stop(context.Background()))
	require.NoError(t, s.Stop(context.Background()))

	require.NoError(t, s.Start(context.Background()))
	assert.Eventually(t, func() bool { return fake.calls.Load() == 2 }, time.Second, time.Millisecond)
	require.NoError(t, s.Stop(context.Background()))
}

func TestSweeperStopCancelsInFlightSweep(t *testing.T) {
	blocking := &blockingSweeper{started: make(chan struct{})}
	s := NewExpirationSweeper(blocking, time.Hour)

	require.NoError(t, s.Start(context.Background()))
	<-blocking.started

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	assert.NoError(t, s.Stop(ctx))
}

func TestSweeperStopsWithParentContext(t *testing.T) {
	fake := &fakeSweeper{}
	s := NewExpirationSweeper(fake, time.Millisecond)
	ctx, cancel := context.WithCancel(context.Background())

	require.NoError(t, s.Start(ctx))
	assert.Eventually(t, func() bool { return fake.calls.Load() >= 1 }, time.Second, time.Millisecond)
	cancel()

	stopCtx, stopCancel := context.WithTimeout(context.Background(), time.Second)
	defer stopCancel()
	assert.NoError(t, s.Stop(stopCtx))
}

func TestNewExpirationSweeperDefaultsInterval(t *testing.T) {
	s := NewExpirationSweeper(&fakeSweeper{}, 0)
	assert.Equal(t, DefaultInterval, s.interval)
}

func TestSweeperRestartsAfterParentContextCancelled(t *testing.T) {
	fake := &fakeSweeper{}
	s := NewExpirationSweeper(fake, time.Millisecond)
	ctx, cancel := context.WithCancel(context.Background())

	require.NoError(t, s.Start(ctx))
	assert.Eventually(t, func() bool { return fake.calls.Load() >= 1 }, time.Second, time.Millisecond)
	cancel()
	assert.Eventually(t, func() bool { return !s.Running() }, time.Second, time.Millisecond)

	before := fake.calls.Load()
	require.NoError(t, s.Start(context.Background()))
	assert.True(t, s.Running())
	assert.Eventually(t, func() bool { return fake.calls.Load() > before+2 }, time.Second, time.Millisecond)
	require.NoError(t, s.Stop(context.Background()))
}

func TestSweeperStartAfterStopTimeoutKeepsOneLoop(t *testing.T) {
	slow := &slowSweeper{delay: 200 * time.Millisecond}
	s := NewExpirationSweeper(slow, time.Millisecond)

	require.NoError(t, s.Start(context.Background()))
	assert.Eventually(t, func() bool { return slow.calls.Load() >= 1 }, time.Second, time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	require.ErrorIs(t, s.Stop(ctx), context.DeadlineExceeded)
	assert.False(t, s.Running())

	assert.ErrorIs(t, s.Start(context.Background()), ErrStillStopping)

	require.NoError(t, s.Stop(context.Background()), "a second Stop waits for the old loop")
	require.NoError(t, s.Start(context.Background()))
	assert.Eventually(t, func() bool { return slow.calls.Load() >= 2 }, 2*time.Second, time.Millisecond)
	require.NoError(t, s.Stop(context.Background()))

	assert.Equal(t, int32(1), slow.maxSeen.Load())
}
