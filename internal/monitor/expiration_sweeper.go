package monitor

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"
)

// DefaultInterval is the time between two sweeps when none is configured.
const DefaultInterval = time.Hour

// Sweeper removes expired links. *services.LinkService implements it.
type Sweeper interface {
	SweepOnce(ctx context.Context, now time.Time) (int, error)
}

// ErrStillStopping is returned by Start while a loop from an earlier timed-out
// Stop has not exited yet.
var ErrStillStopping = errors.New("previous sweep loop is still stopping")

// ExpirationSweeper runs Sweeper.SweepOnce on a fixed interval in its own goroutine.
// Start and Stop are idempotent and may be called from any goroutine.
// At most one loop exists at a time.
type ExpirationSweeper struct {
	sweeper  Sweeper
	interval time.Duration
	nowFunc  func() time.Time

	mu     sync.Mutex
	cancel context.CancelFunc // nil once Stop was requested or the loop exited
	done   chan struct{}      // non-nil until the loop is known to have exited
}

// NewExpirationSweeper creates an idle sweeper. A non-positive interval means DefaultInterval.
func NewExpirationSweeper(sweeper Sweeper, interval time.Duration) *ExpirationSweeper {
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &ExpirationSweeper{
		sweeper:  sweeper,
		interval: interval,
		nowFunc:  time.Now,
	}
}

// Start launches the sweep loop. It sweeps once right away, then on every tick,
// until ctx is cancelled or Stop is called. Starting a running sweeper does nothing.
// A sweeper whose parent context was cancelled can be started again.
func (m *ExpirationSweeper) Start(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.cancel != nil {
		return nil
	}
	if m.done != nil {
		select {
		case <-m.done:
			m.done = nil
		default:
			return ErrStillStopping
		}
	}

	loopCtx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	m.cancel = cancel
	m.done = done

	go m.run(loopCtx, done)
	return nil
}

// Stop signals the loop to exit and waits until it has, or until ctx expires.
// An in-flight sweep sees its context cancelled. Stopping an idle sweeper returns nil.
// After a timeout, Stop may be called again to keep waiting.
func (m *ExpirationSweeper) Stop(ctx context.Context) error {
	m.mu.Lock()
	cancel, done := m.cancel, m.done
	m.cancel = nil
	m.mu.Unlock()

	if done == nil {
		return nil
	}
	if cancel != nil {
		cancel()
	}

	select {
	case <-done:
		m.release(done)
		return nil
	case <-ctx.Done():
		return fmt.Errorf("sweeper did not stop in time: %w", ctx.Err())
	}
}

// Running reports whether a loop is active and no Stop was requested.
func (m *ExpirationSweeper) Running() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.cancel != nil
}

// release forgets the loop owning done, unless a newer loop replaced it.
func (m *ExpirationSweeper) release(done chan struct{}) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.done == done {
		if m.cancel != nil {
			m.cancel()
		}
		m.cancel, m.done = nil, nil
	}
}

func (m *ExpirationSweeper) run(ctx context.Context, done chan struct{}) {
	defer close(done)
	defer m.release(done)

	log.Printf("[SWEEPER] Starting expiration sweeper with interval of %v...", m.interval)
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	m.sweep(ctx)
	for {
		select {
		case <-ctx.Done():
			log.Println("[SWEEPER] Stopped.")
			return
		case <-ticker.C:
			m.sweep(ctx)
		}
	}
}

// sweep runs one pass. Errors and panics are logged; the loop carries on at the next tick.
func (m *ExpirationSweeper) sweep(ctx context.Context) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("[SWEEPER] ERROR: sweep panicked: %v", r)
		}
	}()

	if ctx.Err() != nil {
		return
	}
	removed, err := m.sweeper.SweepOnce(ctx, m.nowFunc())
	if err != nil {
		log.Printf("[SWEEPER] ERROR removing expired links: %v", err)
		return
	}
	if removed > 0 {
		log.Printf("[SWEEPER] Removed %d expired link(s).", removed)
	}
}
