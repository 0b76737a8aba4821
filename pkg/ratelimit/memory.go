package ratelimit

import (
	"context"
	"sync"
	"time"
)

// DefaultSweepInterval is how often the background sweep removes identities
// whose window has emptied.
const DefaultSweepInterval = 5 * time.Minute

// Memory is an in-memory sliding-window store. A single mutex guards the
// whole identity map, so admission checks and the background sweep can
// never observe a half-updated record.
type Memory struct {
	mu     sync.Mutex
	hits   map[string][]time.Time
	cfg    Config
	done   chan struct{}
	closed bool

	sweepInterval time.Duration

	// now is swappable in tests.
	now func() time.Time
}

// MemoryOption configures a Memory store.
type MemoryOption func(*Memory)

// WithSweepInterval overrides the background sweep interval.
// A non-positive interval disables the sweep entirely.
func WithSweepInterval(d time.Duration) MemoryOption {
	return func(m *Memory) {
		m.sweepInterval = d
	}
}

// NewMemory creates an in-memory store and starts its sweep goroutine.
// Call Close to stop the sweep.
func NewMemory(cfg Config, opts ...MemoryOption) *Memory {
	m := &Memory{
		hits:          make(map[string][]time.Time),
		cfg:           cfg,
		done:          make(chan struct{}),
		now:           time.Now,
		sweepInterval: DefaultSweepInterval,
	}
	for _, opt := range opts {
		opt(m)
	}

	if m.sweepInterval > 0 {
		go m.sweep()
	}

	return m
}

// Allow admits the request when the identity's window has quota left,
// recording the current timestamp. Denied requests are not recorded.
func (m *Memory) Allow(_ context.Context, id string) (Decision, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	valid := m.purgeLocked(id, now)

	if len(valid) >= m.cfg.Limit {
		return Decision{
			Allowed:    false,
			Remaining:  0,
			ResetAfter: m.resetLocked(valid, now),
		}, nil
	}

	valid = append(valid, now)
	m.hits[id] = valid

	return Decision{
		Allowed:    true,
		Remaining:  m.cfg.Limit - len(valid),
		ResetAfter: m.resetLocked(valid, now),
	}, nil
}

// Remaining reports the quota left in the identity's current window
// without consuming any of it.
func (m *Memory) Remaining(_ context.Context, id string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	valid := m.purgeLocked(id, m.now())
	return max(0, m.cfg.Limit-len(valid)), nil
}

// ResetAfter reports how long until the identity's oldest recorded request
// leaves the window. Zero when the window is empty.
func (m *Memory) ResetAfter(_ context.Context, id string) (time.Duration, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	valid := m.purgeLocked(id, now)
	return m.resetLocked(valid, now), nil
}

// Close stops the sweep goroutine. Close is idempotent.
func (m *Memory) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return nil
	}
	m.closed = true
	close(m.done)
	return nil
}

// purgeLocked drops timestamps outside the window and stores the result.
// Caller must hold the mutex.
func (m *Memory) purgeLocked(id string, now time.Time) []time.Time {
	hits, ok := m.hits[id]
	if !ok {
		return nil
	}

	cutoff := now.Add(-m.cfg.Window)
	valid := hits[:0]
	for _, ts := range hits {
		if ts.After(cutoff) {
			valid = append(valid, ts)
		}
	}

	if len(valid) == 0 {
		delete(m.hits, id)
		return nil
	}

	m.hits[id] = valid
	return valid
}

// resetLocked computes time until the oldest entry leaves the window.
// Entries are appended in order, so the oldest is the first.
func (m *Memory) resetLocked(valid []time.Time, now time.Time) time.Duration {
	if len(valid) == 0 {
		return 0
	}
	return max(0, valid[0].Add(m.cfg.Window).Sub(now))
}

// sweep periodically removes identities with no entries left inside the
// window, bounding memory growth for one-off callers.
func (m *Memory) sweep() {
	ticker := time.NewTicker(m.sweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-m.done:
			return
		case <-ticker.C:
			m.mu.Lock()
			now := m.now()
			for id := range m.hits {
				m.purgeLocked(id, now)
			}
			m.mu.Unlock()
		}
	}
}

var _ Store = (*Memory)(nil)
