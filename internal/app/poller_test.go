package app

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type pollerHarness struct {
	pending  atomic.Bool
	refreshs atomic.Int64
}

func (h *pollerHarness) refresh(ctx context.Context) {
	h.refreshs.Add(1)
}

func newTestPoller(h *pollerHarness, interval time.Duration) *Poller {
	return NewPoller(interval, h.pending.Load, h.refresh, zerolog.Nop())
}

func waitFor(t *testing.T, timeout time.Duration, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(2 * time.Millisecond)
	}
	t.Fatalf("condition not met within %v", timeout)
}

func TestPoller_IdleWhenNothingPending(t *testing.T) {
	h := &pollerHarness{}
	p := newTestPoller(h, 5*time.Millisecond)

	p.Sync()
	assert.False(t, p.Running())

	time.Sleep(30 * time.Millisecond)
	assert.Zero(t, h.refreshs.Load())
}

func TestPoller_RefreshesWhilePendingThenStops(t *testing.T) {
	h := &pollerHarness{}
	h.pending.Store(true)
	p := newTestPoller(h, 5*time.Millisecond)
	defer p.Stop()

	p.Sync()
	require.True(t, p.Running())

	waitFor(t, time.Second, func() bool { return h.refreshs.Load() >= 3 })

	// Once the predicate clears, the loop winds down within a tick.
	h.pending.Store(false)
	waitFor(t, time.Second, func() bool { return !p.Running() })

	settled := h.refreshs.Load()
	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, settled, h.refreshs.Load(), "no refreshes after the loop stopped")
}

func TestPoller_SyncDoesNotStackTimers(t *testing.T) {
	h := &pollerHarness{}
	h.pending.Store(true)
	p := newTestPoller(h, 20*time.Millisecond)
	defer p.Stop()

	for i := 0; i < 5; i++ {
		p.Sync()
	}

	time.Sleep(110 * time.Millisecond)
	got := h.refreshs.Load()
	// One loop ticking at 20ms produces ~5 refreshes in 110ms; five
	// stacked loops would produce ~25.
	assert.LessOrEqual(t, got, int64(8), "repeated Sync must reuse the running loop")
	assert.GreaterOrEqual(t, got, int64(3))
}

func TestPoller_ReentersPendingWithFreshTimer(t *testing.T) {
	h := &pollerHarness{}
	h.pending.Store(true)
	p := newTestPoller(h, 5*time.Millisecond)
	defer p.Stop()

	p.Sync()
	waitFor(t, time.Second, func() bool { return h.refreshs.Load() >= 1 })

	h.pending.Store(false)
	waitFor(t, time.Second, func() bool { return !p.Running() })

	// Selecting another repository re-enters the pending condition.
	h.pending.Store(true)
	p.Sync()
	require.True(t, p.Running())

	before := h.refreshs.Load()
	waitFor(t, time.Second, func() bool { return h.refreshs.Load() > before })
}

func TestPoller_StopTearsDown(t *testing.T) {
	h := &pollerHarness{}
	h.pending.Store(true)
	p := newTestPoller(h, 5*time.Millisecond)

	p.Sync()
	require.True(t, p.Running())

	p.Stop()
	assert.False(t, p.Running())

	// Allow a tick already being processed at Stop time to drain.
	time.Sleep(20 * time.Millisecond)
	settled := h.refreshs.Load()
	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, settled, h.refreshs.Load())
}
