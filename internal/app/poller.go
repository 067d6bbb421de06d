package app

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Poller drives background refreshes while repository indexing is
// outstanding. It is level-triggered: while the pending predicate holds,
// one refresh fires per interval; the moment it clears, the loop stops.
// Only full authoritative reloads go through it — never partial writes —
// so it converges to ground truth no matter how many optimistic toggles
// happened in between.
type Poller struct {
	mu       sync.Mutex
	interval time.Duration
	pending  func() bool
	refresh  func(ctx context.Context)
	log      zerolog.Logger
	stop     chan struct{} // non-nil while the loop runs
}

func NewPoller(interval time.Duration, pending func() bool, refresh func(ctx context.Context), logger zerolog.Logger) *Poller {
	if interval <= 0 {
		interval = 5 * time.Second
	}
	return &Poller{
		interval: interval,
		pending:  pending,
		refresh:  refresh,
		log:      logger,
	}
}

// Sync reconciles the loop with the predicate. Call it whenever state
// that feeds the predicate may have changed (profile load, toggle,
// refresh). Re-entering the pending condition starts one fresh loop;
// loops never stack.
func (p *Poller) Sync() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.pending() {
		if p.stop != nil {
			return
		}
		p.stop = make(chan struct{})
		p.log.Debug().Dur("interval", p.interval).Msg("indexing poll started")
		go p.run(p.stop)
		return
	}
	if p.stop != nil {
		close(p.stop)
		p.stop = nil
		p.log.Debug().Msg("indexing poll stopped")
	}
}

// Stop tears the loop down unconditionally.
func (p *Poller) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.stop != nil {
		close(p.stop)
		p.stop = nil
	}
}

func (p *Poller) Running() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.stop != nil
}

func (p *Poller) run(stop chan struct{}) {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			ctx, cancel := context.WithTimeout(context.Background(), p.interval*4)
			p.refresh(ctx)
			cancel()

			if !p.pending() {
				p.mu.Lock()
				if p.stop == stop {
					p.stop = nil
					p.log.Debug().Msg("indexing settled, poll stopped")
				}
				p.mu.Unlock()
				return
			}
		}
	}
}
