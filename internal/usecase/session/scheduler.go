package session

import (
	"sync"
	"time"
)

// DefaultContextualInterval is the tick period of the contextual channel
const DefaultContextualInterval = 30 * time.Second

// scheduler drives the contextual channel of one session. It is owned by the
// session actor; only stop may be called from elsewhere.
type scheduler struct {
	interval time.Duration
	ticker   *time.Ticker
	stopOnce sync.Once
	mu       sync.Mutex
	stopped  bool
	// client segments stored since the last analysis
	pending int
}

func newScheduler(interval time.Duration) *scheduler {
	if interval <= 0 {
		interval = DefaultContextualInterval
	}
	return &scheduler{interval: interval}
}

// start arms the ticker. No-op after stop.
func (sc *scheduler) start() {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	if sc.stopped || sc.ticker != nil {
		return
	}
	sc.ticker = time.NewTicker(sc.interval)
}

// C returns the tick channel, nil until started
func (sc *scheduler) C() <-chan time.Time {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	if sc.ticker == nil || sc.stopped {
		return nil
	}
	return sc.ticker.C
}

// stop cancels the ticker exactly once
func (sc *scheduler) stop() {
	sc.stopOnce.Do(func() {
		sc.mu.Lock()
		defer sc.mu.Unlock()
		sc.stopped = true
		if sc.ticker != nil {
			sc.ticker.Stop()
		}
	})
}

func (sc *scheduler) noteSegment() {
	sc.pending++
}

// due reports whether anything new was said since the last analysis
func (sc *scheduler) due() bool {
	return sc.pending > 0
}

func (sc *scheduler) analyzed() {
	sc.pending = 0
}
