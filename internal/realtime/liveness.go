package realtime

import (
	"context"
	"time"

	"github.com/jonboulle/clockwork"
)

// DefaultHeartbeatInterval is the ping period when none is configured.
const DefaultHeartbeatInterval = 30 * time.Second

// Monitor triggers a liveness sweep every interval. A connection that misses
// one full ping/pong round is evicted on the following sweep, so detection
// takes at most two intervals.
type Monitor struct {
	clock    clockwork.Clock
	interval time.Duration
	sweep    func()
}

func NewMonitor(clock clockwork.Clock, interval time.Duration, sweep func()) *Monitor {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	if interval <= 0 {
		interval = DefaultHeartbeatInterval
	}
	return &Monitor{clock: clock, interval: interval, sweep: sweep}
}

// Run sweeps on every tick until ctx is cancelled.
func (m *Monitor) Run(ctx context.Context) {
	ticker := m.clock.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.Chan():
			m.sweep()
		case <-ctx.Done():
			return
		}
	}
}
