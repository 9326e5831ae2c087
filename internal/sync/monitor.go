package sync

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// HealthProber checks whether the remote authority is reachable.
type HealthProber interface {
	Health(ctx context.Context) error
}

// Monitor tracks reachability of the remote authority by probing its health
// endpoint on an interval. Subscribers receive a signal on every transition;
// the transition to online is what un-strands queued work.
type Monitor struct {
	prober   HealthProber
	interval time.Duration
	timeout  time.Duration
	logger   *zap.Logger

	mu     sync.Mutex
	online bool
	subs   []chan bool
}

// NewMonitor constructs a monitor. It starts offline until the first
// successful probe or an explicit SetOnline.
func NewMonitor(prober HealthProber, interval, timeout time.Duration, logger *zap.Logger) *Monitor {
	if interval <= 0 {
		interval = 10 * time.Second
	}
	if timeout <= 0 {
		timeout = 2 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Monitor{
		prober:   prober,
		interval: interval,
		timeout:  timeout,
		logger:   logger,
	}
}

// Run probes until the context is cancelled. An initial probe runs
// immediately so startup does not wait a full interval.
func (m *Monitor) Run(ctx context.Context) {
	m.probe(ctx)

	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.probe(ctx)
		}
	}
}

func (m *Monitor) probe(ctx context.Context) {
	if m.prober == nil {
		return
	}
	probeCtx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()
	m.SetOnline(m.prober.Health(probeCtx) == nil)
}

// Online reports current reachability.
func (m *Monitor) Online() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.online
}

// SetOnline records reachability and notifies subscribers on transitions.
func (m *Monitor) SetOnline(online bool) {
	m.mu.Lock()
	if m.online == online {
		m.mu.Unlock()
		return
	}
	m.online = online
	subs := make([]chan bool, len(m.subs))
	copy(subs, m.subs)
	m.mu.Unlock()

	m.logger.Sugar().Infow("connectivity transition", "online", online)
	for _, ch := range subs {
		select {
		case ch <- online:
		default:
			// Subscriber is lagging; it will observe Online() on its next tick.
		}
	}
}

// Subscribe returns a channel receiving reachability transitions.
func (m *Monitor) Subscribe() <-chan bool {
	ch := make(chan bool, 4)
	m.mu.Lock()
	m.subs = append(m.subs, ch)
	m.mu.Unlock()
	return ch
}
