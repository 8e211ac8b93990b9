package readiness

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// Prober performs a live health check against the vector index.
type Prober interface {
	CheckHealth(ctx context.Context) bool
}

// Monitor re-derives the index readiness flag from periodic live probes.
//
// Only the monitor may flip a Ready state back to degraded; individual
// request failures never touch global readiness. The lifecycle runner starts
// the monitor after initialization succeeds, so the flag is never probed
// against an engine that was never live.
type Monitor struct {
	prober   Prober
	state    *State
	interval time.Duration
	logger   *zap.Logger
	cancel   context.CancelFunc
	done     chan struct{}
}

// NewMonitor creates a monitor driving state from prober.
func NewMonitor(prober Prober, state *State, interval time.Duration, logger *zap.Logger) *Monitor {
	return &Monitor{
		prober:   prober,
		state:    state,
		interval: interval,
		logger:   logger,
		done:     make(chan struct{}),
	}
}

// Start begins periodic probing until ctx is canceled or Stop is called.
func (m *Monitor) Start(ctx context.Context) {
	ctx, m.cancel = context.WithCancel(ctx)
	go m.run(ctx)
}

func (m *Monitor) run(ctx context.Context) {
	defer close(m.done)
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			healthy := m.prober.CheckHealth(ctx)
			was := m.state.IsReady()
			m.state.SetIndexReady(healthy)
			if was != m.state.IsReady() {
				m.logger.Info("readiness changed by health probe",
					zap.Bool("index_healthy", healthy))
			}
		}
	}
}

// Stop halts probing and waits for the probe loop to exit.
func (m *Monitor) Stop() {
	if m.cancel != nil {
		m.cancel()
		<-m.done
	}
}
