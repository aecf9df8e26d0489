// Package realtime runs the periodic background loops: the synthetic
// activity tick and the stale-alert sweep.
package realtime

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/opsdeck/opsdeck/internal/domain"
	"github.com/opsdeck/opsdeck/internal/pkg/clock"
	"github.com/opsdeck/opsdeck/internal/pkg/metrics"
	"github.com/opsdeck/opsdeck/internal/store"
)

// Ticker is the per-tick simulation work.
type Ticker interface {
	Tick()
}

// ScenarioState reports whether demo playback is active. Real-time activity
// and scenario playback are mutually exclusive at the tick level.
type ScenarioState interface {
	Running() bool
}

// Config holds loop intervals and the alert expiry policy.
type Config struct {
	TickInterval  time.Duration
	SweepInterval time.Duration
	AlertMaxAge   time.Duration
}

// DefaultConfig returns the default loop configuration.
func DefaultConfig() Config {
	return Config{
		TickInterval:  time.Second,
		SweepInterval: 30 * time.Second,
		AlertMaxAge:   5 * time.Minute,
	}
}

// Loop drives the real-time tick and the alert expiry sweep.
type Loop struct {
	config   Config
	clock    clock.Clock
	store    *store.Store
	prefs    *store.PrefStore
	ticker   Ticker
	scenario ScenarioState

	stopCh chan struct{}
	wg     sync.WaitGroup
}

// NewLoop creates the background loop runner.
func NewLoop(cfg Config, clk clock.Clock, st *store.Store, prefs *store.PrefStore, ticker Ticker, scenario ScenarioState) *Loop {
	return &Loop{
		config:   cfg,
		clock:    clk,
		store:    st,
		prefs:    prefs,
		ticker:   ticker,
		scenario: scenario,
		stopCh:   make(chan struct{}),
	}
}

// Start launches the tick and sweep goroutines.
func (l *Loop) Start(ctx context.Context) {
	slog.Info("starting realtime loops",
		"tick_interval", l.config.TickInterval,
		"sweep_interval", l.config.SweepInterval,
		"alert_max_age", l.config.AlertMaxAge,
	)

	l.wg.Add(2)
	go l.runTicks(ctx)
	go l.runSweep(ctx)
}

// Stop gracefully stops both loops.
func (l *Loop) Stop() {
	close(l.stopCh)
	l.wg.Wait()
	slog.Info("realtime loops stopped")
}

func (l *Loop) runTicks(ctx context.Context) {
	defer l.wg.Done()

	ticker := l.clock.NewTicker(l.config.TickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-l.stopCh:
			return
		case <-ticker.C():
			l.RunTick()
		}
	}
}

// RunTick performs one tick if real-time mode is on and no scenario is
// playing.
func (l *Loop) RunTick() {
	prefs := l.prefs.Get()
	if !prefs.RealtimeEnabled || prefs.DemoMode || l.scenario.Running() {
		return
	}
	l.ticker.Tick()
	metrics.RealtimeTicks.Inc()
}

func (l *Loop) runSweep(ctx context.Context) {
	defer l.wg.Done()

	ticker := l.clock.NewTicker(l.config.SweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-l.stopCh:
			return
		case <-ticker.C():
			l.RunSweep()
		}
	}
}

// RunSweep dismisses unacknowledged low-severity alerts older than the
// configured maximum age.
func (l *Loop) RunSweep() {
	cutoff := l.clock.Now().Add(-l.config.AlertMaxAge)
	removed := l.store.SweepAlerts(domain.SeverityLow, cutoff)
	if removed > 0 {
		metrics.ExpiredAlerts.Add(float64(removed))
		slog.Debug("expired alerts dismissed", "count", removed)
	}
}
