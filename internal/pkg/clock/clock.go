// Package clock abstracts time and timer scheduling so every timed behavior
// in the simulator (scenario steps, cascade delays, tick loops, sweeps) can
// be driven manually in tests.
package clock

import "time"

// CancelFunc cancels a pending scheduled callback. Calling it after the
// callback has fired is a no-op. It reports whether the callback was still
// pending.
type CancelFunc func() bool

// Ticker delivers periodic ticks until stopped.
type Ticker interface {
	C() <-chan time.Time
	Stop()
}

// Clock schedules work against some notion of time.
type Clock interface {
	Now() time.Time
	// Schedule runs fn once after d has elapsed.
	Schedule(d time.Duration, fn func()) CancelFunc
	NewTicker(d time.Duration) Ticker
}

// System is the wall-clock implementation.
type System struct{}

// NewSystem returns the wall-clock Clock.
func NewSystem() *System { return &System{} }

// Now returns the current wall-clock time.
func (*System) Now() time.Time { return time.Now() }

// Schedule runs fn on its own goroutine after d.
func (*System) Schedule(d time.Duration, fn func()) CancelFunc {
	t := time.AfterFunc(d, fn)
	return t.Stop
}

// NewTicker returns a wall-clock ticker.
func (*System) NewTicker(d time.Duration) Ticker {
	return &systemTicker{t: time.NewTicker(d)}
}

type systemTicker struct {
	t *time.Ticker
}

func (s *systemTicker) C() <-chan time.Time { return s.t.C }
func (s *systemTicker) Stop()               { s.t.Stop() }
