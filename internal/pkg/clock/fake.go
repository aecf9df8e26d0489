package clock

import (
	"sort"
	"sync"
	"time"
)

// Fake is a manually advanced Clock for tests. Callbacks fire synchronously
// inside Advance, in deadline order, so a test can assert state between
// timer boundaries without sleeping.
type Fake struct {
	mu      sync.Mutex
	now     time.Time
	nextID  int
	pending []*fakeTimer
	tickers []*fakeTicker
}

type fakeTimer struct {
	id       int
	deadline time.Time
	fn       func()
}

// NewFake returns a Fake positioned at the given start time.
func NewFake(start time.Time) *Fake {
	return &Fake{now: start}
}

// Now returns the fake's current time.
func (f *Fake) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.now
}

// Schedule registers fn to fire when the fake time passes d from now.
func (f *Fake) Schedule(d time.Duration, fn func()) CancelFunc {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.nextID++
	t := &fakeTimer{id: f.nextID, deadline: f.now.Add(d), fn: fn}
	f.pending = append(f.pending, t)
	id := t.id

	return func() bool {
		f.mu.Lock()
		defer f.mu.Unlock()
		for i, p := range f.pending {
			if p.id == id {
				f.pending = append(f.pending[:i], f.pending[i+1:]...)
				return true
			}
		}
		return false
	}
}

// NewTicker returns a ticker that fires during Advance.
func (f *Fake) NewTicker(d time.Duration) Ticker {
	f.mu.Lock()
	defer f.mu.Unlock()

	t := &fakeTicker{
		clock:    f,
		interval: d,
		next:     f.now.Add(d),
		ch:       make(chan time.Time, 64),
	}
	f.tickers = append(f.tickers, t)
	return t
}

// Advance moves the fake clock forward, firing due timers in deadline order
// and pushing ticks onto ticker channels. Timers scheduled by callbacks fire
// too when their deadline falls inside the advanced window.
func (f *Fake) Advance(d time.Duration) {
	f.mu.Lock()
	target := f.now.Add(d)
	f.mu.Unlock()

	for {
		f.mu.Lock()
		var next *fakeTimer
		for _, t := range f.pending {
			if !t.deadline.After(target) && (next == nil || t.deadline.Before(next.deadline)) {
				next = t
			}
		}
		if next == nil {
			f.now = target
			f.fireTickersLocked(target)
			f.mu.Unlock()
			return
		}

		// remove and fire the earliest due timer
		for i, t := range f.pending {
			if t.id == next.id {
				f.pending = append(f.pending[:i], f.pending[i+1:]...)
				break
			}
		}
		if next.deadline.After(f.now) {
			f.now = next.deadline
		}
		f.fireTickersLocked(f.now)
		fn := next.fn
		f.mu.Unlock()

		fn()
	}
}

// PendingCount reports how many one-shot timers are outstanding.
func (f *Fake) PendingCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.pending)
}

func (f *Fake) fireTickersLocked(upTo time.Time) {
	for _, t := range f.tickers {
		if t.stopped {
			continue
		}
		for !t.next.After(upTo) {
			select {
			case t.ch <- t.next:
			default:
			}
			t.next = t.next.Add(t.interval)
		}
	}
	sort.Slice(f.tickers, func(i, j int) bool { return f.tickers[i].next.Before(f.tickers[j].next) })
}

type fakeTicker struct {
	clock    *Fake
	interval time.Duration
	next     time.Time
	ch       chan time.Time
	stopped  bool
}

func (t *fakeTicker) C() <-chan time.Time { return t.ch }

func (t *fakeTicker) Stop() {
	t.clock.mu.Lock()
	defer t.clock.mu.Unlock()
	t.stopped = true
}
