// Package clock abstracts wall time and tickers so periodic work can run on virtual time in tests.
package clock

import (
	"sync"
	"time"
)

// Clock provides the current time and periodic tickers.
type Clock interface {
	Now() time.Time
	NewTicker(d time.Duration) Ticker
}

// Ticker delivers ticks on C until stopped.
type Ticker interface {
	C() <-chan time.Time
	Stop()
}

// Real is the wall clock.
type Real struct{}

var _ Clock = Real{}

func (Real) Now() time.Time { return time.Now() }

func (Real) NewTicker(d time.Duration) Ticker {
	return realTicker{t: time.NewTicker(d)}
}

type realTicker struct {
	t *time.Ticker
}

func (r realTicker) C() <-chan time.Time { return r.t.C }
func (r realTicker) Stop()               { r.t.Stop() }

// Manual is a clock that only moves when Advance or Set is called.
type Manual struct {
	mu      sync.Mutex
	now     time.Time
	tickers []*manualTicker
}

var _ Clock = (*Manual)(nil)

// NewManual returns a Manual clock starting at start.
func NewManual(start time.Time) *Manual {
	return &Manual{now: start}
}

func (m *Manual) Now() time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.now
}

// NewTicker panics on a non-positive interval, like time.NewTicker.
func (m *Manual) NewTicker(d time.Duration) Ticker {
	if d <= 0 {
		panic("clock: non-positive interval for NewTicker")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	t := &manualTicker{
		owner: m,
		every: d,
		next:  m.now.Add(d),
		ch:    make(chan time.Time, 1),
	}
	m.tickers = append(m.tickers, t)
	return t
}

// Advance moves the clock forward by d and fires every ticker that became due.
// A ticker whose channel is still full drops the tick, like time.Ticker.
func (m *Manual) Advance(d time.Duration) {
	m.mu.Lock()
	m.now = m.now.Add(d)
	now := m.now
	tickers := append([]*manualTicker(nil), m.tickers...)
	m.mu.Unlock()

	for _, t := range tickers {
		t.fire(now)
	}
}

// Set jumps to t without firing tickers.
func (m *Manual) Set(t time.Time) {
	m.mu.Lock()
	m.now = t
	for _, tk := range m.tickers {
		tk.mu.Lock()
		tk.next = t.Add(tk.every)
		tk.mu.Unlock()
	}
	m.mu.Unlock()
}

func (m *Manual) remove(t *manualTicker) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, tk := range m.tickers {
		if tk == t {
			m.tickers = append(m.tickers[:i], m.tickers[i+1:]...)
			return
		}
	}
}

type manualTicker struct {
	owner   *Manual
	ch      chan time.Time
	next    time.Time
	every   time.Duration
	mu      sync.Mutex
	stopped bool
}

func (t *manualTicker) C() <-chan time.Time { return t.ch }

func (t *manualTicker) Stop() {
	t.mu.Lock()
	if t.stopped {
		t.mu.Unlock()
		return
	}
	t.stopped = true
	t.mu.Unlock()
	t.owner.remove(t)
}

func (t *manualTicker) fire(now time.Time) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.stopped || now.Before(t.next) {
		return
	}
	for !t.next.After(now) {
		t.next = t.next.Add(t.every)
	}
	select {
	case t.ch <- now:
	default:
	}
}
