package clock

import (
	"sort"
	"sync"
	"time"
)

// Manual is a virtual clock. Time only moves when Advance is called, and
// due callbacks fire synchronously on the caller's goroutine.
type Manual struct {
	mu      sync.Mutex
	now     time.Time
	tickers []*manualTicker
}

type manualTicker struct {
	next     time.Time
	interval time.Duration
	fn       func()
	stopped  bool
}

// NewManual returns a Manual clock starting at start.
func NewManual(start time.Time) *Manual {
	return &Manual{now: start}
}

// Now returns the current virtual time.
func (m *Manual) Now() time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.now
}

// Every registers fn to fire every interval of virtual time.
func (m *Manual) Every(interval time.Duration, fn func()) func() {
	m.mu.Lock()
	defer m.mu.Unlock()

	t := &manualTicker{next: m.now.Add(interval), interval: interval, fn: fn}
	m.tickers = append(m.tickers, t)

	return func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		t.stopped = true
	}
}

// Active reports how many tickers are still running.
func (m *Manual) Active() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, t := range m.tickers {
		if !t.stopped {
			n++
		}
	}
	return n
}

// Advance moves virtual time forward by d, firing every callback that falls
// due in order. Callbacks run without the clock lock held.
func (m *Manual) Advance(d time.Duration) {
	m.mu.Lock()
	target := m.now.Add(d)
	m.mu.Unlock()

	for {
		m.mu.Lock()
		due := m.nextDueLocked(target)
		if due == nil {
			m.now = target
			m.prune()
			m.mu.Unlock()
			return
		}
		m.now = due.next
		due.next = due.next.Add(due.interval)
		fn := due.fn
		m.mu.Unlock()

		fn()
	}
}

func (m *Manual) nextDueLocked(target time.Time) *manualTicker {
	live := make([]*manualTicker, 0, len(m.tickers))
	for _, t := range m.tickers {
		if !t.stopped && !t.next.After(target) {
			live = append(live, t)
		}
	}
	if len(live) == 0 {
		return nil
	}
	sort.SliceStable(live, func(i, j int) bool { return live[i].next.Before(live[j].next) })
	return live[0]
}

func (m *Manual) prune() {
	kept := m.tickers[:0]
	for _, t := range m.tickers {
		if !t.stopped {
			kept = append(kept, t)
		}
	}
	m.tickers = kept
}
