package clock

import (
	"slices"
	"sort"
	"sync"
	"time"
)

// FakeClock is a deterministic Monotonic and Timers for tests. Time stands
// still until Advance or Set moves it forward.
//
// FakeClock is safe for concurrent use by multiple goroutines.
type FakeClock struct {
	mu             sync.Mutex
	current        Instant
	precisions     []time.Duration
	waiters        []*fakeWaiter
	waitersChanged *sync.Cond
}

type fakeWaiter struct {
	deadline Instant
	ch       chan struct{}
	stopped  bool
	fired    bool
}

// Fake returns a FakeClock reading start.
func Fake(start Instant) *FakeClock {
	c := &FakeClock{current: start}
	c.waitersChanged = sync.NewCond(&c.mu)
	return c
}

// Now returns the current fake instant and records precision.
func (c *FakeClock) Now(precision time.Duration) Instant {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.precisions = append(c.precisions, precision)
	return c.current
}

func (c *FakeClock) Resolution() time.Duration { return time.Nanosecond }

// Precisions returns every precision Now has been called with, in call order.
func (c *FakeClock) Precisions() []time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	return slices.Clone(c.precisions)
}

// NewTimer registers a waiter that fires once the clock reaches now+d.
func (c *FakeClock) NewTimer(d time.Duration) *Timer {
	if d <= 0 {
		return firedTimer()
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	w := &fakeWaiter{deadline: c.current.Add(d), ch: make(chan struct{})}
	c.waiters = append(c.waiters, w)
	c.waitersChanged.Broadcast()
	return &Timer{
		C: w.ch,
		stopFunc: func() bool {
			c.mu.Lock()
			defer c.mu.Unlock()
			if w.stopped || w.fired {
				return false
			}
			w.stopped = true
			return true
		},
	}
}

// Advance moves the clock forward by d and fires the timers that became due,
// in deadline order.
func (c *FakeClock) Advance(d time.Duration) {
	if d < 0 {
		panic("clock: fake monotonic clock cannot move backwards")
	}
	c.mu.Lock()
	c.current = c.current.Add(d)
	c.fireExpiredLocked()
	c.mu.Unlock()
}

// Set moves the clock to t, which must not be earlier than the current time.
func (c *FakeClock) Set(t Instant) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if t < c.current {
		panic("clock: fake monotonic clock cannot move backwards")
	}
	c.current = t
	c.fireExpiredLocked()
}

func (c *FakeClock) fireExpiredLocked() {
	var toFire, remaining []*fakeWaiter
	for _, w := range c.waiters {
		switch {
		case w.stopped:
		case w.deadline <= c.current:
			toFire = append(toFire, w)
		default:
			remaining = append(remaining, w)
		}
	}
	c.waiters = remaining

	sort.Slice(toFire, func(i, j int) bool {
		return toFire[i].deadline < toFire[j].deadline
	})
	for _, w := range toFire {
		w.fired = true
		close(w.ch)
	}
}

// WaitForTimers blocks until at least n timers are pending. It removes the
// race between a goroutine registering its wakeup and the test advancing
// the clock.
func (c *FakeClock) WaitForTimers(n int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for c.pendingLocked() < n {
		c.waitersChanged.Wait()
	}
}

func (c *FakeClock) pendingLocked() int {
	count := 0
	for _, w := range c.waiters {
		if !w.stopped {
			count++
		}
	}
	return count
}
