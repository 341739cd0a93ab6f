package clock

import (
	"math"
	"time"
)

// Instant is a point on a monotonic timeline, in nanoseconds from an
// unspecified epoch.
type Instant uint64

// Add returns i+d, saturating at the ends of the timeline.
func (i Instant) Add(d time.Duration) Instant {
	if d < 0 {
		if Instant(-d) > i {
			return 0
		}
		return i - Instant(-d)
	}
	if Instant(d) > math.MaxUint64-i {
		return math.MaxUint64
	}
	return i + Instant(d)
}

// Sub returns i-u, saturating at the limits of time.Duration.
func (i Instant) Sub(u Instant) time.Duration {
	if i >= u {
		if i-u > math.MaxInt64 {
			return math.MaxInt64
		}
		return time.Duration(i - u)
	}
	if u-i > math.MaxInt64 {
		return math.MinInt64
	}
	return -time.Duration(u - i)
}

// Before reports whether i is strictly earlier than u.
func (i Instant) Before(u Instant) bool { return i < u }

// Monotonic is a clock that never moves backwards.
type Monotonic interface {
	// Now samples the clock. precision is the granularity the caller can
	// tolerate; implementations may coalesce to it but must stay
	// non-decreasing across calls.
	Now(precision time.Duration) Instant
	// Resolution is the smallest step the clock can report.
	Resolution() time.Duration
}

// Timers creates wakeups on the same timeline as a Monotonic clock.
type Timers interface {
	// NewTimer returns a Timer whose channel is closed once d has elapsed.
	// If d <= 0 the channel is already closed.
	NewTimer(d time.Duration) *Timer
}

// Timer is a one-shot wakeup. C is closed when it fires.
type Timer struct {
	C <-chan struct{}

	stopFunc func() bool
}

// Stop prevents the Timer from firing. It returns false if the timer has
// already fired or been stopped.
func (t *Timer) Stop() bool { return t.stopFunc() }

func firedTimer() *Timer {
	ch := make(chan struct{})
	close(ch)
	return &Timer{C: ch, stopFunc: func() bool { return false }}
}
