package sched

import (
	"time"

	"github.com/foxxorcat/wazero-sched/manager/clock"
)

// MonotonicClockSubscription is an interest in a monotonic deadline. It has
// no slot: being due is recomputed from the clock on every query.
type MonotonicClockSubscription struct {
	Clock     clock.Monotonic
	Deadline  clock.Instant
	Precision time.Duration
}

func NewMonotonicClockSubscription(c clock.Monotonic, deadline clock.Instant, precision time.Duration) *MonotonicClockSubscription {
	return &MonotonicClockSubscription{Clock: c, Deadline: deadline, Precision: precision}
}

// Now samples the clock at the subscription's precision.
func (s *MonotonicClockSubscription) Now() clock.Instant {
	return s.Clock.Now(s.Precision)
}

// DurationUntil returns the time left before the deadline, or false once it
// is due.
func (s *MonotonicClockSubscription) DurationUntil() (time.Duration, bool) {
	now := s.Now()
	if !now.Before(s.Deadline) {
		return 0, false
	}
	return s.Deadline.Sub(now), true
}

// Result reports whether the deadline has passed. A monotonic clock cannot
// regress, so there is no failure case.
func (s *MonotonicClockSubscription) Result() bool {
	return !s.Now().Before(s.Deadline)
}
