package sched

import "fmt"

// Subscription is one of Read, Write or MonotonicClock.
type Subscription interface {
	subscription()
}

// Read is an interest in read readiness.
type Read struct{ *RwSubscription }

// Write is an interest in write readiness.
type Write struct{ *RwSubscription }

// MonotonicClock is an interest in a deadline.
type MonotonicClock struct{ *MonotonicClockSubscription }

func (Read) subscription()           {}
func (Write) subscription()          {}
func (MonotonicClock) subscription() {}

// SubscriptionResult is one of ReadResult, WriteResult or
// MonotonicClockResult.
type SubscriptionResult interface {
	subscriptionResult()
}

type ReadResult struct{ RwStatus }

type WriteResult struct{ RwStatus }

// MonotonicClockResult reports a deadline that has passed.
type MonotonicClockResult struct{}

func (ReadResult) subscriptionResult()           {}
func (WriteResult) subscriptionResult()          {}
func (MonotonicClockResult) subscriptionResult() {}

// FromSubscription consumes s and returns its outcome under the same tag, or
// false if s is still pending.
func FromSubscription(s Subscription) (SubscriptionResult, bool) {
	switch s := s.(type) {
	case Read:
		status, ok := s.Result()
		if !ok {
			return nil, false
		}
		return ReadResult{status}, true
	case Write:
		status, ok := s.Result()
		if !ok {
			return nil, false
		}
		return WriteResult{status}, true
	case MonotonicClock:
		if !s.Result() {
			return nil, false
		}
		return MonotonicClockResult{}, true
	default:
		panic(fmt.Sprintf("sched: unknown subscription %T", s))
	}
}

// Results consumes every subscription of a round and returns the outcomes of
// the satisfied ones in batch order.
func Results(batch []Subscription) []SubscriptionResult {
	var out []SubscriptionResult
	for _, s := range batch {
		if r, ok := FromSubscription(s); ok {
			out = append(out, r)
		}
	}
	return out
}
