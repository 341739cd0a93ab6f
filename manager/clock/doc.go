// Package clock provides the monotonic clock contract used by deadline
// subscriptions, together with the timers the poller sleeps on.
//
// Production code uses Real() or FromNanotime(), which follows the same
// time source a wazero module config was given. Tests use Fake(), which only
// moves when Advance or Set is called and records every precision it was
// sampled with:
//
//	c := clock.Fake(0)
//	sub := sched.NewMonotonicClockSubscription(c, c.Now(0).Add(time.Second), time.Millisecond)
//	c.Advance(time.Second)
//	due := sub.Result() // due == true
//
// Timers created from a FakeClock fire during Advance, so a goroutine
// blocked in the poller can be released deterministically after
// WaitForTimers reports it has registered its wakeup.
package clock
