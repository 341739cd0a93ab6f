package clock

import (
	"sync"
	"time"

	"github.com/tetratelabs/wazero/sys"
)

// programStart anchors the real monotonic timeline.
var programStart = time.Now()

// RealClock reads Go's monotonic clock. Precision is accepted but not used:
// the runtime reading is already cheap and coalescing would break
// monotonicity between callers asking for different precisions.
type RealClock struct{}

// Real returns the process monotonic clock.
func Real() RealClock { return RealClock{} }

func (RealClock) Now(time.Duration) Instant {
	return Instant(time.Since(programStart))
}

func (RealClock) Resolution() time.Duration { return time.Nanosecond }

func (RealClock) NewTimer(d time.Duration) *Timer {
	return realTimer(d)
}

func realTimer(d time.Duration) *Timer {
	if d <= 0 {
		return firedTimer()
	}
	ch := make(chan struct{})
	var once sync.Once
	t := time.AfterFunc(d, func() { once.Do(func() { close(ch) }) })
	return &Timer{C: ch, stopFunc: t.Stop}
}

// NanotimeClock adapts a wazero sys.Nanotime source, so deadlines are judged
// against the same clock the guest reads through its module config.
type NanotimeClock struct {
	nanotime   sys.Nanotime
	resolution sys.ClockResolution

	mu   sync.Mutex
	last Instant
}

// FromNanotime wraps nanotime. The returned clock clamps any regression of
// the source to the last value it reported.
func FromNanotime(nanotime sys.Nanotime, resolution sys.ClockResolution) *NanotimeClock {
	if resolution == 0 {
		resolution = 1
	}
	return &NanotimeClock{nanotime: nanotime, resolution: resolution}
}

func (c *NanotimeClock) Now(time.Duration) Instant {
	ns := c.nanotime()
	if ns < 0 {
		ns = 0
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if now := Instant(ns); now > c.last {
		c.last = now
	}
	return c.last
}

func (c *NanotimeClock) Resolution() time.Duration {
	return time.Duration(c.resolution)
}

func (c *NanotimeClock) NewTimer(d time.Duration) *Timer {
	return realTimer(d)
}
