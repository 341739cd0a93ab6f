package poll

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tetratelabs/wazero/experimental/sys"

	"github.com/foxxorcat/wazero-sched/manager/clock"
	"github.com/foxxorcat/wazero-sched/manager/table"
	"github.com/foxxorcat/wazero-sched/sched"
)

// fdlessFile 没有宿主 fd，只能通过 Readable/Writable 探测。
type fdlessFile struct {
	readable error
	writable error
	ready    uint64
}

func (f *fdlessFile) Fd() (uintptr, bool)            { return 0, false }
func (f *fdlessFile) NumReadyBytes() (uint64, error) { return f.ready, nil }
func (f *fdlessFile) Readable() error                { return f.readable }
func (f *fdlessFile) Writable() error                { return f.writable }

func newScheduler(fake *clock.FakeClock) *Scheduler {
	opts := []Option{WithLogger(slog.New(slog.DiscardHandler))}
	if fake != nil {
		opts = append(opts, WithTimers(fake))
	}
	return New(opts...)
}

func rw(t *testing.T, tbl *table.Table, fd uint32) *sched.RwSubscription {
	t.Helper()
	sub, err := sched.NewRwSubscription(tbl, fd)
	require.NoError(t, err)
	return sub
}

func TestPollEmptyBatch(t *testing.T) {
	err := newScheduler(nil).Poll(context.Background(), nil)
	require.ErrorIs(t, err, ErrEmptyBatch)
}

func TestPollProbedFiles(t *testing.T) {
	ctx := context.Background()

	t.Run("readable file reports its size", func(t *testing.T) {
		tbl := table.New(nil)
		fd := tbl.Push(&fdlessFile{ready: 7}, table.CapAll)
		batch := []sched.Subscription{sched.Read{RwSubscription: rw(t, tbl, fd)}}

		require.NoError(t, newScheduler(nil).Poll(ctx, batch))
		results := sched.Results(batch)
		require.Len(t, results, 1)
		assert.Equal(t, sched.ReadResult{RwStatus: sched.RwStatus{Size: 7}}, results[0])
	})

	t.Run("read and write on one handle", func(t *testing.T) {
		tbl := table.New(nil)
		fd := tbl.Push(&fdlessFile{ready: 3}, table.CapAll)
		batch := []sched.Subscription{
			sched.Read{RwSubscription: rw(t, tbl, fd)},
			sched.Write{RwSubscription: rw(t, tbl, fd)},
		}

		require.NoError(t, newScheduler(nil).Poll(ctx, batch))
		results := sched.Results(batch)
		require.Len(t, results, 2)
		assert.IsType(t, sched.ReadResult{}, results[0])
		assert.IsType(t, sched.WriteResult{}, results[1])
	})

	t.Run("readiness error stays with its interest", func(t *testing.T) {
		tbl := table.New(nil)
		broken := tbl.Push(&fdlessFile{readable: sys.EIO}, table.CapAll)
		idle := tbl.Push(&fdlessFile{readable: sys.EAGAIN}, table.CapAll)
		batch := []sched.Subscription{
			sched.Read{RwSubscription: rw(t, tbl, idle)},
			sched.Read{RwSubscription: rw(t, tbl, broken)},
		}

		require.NoError(t, newScheduler(nil).Poll(ctx, batch))
		results := sched.Results(batch)
		require.Len(t, results, 1)
		require.ErrorIs(t, results[0].(sched.ReadResult).Err, sys.EIO)
	})

	t.Run("removed handle fails the interest", func(t *testing.T) {
		tbl := table.New(nil)
		fd := tbl.Push(&fdlessFile{}, table.CapAll)
		sub := rw(t, tbl, fd)
		tbl.Remove(fd)

		batch := []sched.Subscription{sched.Write{RwSubscription: sub}}
		require.NoError(t, newScheduler(nil).Poll(ctx, batch))
		results := sched.Results(batch)
		require.Len(t, results, 1)
		require.ErrorIs(t, results[0].(sched.WriteResult).Err, table.ErrBadFd)
	})
}

func TestPollDeadlines(t *testing.T) {
	ctx := context.Background()

	t.Run("due deadline returns without waiting", func(t *testing.T) {
		c := clock.Fake(1000)
		tbl := table.New(nil)
		fd := tbl.Push(&fdlessFile{writable: sys.EAGAIN}, table.CapAll)
		batch := []sched.Subscription{
			sched.Write{RwSubscription: rw(t, tbl, fd)},
			sched.MonotonicClock{MonotonicClockSubscription: sched.NewMonotonicClockSubscription(c, 900, 0)},
		}

		require.NoError(t, newScheduler(c).Poll(ctx, batch))
		assert.Equal(t, []sched.SubscriptionResult{sched.MonotonicClockResult{}}, sched.Results(batch))
	})

	t.Run("blocks until the deadline passes", func(t *testing.T) {
		c := clock.Fake(0)
		tbl := table.New(nil)
		fd := tbl.Push(&fdlessFile{readable: sys.EAGAIN}, table.CapAll)
		deadline := clock.Instant(time.Second)
		batch := []sched.Subscription{
			sched.Read{RwSubscription: rw(t, tbl, fd)},
			sched.MonotonicClock{MonotonicClockSubscription: sched.NewMonotonicClockSubscription(c, deadline, time.Millisecond)},
		}

		done := make(chan error, 1)
		go func() { done <- newScheduler(c).Poll(ctx, batch) }()

		c.WaitForTimers(1)
		c.Set(deadline)
		for {
			select {
			case err := <-done:
				require.NoError(t, err)
				assert.Equal(t, []sched.SubscriptionResult{sched.MonotonicClockResult{}}, sched.Results(batch))
				return
			case <-time.After(10 * time.Millisecond):
				// 若 poller 在 Set 之后才注册下一轮定时器，继续推进。
				c.Advance(DefaultInterval)
			}
		}
	})

	t.Run("context cancellation", func(t *testing.T) {
		c := clock.Fake(0)
		tbl := table.New(nil)
		fd := tbl.Push(&fdlessFile{readable: sys.EAGAIN}, table.CapAll)
		batch := []sched.Subscription{sched.Read{RwSubscription: rw(t, tbl, fd)}}

		ctx, cancel := context.WithCancel(context.Background())
		done := make(chan error, 1)
		go func() { done <- newScheduler(c).Poll(ctx, batch) }()

		c.WaitForTimers(1)
		cancel()
		require.ErrorIs(t, <-done, context.Canceled)
		assert.Empty(t, sched.Results(batch))
	})
}

func TestPollWakesOnHostReadiness(t *testing.T) {
	c := clock.Fake(0)
	tbl := table.New(nil)
	f := table.NewNotifyFile()
	fd := tbl.Push(f, table.CapAll)
	batch := []sched.Subscription{sched.Read{RwSubscription: rw(t, tbl, fd)}}

	done := make(chan error, 1)
	go func() { done <- newScheduler(c).Poll(context.Background(), batch) }()

	c.WaitForTimers(1)
	f.SetReadable(6)
	c.Advance(DefaultInterval)

	require.NoError(t, <-done)
	assert.Equal(t, []sched.SubscriptionResult{sched.ReadResult{RwStatus: sched.RwStatus{Size: 6}}}, sched.Results(batch))
}

func TestWithIntervalIgnoresNonPositive(t *testing.T) {
	s := New(WithInterval(0))
	assert.Equal(t, DefaultInterval, s.interval)
	s = New(WithInterval(time.Millisecond))
	assert.Equal(t, time.Millisecond, s.interval)
}
