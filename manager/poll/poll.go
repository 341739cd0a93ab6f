package poll

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/tetratelabs/wazero/experimental/sys"

	"github.com/foxxorcat/wazero-sched/manager/clock"
	"github.com/foxxorcat/wazero-sched/manager/table"
	"github.com/foxxorcat/wazero-sched/sched"
)

// ErrEmptyBatch 表示调用方没有提供任何订阅。
var ErrEmptyBatch = errors.New("poll: empty subscription batch")

// DefaultInterval 是没有宿主 fd 的文件的探测间隔，同时也是单次阻塞的上限，
// 以便及时响应 context 取消。
const DefaultInterval = 100 * time.Millisecond

// Poller 阻塞直到批次中至少一个订阅可以完成，并在就绪的读写订阅上调用
// Complete 或 Fail。时钟订阅不需要回写，调用方通过 sched.Results 读取。
type Poller interface {
	Poll(ctx context.Context, batch []sched.Subscription) error
}

// Option 配置 Scheduler。
type Option func(*Scheduler)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Scheduler) { s.logger = logger }
}

// WithInterval 设置探测间隔，非正值被忽略。
func WithInterval(d time.Duration) Option {
	return func(s *Scheduler) {
		if d > 0 {
			s.interval = d
		}
	}
}

// WithTimers 设置等待时使用的定时器来源，测试中通常传入 clock.Fake。
func WithTimers(t clock.Timers) Option {
	return func(s *Scheduler) { s.timers = t }
}

// Scheduler 是 Poller 的默认实现：有宿主 fd 的文件交给 poll(2)，
// 其余文件通过 Readable/Writable 周期性探测。
type Scheduler struct {
	logger   *slog.Logger
	interval time.Duration
	timers   clock.Timers
}

// New 创建一个 Scheduler。
func New(opts ...Option) *Scheduler {
	s := &Scheduler{
		logger:   slog.Default(),
		interval: DefaultInterval,
		timers:   clock.Real(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

type rwInterest struct {
	sub   *sched.RwSubscription
	write bool
}

// Poll 实现 Poller。
func (s *Scheduler) Poll(ctx context.Context, batch []sched.Subscription) error {
	if len(batch) == 0 {
		return ErrEmptyBatch
	}

	var clocks []*sched.MonotonicClockSubscription
	var rws []rwInterest
	for _, sub := range batch {
		switch sub := sub.(type) {
		case sched.Read:
			rws = append(rws, rwInterest{sub: sub.RwSubscription})
		case sched.Write:
			rws = append(rws, rwInterest{sub: sub.RwSubscription, write: true})
		case sched.MonotonicClock:
			clocks = append(clocks, sub.MonotonicClockSubscription)
		default:
			return fmt.Errorf("poll: unknown subscription %T", sub)
		}
	}

	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		wait, due := s.nextWait(clocks)
		if due {
			wait = 0
		}
		n, err := s.sweep(ctx, rws, wait)
		if err != nil {
			return err
		}
		if n > 0 || due {
			s.logger.Debug("poll round finished",
				slog.Int("subscriptions", len(batch)),
				slog.Int("completed", n),
				slog.Bool("deadline", due))
			return nil
		}
	}
}

// nextWait 计算本轮最多可阻塞的时长。任何一个时钟订阅到期时 due 为 true。
func (s *Scheduler) nextWait(clocks []*sched.MonotonicClockSubscription) (time.Duration, bool) {
	wait := s.interval
	for _, c := range clocks {
		d, pending := c.DurationUntil()
		if !pending {
			return 0, true
		}
		wait = min(wait, d)
	}
	return wait, false
}

type fdInterest struct {
	rwInterest
	pfd pollFd
}

// sweep 探测所有读写订阅，最多阻塞 wait，返回本次完成的订阅数。
// 文件的独占访问只在探测期间持有，进入阻塞前全部释放。
func (s *Scheduler) sweep(ctx context.Context, rws []rwInterest, wait time.Duration) (int, error) {
	completed := 0
	var fds []fdInterest

	for _, rw := range rws {
		ref, err := rw.sub.File()
		if err != nil {
			s.logger.Warn("readiness subscription lost its file",
				slog.Uint64("fd", uint64(rw.sub.Fd())), slog.Any("error", err))
			rw.sub.Fail(err)
			completed++
			continue
		}
		file := ref.File()
		if hostFd, ok := file.Fd(); ok && osPollSupported {
			ref.Release()
			fds = append(fds, fdInterest{rwInterest: rw, pfd: newPollFd(hostFd, rw.write)})
			continue
		}
		if probeFile(rw, file) {
			completed++
		}
		ref.Release()
	}

	if completed > 0 {
		wait = 0
	}

	if len(fds) == 0 {
		if wait > 0 {
			t := s.timers.NewTimer(wait)
			defer t.Stop()
			select {
			case <-t.C:
			case <-ctx.Done():
				return completed, ctx.Err()
			}
		}
		return completed, nil
	}

	pfds := make([]pollFd, len(fds))
	for i := range fds {
		pfds[i] = fds[i].pfd
	}
	n, err := poll(pfds, wait)
	if err != nil {
		return completed, fmt.Errorf("poll: %w", err)
	}
	if n == 0 {
		return completed, nil
	}
	for i, pfd := range pfds {
		if completeFromRevents(fds[i].rwInterest, pfd.Revents) {
			completed++
		}
	}
	return completed, nil
}

// probeFile 对没有宿主 fd 的文件做一次非阻塞探测。
func probeFile(rw rwInterest, file table.File) bool {
	if rw.write {
		switch err := file.Writable(); {
		case err == nil:
			rw.sub.Complete(0, 0)
		case errors.Is(err, sys.EAGAIN):
			return false
		default:
			rw.sub.Fail(err)
		}
		return true
	}

	switch err := file.Readable(); {
	case err == nil:
		size, err := file.NumReadyBytes()
		if err != nil {
			rw.sub.Fail(err)
		} else {
			rw.sub.Complete(size, 0)
		}
	case errors.Is(err, sys.EAGAIN):
		return false
	default:
		rw.sub.Fail(err)
	}
	return true
}

// completeFromRevents 根据 poll(2) 的结果回写订阅。读就绪时重新获取文件以
// 查询可读字节数。
func completeFromRevents(rw rwInterest, revents int16) bool {
	var flags sched.RwEventFlags
	if revents&pollEventHup != 0 {
		flags |= sched.Hangup
	}
	switch {
	case revents&pollEventNval != 0:
		rw.sub.Fail(sys.EBADF)
	case revents&pollEventErr != 0:
		rw.sub.Fail(sys.EIO)
	case rw.write && revents&(pollEventWrite|pollEventHup) != 0:
		rw.sub.Complete(0, flags)
	case !rw.write && revents&(pollEventRead|pollEventHup) != 0:
		ref, err := rw.sub.File()
		if err != nil {
			rw.sub.Fail(err)
			return true
		}
		size, err := ref.File().NumReadyBytes()
		ref.Release()
		if err != nil {
			rw.sub.Fail(err)
		} else {
			rw.sub.Complete(size, flags)
		}
	default:
		return false
	}
	return true
}
