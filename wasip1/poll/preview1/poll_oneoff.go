package preview1

import (
	"context"
	"log/slog"
	"math"
	"time"

	"github.com/tetratelabs/wazero/api"

	"github.com/foxxorcat/wazero-sched/common/bytespool"
	"github.com/foxxorcat/wazero-sched/manager/clock"
	"github.com/foxxorcat/wazero-sched/sched"
	"github.com/foxxorcat/wazero-sched/wasip1"
)

// pollImpl 结构体持有 poll_oneoff 的具体实现逻辑。
type pollImpl struct {
	h *wasip1.Host
}

func newPollImpl(h *wasip1.Host) *pollImpl {
	return &pollImpl{h: h}
}

// PollOneoff 是 api.GoModuleFunc 形式的入口，栈上依次是
// in、out、nsubscriptions、result.nevents，返回 errno。
func (i *pollImpl) PollOneoff(ctx context.Context, mod api.Module, stack []uint64) {
	errno := i.pollOneoff(ctx, mod,
		api.DecodeU32(stack[0]), api.DecodeU32(stack[1]),
		api.DecodeU32(stack[2]), api.DecodeU32(stack[3]))
	stack[0] = uint64(errno)
}

func (i *pollImpl) pollOneoff(ctx context.Context, mod api.Module, in, out, nsubscriptions, resultNevents uint32) Errno {
	// WASI 规定空的订阅列表是无效参数，不能无限阻塞。
	if nsubscriptions == 0 {
		return ErrnoInval
	}
	if nsubscriptions > math.MaxUint32/subscriptionLen {
		return ErrnoFault
	}
	mem := mod.Memory()
	if mem == nil {
		return ErrnoFault
	}
	raw, ok := mem.Read(in, nsubscriptions*subscriptionLen)
	if !ok {
		return ErrnoFault
	}
	if _, ok := mem.Read(out, nsubscriptions*eventLen); !ok {
		return ErrnoFault
	}

	// guest 内存在阻塞期间可能增长，先把订阅全部解码出来。
	subs := make([]subscription, nsubscriptions)
	for j := range subs {
		subs[j] = decodeSubscription(raw[j*subscriptionLen : (j+1)*subscriptionLen])
	}

	logger := i.h.ModuleLogger(mod.Name())
	files := i.h.Table(mod.Name())
	clk := i.h.Clock()

	// events 按输入顺序保存每个订阅的结果，nil 表示尚未完成。
	events := make([]*event, nsubscriptions)
	batch := make([]sched.Subscription, 0, nsubscriptions)
	origin := make([]int, 0, nsubscriptions)
	rejected := false

	for j, s := range subs {
		switch s.tag {
		case eventTypeClock:
			switch s.clockID {
			case clockMonotonic:
			case clockRealtime, clockProcessCPUTime, clockThreadCPUTime:
				return ErrnoNotsup
			default:
				return ErrnoInval
			}
			precision := durationFromNanos(s.precision)
			var deadline clock.Instant
			if s.flags&subscriptionClockAbstime != 0 {
				deadline = clock.Instant(s.timeout)
			} else {
				deadline = clk.Now(precision).Add(durationFromNanos(s.timeout))
			}
			batch = append(batch, sched.MonotonicClock{
				MonotonicClockSubscription: sched.NewMonotonicClockSubscription(clk, deadline, precision),
			})
		case eventTypeFdRead, eventTypeFdWrite:
			rw, err := sched.NewRwSubscription(files, s.fd)
			if err != nil {
				// 权限或句柄错误只影响该订阅，作为事件立即返回。
				logger.Debug("rejected subscription",
					slog.String("type", s.tag.String()),
					slog.Uint64("fd", uint64(s.fd)),
					slog.Any("error", err))
				events[j] = &event{userdata: s.userdata, tag: s.tag, errno: ToErrno(err)}
				rejected = true
				continue
			}
			if s.tag == eventTypeFdRead {
				batch = append(batch, sched.Read{RwSubscription: rw})
			} else {
				batch = append(batch, sched.Write{RwSubscription: rw})
			}
		default:
			return ErrnoInval
		}
		origin = append(origin, j)
	}

	// 已经有被拒绝的订阅时不再阻塞，只收集此刻已经到期的时钟。
	if !rejected {
		if err := i.h.Poller().Poll(ctx, batch); err != nil {
			logger.Warn("poll_oneoff failed", slog.Any("error", err))
			return ToErrno(err)
		}
	}

	for k, sub := range batch {
		r, ok := sched.FromSubscription(sub)
		if !ok {
			continue
		}
		j := origin[k]
		ev := eventFromResult(subs[j].userdata, r)
		events[j] = &ev
	}

	var count uint32
	for _, ev := range events {
		if ev != nil {
			count++
		}
	}
	buf, free := eventBuffer(count)
	defer free()
	n := 0
	for _, ev := range events {
		if ev == nil {
			continue
		}
		ev.encode(buf[n*eventLen:])
		n++
	}
	if !mem.Write(out, buf) {
		return ErrnoFault
	}
	if !mem.WriteUint32Le(resultNevents, count) {
		return ErrnoFault
	}
	return ErrnoSuccess
}

// eventBuffer 返回 count 个事件的编码缓冲区。超出 int32 的大小不走 bytespool。
func eventBuffer(count uint32) ([]byte, func()) {
	size := uint64(count) * eventLen
	if size > math.MaxInt32 {
		return make([]byte, size), func() {}
	}
	buf := bytespool.Alloc(int32(size))
	return buf, func() { bytespool.Free(buf) }
}

func durationFromNanos(ns uint64) time.Duration {
	if ns > math.MaxInt64 {
		return math.MaxInt64
	}
	return time.Duration(ns)
}
