package preview1

import (
	"context"
	"errors"

	"github.com/tetratelabs/wazero/experimental/sys"

	"github.com/foxxorcat/wazero-sched/manager/poll"
	"github.com/foxxorcat/wazero-sched/manager/table"
)

// Errno 是 WASI preview1 的错误码。
type Errno uint16

const (
	ErrnoSuccess    Errno = 0
	ErrnoAcces      Errno = 2
	ErrnoAgain      Errno = 6
	ErrnoBadf       Errno = 8
	ErrnoBusy       Errno = 10
	ErrnoCanceled   Errno = 11
	ErrnoFault      Errno = 21
	ErrnoIntr       Errno = 27
	ErrnoInval      Errno = 28
	ErrnoIo         Errno = 29
	ErrnoNosys      Errno = 52
	ErrnoNotsup     Errno = 58
	ErrnoPerm       Errno = 63
	ErrnoTimedout   Errno = 73
	ErrnoNotcapable Errno = 76
)

// ToErrno 把宿主侧错误映射为 guest 可见的错误码。
func ToErrno(err error) Errno {
	switch {
	case err == nil:
		return ErrnoSuccess
	case errors.Is(err, table.ErrNotCapable):
		return ErrnoNotcapable
	case errors.Is(err, table.ErrBadFd):
		return ErrnoBadf
	case errors.Is(err, table.ErrBusy):
		return ErrnoBusy
	case errors.Is(err, poll.ErrEmptyBatch):
		return ErrnoInval
	case errors.Is(err, context.Canceled):
		return ErrnoCanceled
	case errors.Is(err, context.DeadlineExceeded):
		return ErrnoTimedout
	}

	switch sys.UnwrapOSError(err) {
	case sys.EACCES:
		return ErrnoAcces
	case sys.EAGAIN:
		return ErrnoAgain
	case sys.EBADF:
		return ErrnoBadf
	case sys.EINTR:
		return ErrnoIntr
	case sys.EINVAL:
		return ErrnoInval
	case sys.ENOSYS:
		return ErrnoNosys
	case sys.ENOTSUP:
		return ErrnoNotsup
	case sys.EPERM:
		return ErrnoPerm
	default:
		return ErrnoIo
	}
}
