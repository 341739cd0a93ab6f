//go:build unix

package poll

import (
	"errors"
	"time"

	"golang.org/x/sys/unix"
)

const osPollSupported = true

type pollFd = unix.PollFd

const (
	pollEventRead  int16 = unix.POLLIN
	pollEventWrite int16 = unix.POLLOUT
	pollEventErr   int16 = unix.POLLERR
	pollEventHup   int16 = unix.POLLHUP
	pollEventNval  int16 = unix.POLLNVAL
)

func newPollFd(fd uintptr, write bool) pollFd {
	pfd := pollFd{Fd: int32(fd), Events: pollEventRead}
	if write {
		pfd.Events = pollEventWrite
	}
	return pfd
}

// poll 调用 poll(2)，超时向上取整到毫秒。被信号中断视为超时。
func poll(fds []pollFd, wait time.Duration) (int, error) {
	timeout := int((wait + time.Millisecond - 1) / time.Millisecond)
	n, err := unix.Poll(fds, timeout)
	if errors.Is(err, unix.EINTR) {
		return 0, nil
	}
	return n, err
}
