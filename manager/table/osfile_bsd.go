//go:build darwin || freebsd || netbsd || openbsd

package table

import "golang.org/x/sys/unix"

// fionread is _IOR('f', 127, int), the same on darwin and the BSDs.
// x/sys/unix does not export it for these platforms.
const fionread = 0x4004667f

func numReadyBytes(fd uintptr) (uint64, error) {
	n, err := unix.IoctlGetInt(int(fd), fionread)
	if err != nil {
		return 0, err
	}
	if n < 0 {
		return 0, nil
	}
	return uint64(n), nil
}
