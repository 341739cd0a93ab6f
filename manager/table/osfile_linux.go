package table

import "golang.org/x/sys/unix"

// TIOCINQ is FIONREAD on linux.
func numReadyBytes(fd uintptr) (uint64, error) {
	n, err := unix.IoctlGetInt(int(fd), unix.TIOCINQ)
	if err != nil {
		return 0, err
	}
	if n < 0 {
		return 0, nil
	}
	return uint64(n), nil
}
