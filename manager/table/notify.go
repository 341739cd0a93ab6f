package table

import (
	"sync"

	"github.com/tetratelabs/wazero/experimental/sys"
)

// NotifyFile is a File whose readiness is driven by host code, for resources
// without a descriptor such as in-memory streams. Both directions start not
// ready. It is safe for concurrent use.
type NotifyFile struct {
	mu       sync.Mutex
	readable bool
	writable bool
	ready    uint64
	err      error
}

func NewNotifyFile() *NotifyFile {
	return &NotifyFile{}
}

// SetReadable marks the file readable with n bytes buffered.
func (f *NotifyFile) SetReadable(n uint64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.readable = true
	f.ready = n
}

// SetWritable marks the file writable.
func (f *NotifyFile) SetWritable() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.writable = true
}

// SetError makes every later readiness check fail with err. nil clears it.
func (f *NotifyFile) SetError(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.err = err
}

// Reset marks both directions not ready.
func (f *NotifyFile) Reset() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.readable, f.writable, f.ready = false, false, 0
}

func (f *NotifyFile) Fd() (uintptr, bool) { return 0, false }

func (f *NotifyFile) NumReadyBytes() (uint64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.ready, f.err
}

func (f *NotifyFile) Readable() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	switch {
	case f.err != nil:
		return f.err
	case !f.readable:
		return sys.EAGAIN
	}
	return nil
}

func (f *NotifyFile) Writable() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	switch {
	case f.err != nil:
		return f.err
	case !f.writable:
		return sys.EAGAIN
	}
	return nil
}
