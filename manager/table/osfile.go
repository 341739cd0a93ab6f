package table

import "os"

// OSFile adapts an *os.File to File. Readiness of the descriptor itself is
// left to the poller; Readable and Writable only answer for platforms without
// a descriptor poll.
type OSFile struct {
	f *os.File
}

// NewOSFile wraps f. The table's onClose callback decides whether f is closed.
func NewOSFile(f *os.File) *OSFile {
	return &OSFile{f: f}
}

// Fd returns the descriptor of the wrapped file.
func (o *OSFile) Fd() (uintptr, bool) {
	return o.f.Fd(), true
}

// NumReadyBytes asks the kernel how many bytes are buffered for reading.
func (o *OSFile) NumReadyBytes() (uint64, error) {
	return numReadyBytes(o.f.Fd())
}

// Readable always reports ready: regular files never block.
func (o *OSFile) Readable() error { return nil }

// Writable always reports ready.
func (o *OSFile) Writable() error { return nil }

// Close closes the wrapped file.
func (o *OSFile) Close() error { return o.f.Close() }

// CloseFile is an onClose callback for New that closes files implementing
// io.Closer.
func CloseFile(f File) {
	if c, ok := f.(interface{ Close() error }); ok {
		_ = c.Close()
	}
}
