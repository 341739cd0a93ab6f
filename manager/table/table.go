package table

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
)

var (
	// ErrBadFd is returned when a handle does not name a live entry.
	ErrBadFd = errors.New("bad file descriptor")
	// ErrNotCapable is returned when the entry lacks a required right.
	ErrNotCapable = errors.New("insufficient rights")
	// ErrBusy is returned when another caller currently holds exclusive
	// access to the entry.
	ErrBusy = errors.New("file is busy")
)

// FileCaps is the set of rights carried by a table entry.
type FileCaps uint32

const (
	CapRead FileCaps = 1 << iota
	CapWrite
	CapFdstat
	// CapPollReadWrite gates read and write readiness subscriptions alike.
	CapPollReadWrite

	CapAll = CapRead | CapWrite | CapFdstat | CapPollReadWrite
)

// Contains reports whether every right in other is present in c.
func (c FileCaps) Contains(other FileCaps) bool {
	return c&other == other
}

func (c FileCaps) String() string {
	if c == 0 {
		return "none"
	}
	var names []string
	for _, right := range []struct {
		bit  FileCaps
		name string
	}{
		{CapRead, "read"},
		{CapWrite, "write"},
		{CapFdstat, "fdstat"},
		{CapPollReadWrite, "poll_readwrite"},
	} {
		if c&right.bit != 0 {
			names = append(names, right.name)
		}
	}
	if rest := c &^ CapAll; rest != 0 {
		names = append(names, fmt.Sprintf("0x%x", uint32(rest)))
	}
	return strings.Join(names, "|")
}

// File is the host-side resource behind a handle. Implementations only report
// readiness; the table never performs I/O on them.
type File interface {
	// Fd returns the host descriptor backing the file, if there is one.
	Fd() (uintptr, bool)
	// NumReadyBytes returns how many bytes can be read without blocking.
	NumReadyBytes() (uint64, error)
	// Readable returns nil if a read would not block.
	Readable() error
	// Writable returns nil if a write would not block.
	Writable() error
}

type entry struct {
	// mu is the exclusive access lock handed out through FileRef.
	mu   sync.Mutex
	file File
	caps FileCaps
}

// Table is a thread-safe handle table mapping guest handles to files and the
// rights they were granted.
type Table struct {
	mu      sync.RWMutex
	entries map[uint32]*entry
	nextID  uint32
	onClose func(File)
}

// New creates an empty table. onClose, when non-nil, is invoked for every file
// that leaves the table.
func New(onClose func(File)) *Table {
	return &Table{
		entries: make(map[uint32]*entry),
		onClose: onClose,
	}
}

// Push stores file under the lowest free handle above the last one handed out.
func (t *Table) Push(file File, caps FileCaps) uint32 {
	t.mu.Lock()
	defer t.mu.Unlock()
	for {
		fd := t.nextID
		t.nextID++
		if _, ok := t.entries[fd]; !ok {
			t.entries[fd] = &entry{file: file, caps: caps}
			return fd
		}
	}
}

// Insert stores file under a fixed handle, e.g. the stdio descriptors.
func (t *Table) Insert(fd uint32, file File, caps FileCaps) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, ok := t.entries[fd]; ok {
		return fmt.Errorf("fd %d already in use", fd)
	}
	t.entries[fd] = &entry{file: file, caps: caps}
	return nil
}

// SetCaps replaces the rights of an entry. Rights can only be narrowed.
func (t *Table) SetCaps(fd uint32, caps FileCaps) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	e, ok := t.entries[fd]
	if !ok {
		return fmt.Errorf("fd %d: %w", fd, ErrBadFd)
	}
	if !e.caps.Contains(caps) {
		return fmt.Errorf("fd %d cannot gain %s: %w", fd, caps&^e.caps, ErrNotCapable)
	}
	e.caps = caps
	return nil
}

// Caps returns the rights currently carried by fd.
func (t *Table) Caps(fd uint32) (FileCaps, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	e, ok := t.entries[fd]
	if !ok {
		return 0, false
	}
	return e.caps, true
}

// GetFile resolves fd to transient exclusive access, provided the entry
// carries every right in caps. The returned FileRef must be released before
// the caller blocks.
func (t *Table) GetFile(fd uint32, caps FileCaps) (*FileRef, error) {
	t.mu.RLock()
	e, ok := t.entries[fd]
	var have FileCaps
	if ok {
		have = e.caps
	}
	t.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("fd %d: %w", fd, ErrBadFd)
	}
	if !have.Contains(caps) {
		return nil, fmt.Errorf("fd %d lacks %s: %w", fd, caps&^have, ErrNotCapable)
	}
	if !e.mu.TryLock() {
		return nil, fmt.Errorf("fd %d: %w", fd, ErrBusy)
	}
	return &FileRef{fd: fd, e: e}, nil
}

// Remove drops fd from the table, waiting for any outstanding access to be
// released before the file is closed.
func (t *Table) Remove(fd uint32) {
	t.mu.Lock()
	e, ok := t.entries[fd]
	delete(t.entries, fd)
	t.mu.Unlock()
	if ok {
		t.closeEntry(e)
	}
}

// Len returns the number of live handles.
func (t *Table) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.entries)
}

// Close removes every entry.
func (t *Table) Close() {
	t.mu.Lock()
	entries := t.entries
	t.entries = make(map[uint32]*entry)
	t.mu.Unlock()
	for _, e := range entries {
		t.closeEntry(e)
	}
}

func (t *Table) closeEntry(e *entry) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if t.onClose != nil {
		t.onClose(e.file)
	}
}

// FileRef is exclusive access to one table entry. It is not meant to outlive
// a single probe of the file.
type FileRef struct {
	fd       uint32
	e        *entry
	released atomic.Bool
}

// Fd returns the handle the access was resolved from.
func (r *FileRef) Fd() uint32 { return r.fd }

// File returns the underlying file.
func (r *FileRef) File() File { return r.e.file }

// Release gives up exclusive access. Calling it more than once is a no-op.
func (r *FileRef) Release() {
	if r.released.CompareAndSwap(false, true) {
		r.e.mu.Unlock()
	}
}
