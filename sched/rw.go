package sched

import (
	"sync"

	"github.com/foxxorcat/wazero-sched/manager/table"
)

// Resolver hands out transient exclusive access to table entries.
// *table.Table implements it.
type Resolver interface {
	GetFile(fd uint32, caps table.FileCaps) (*table.FileRef, error)
}

// RwStatus is the outcome of a readiness subscription. When Err is nil, Size
// is the number of bytes that can move without blocking and Flags carries
// conditions seen with the readiness. Hangup and a non-zero Size may be
// reported together.
type RwStatus struct {
	Size  uint64
	Flags RwEventFlags
	Err   error
}

type slotState uint8

const (
	slotPending slotState = iota
	slotSet
	slotConsumed
)

// RwSubscription is an interest in read or write readiness of one handle.
type RwSubscription struct {
	files Resolver
	fd    uint32

	mu     sync.Mutex
	state  slotState
	status RwStatus
}

// NewRwSubscription checks that fd exists and may be polled, then forgets
// the access it resolved. Only the handle is kept.
func NewRwSubscription(files Resolver, fd uint32) (*RwSubscription, error) {
	ref, err := files.GetFile(fd, table.CapPollReadWrite)
	if err != nil {
		return nil, err
	}
	ref.Release()
	return &RwSubscription{files: files, fd: fd}, nil
}

// Fd returns the handle this interest is about.
func (s *RwSubscription) Fd() uint32 { return s.fd }

// File re-resolves the handle for a probe. It fails if the file is borrowed
// elsewhere, has been removed, or lost its poll right since construction.
// The caller must release the access before blocking.
func (s *RwSubscription) File() (*table.FileRef, error) {
	return s.files.GetFile(s.fd, table.CapPollReadWrite)
}

// Complete records readiness. It panics if the slot was already written.
func (s *RwSubscription) Complete(size uint64, flags RwEventFlags) {
	s.set(RwStatus{Size: size, Flags: flags})
}

// Fail records an error for this interest only. It panics if the slot was
// already written.
func (s *RwSubscription) Fail(err error) {
	s.set(RwStatus{Err: err})
}

func (s *RwSubscription) set(status RwStatus) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != slotPending {
		panic("sched: readiness subscription completed twice")
	}
	s.state = slotSet
	s.status = status
}

// Result consumes the subscription. ok is false if nothing was recorded this
// round. Calling Result again panics.
func (s *RwSubscription) Result() (status RwStatus, ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch s.state {
	case slotConsumed:
		panic("sched: readiness subscription consumed twice")
	case slotSet:
		status, ok = s.status, true
		s.status = RwStatus{}
	}
	s.state = slotConsumed
	return status, ok
}
