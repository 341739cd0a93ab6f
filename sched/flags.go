package sched

import (
	"fmt"
	"strings"
)

// RwEventFlags is the state reported alongside fd readiness.
type RwEventFlags uint32

const (
	// Hangup reports that the peer of a stream has closed.
	Hangup RwEventFlags = 1 << iota
)

// Has reports whether every flag in f is set.
func (flags RwEventFlags) Has(f RwEventFlags) bool {
	return flags&f == f
}

func (flags RwEventFlags) String() string {
	if flags == 0 {
		return "0"
	}
	var parts []string
	if flags.Has(Hangup) {
		parts = append(parts, "HANGUP")
	}
	if rest := flags &^ Hangup; rest != 0 {
		parts = append(parts, fmt.Sprintf("0x%x", uint32(rest)))
	}
	return strings.Join(parts, "|")
}
