// Package logtest provides a Logger that keeps every message for assertions.
package logtest

import (
	"fmt"
	"strings"
	"sync"

	"github.com/GymliDanny/rune-engine/core/logging"
)

type Entry struct {
	Level   logging.Level
	Message string
}

type Recorder struct {
	mu      sync.Mutex
	entries []Entry
}

func (r *Recorder) Log(level logging.Level, format string, args ...any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, Entry{Level: level, Message: fmt.Sprintf(format, args...)})
}

func (r *Recorder) Entries() []Entry {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Entry(nil), r.entries...)
}

// Count returns how many messages were logged at level.
func (r *Recorder) Count(level logging.Level) int {
	n := 0
	for _, e := range r.Entries() {
		if e.Level == level {
			n++
		}
	}
	return n
}

// Contains reports whether a message at level contains substr.
func (r *Recorder) Contains(level logging.Level, substr string) bool {
	for _, e := range r.Entries() {
		if e.Level == level && strings.Contains(e.Message, substr) {
			return true
		}
	}
	return false
}

func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = nil
}
