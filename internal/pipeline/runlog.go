package pipeline

import (
	"fmt"
	"sync"
	"time"
)

// logTimeFormat is the timestamp layout used for rendered log lines.
const logTimeFormat = "2006-01-02 15:04:05"

// Entry is a single timestamped record in a run's transformation log.
type Entry struct {
	At      time.Time `json:"at"`
	Message string    `json:"message"`
}

// Line renders the entry as a human-readable log line.
func (e Entry) Line() string {
	return e.At.Format(logTimeFormat) + " " + e.Message
}

// Log accumulates the transformation log for a single run. Entries are
// append-only and kept in insertion order. Steps append one entry per
// executed stage; skipped stages append nothing.
//
// A Log is safe for concurrent use: the executing run appends while the
// status broadcaster reads lines for snapshots.
type Log struct {
	mu      sync.RWMutex
	entries []Entry
}

// NewLog returns an empty transformation log.
func NewLog() *Log {
	return &Log{}
}

// Append records a new entry with the current time.
func (l *Log) Append(format string, args ...interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = append(l.entries, Entry{
		At:      time.Now(),
		Message: fmt.Sprintf(format, args...),
	})
}

// Len returns the number of entries recorded so far.
func (l *Log) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.entries)
}

// Entries returns a copy of the recorded entries in insertion order.
func (l *Log) Entries() []Entry {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]Entry, len(l.entries))
	copy(out, l.entries)
	return out
}

// Lines renders every entry in insertion order.
func (l *Log) Lines() []string {
	l.mu.RLock()
	defer l.mu.RUnlock()
	lines := make([]string, len(l.entries))
	for i, e := range l.entries {
		lines[i] = e.Line()
	}
	return lines
}
