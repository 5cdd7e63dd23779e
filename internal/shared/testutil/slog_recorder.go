package testutil

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"
)

// LogRecord is one captured log record.
type LogRecord struct {
	Time    time.Time
	Level   slog.Level
	Message string
	Attrs   map[string]any
}

// LogRecorder is a slog.Handler that captures records in memory so tests
// can assert on what a component logged. Attrs bound with Logger.With are
// folded into every captured record, so component-tagged loggers keep
// their tags visible to assertions.
type LogRecorder struct {
	state *recorderState
	attrs []slog.Attr
}

type recorderState struct {
	mu      sync.Mutex
	records []LogRecord
}

// NewLogRecorder creates a recorder that captures every level.
func NewLogRecorder() *LogRecorder {
	return &LogRecorder{state: &recorderState{}}
}

// NewTestLogger returns a logger wired to a fresh recorder.
func NewTestLogger() (*slog.Logger, *LogRecorder) {
	recorder := NewLogRecorder()
	return slog.New(recorder), recorder
}

// Handle implements slog.Handler.
func (r *LogRecorder) Handle(_ context.Context, record slog.Record) error {
	attrs := make(map[string]any, record.NumAttrs()+len(r.attrs))
	for _, a := range r.attrs {
		attrs[a.Key] = a.Value.Any()
	}
	record.Attrs(func(a slog.Attr) bool {
		attrs[a.Key] = a.Value.Any()
		return true
	})

	r.state.mu.Lock()
	defer r.state.mu.Unlock()
	r.state.records = append(r.state.records, LogRecord{
		Time:    record.Time,
		Level:   record.Level,
		Message: record.Message,
		Attrs:   attrs,
	})
	return nil
}

// Enabled implements slog.Handler. Tests capture all levels.
func (r *LogRecorder) Enabled(context.Context, slog.Level) bool {
	return true
}

// WithAttrs implements slog.Handler. The derived handler shares the
// record buffer with its parent.
func (r *LogRecorder) WithAttrs(attrs []slog.Attr) slog.Handler {
	merged := make([]slog.Attr, 0, len(r.attrs)+len(attrs))
	merged = append(merged, r.attrs...)
	merged = append(merged, attrs...)
	return &LogRecorder{state: r.state, attrs: merged}
}

// WithGroup implements slog.Handler. Groups are flattened; grouped attr
// keys appear ungrouped in captured records.
func (r *LogRecorder) WithGroup(string) slog.Handler {
	return r
}

// Records returns a copy of all captured records.
func (r *LogRecorder) Records() []LogRecord {
	r.state.mu.Lock()
	defer r.state.mu.Unlock()
	records := make([]LogRecord, len(r.state.records))
	copy(records, r.state.records)
	return records
}

// RecordsByLevel returns the captured records at exactly the given level.
func (r *LogRecorder) RecordsByLevel(level slog.Level) []LogRecord {
	r.state.mu.Lock()
	defer r.state.mu.Unlock()
	var filtered []LogRecord
	for _, rec := range r.state.records {
		if rec.Level == level {
			filtered = append(filtered, rec)
		}
	}
	return filtered
}

// ContainsMessage reports whether any record's message contains the
// given substring.
func (r *LogRecorder) ContainsMessage(message string) bool {
	r.state.mu.Lock()
	defer r.state.mu.Unlock()
	for _, rec := range r.state.records {
		if strings.Contains(rec.Message, message) {
			return true
		}
	}
	return false
}

// ContainsAttr reports whether any record carries the attribute with the
// given value.
func (r *LogRecorder) ContainsAttr(key string, value any) bool {
	r.state.mu.Lock()
	defer r.state.mu.Unlock()
	for _, rec := range r.state.records {
		if v, ok := rec.Attrs[key]; ok && v == value {
			return true
		}
	}
	return false
}

// Count returns the number of captured records.
func (r *LogRecorder) Count() int {
	r.state.mu.Lock()
	defer r.state.mu.Unlock()
	return len(r.state.records)
}

// Reset discards all captured records.
func (r *LogRecorder) Reset() {
	r.state.mu.Lock()
	defer r.state.mu.Unlock()
	r.state.records = r.state.records[:0]
}
