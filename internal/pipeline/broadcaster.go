package pipeline

import (
	"log/slog"
	"sync"
	"time"

	"surveyprep/pkg/contracts/domain"
	"surveyprep/pkg/contracts/events"
)

// WebSocketHub is the outbound interface for pushing run updates to
// connected clients.
type WebSocketHub interface {
	BroadcastUpdate(eventType string, data interface{})
}

// StatusBroadcaster maintains the authoritative snapshot for every run
// and pushes full-state updates to the hub. All mutations are
// serialized on a single goroutine so clients always observe a
// consistent snapshot regardless of which goroutine reported progress.
type StatusBroadcaster struct {
	mu      sync.RWMutex
	runs    map[string]*events.RunSnapshot
	hub     WebSocketHub
	logger  *slog.Logger
	updates chan updateRequest
	stop    chan struct{}
	stopped sync.Once
}

type updateRequest struct {
	runID  string
	update func(*events.RunSnapshot)
	done   chan struct{}
}

// NewStatusBroadcaster creates a broadcaster and starts its update loop.
// The hub may be nil, in which case snapshots are kept but not pushed.
func NewStatusBroadcaster(hub WebSocketHub, logger *slog.Logger) *StatusBroadcaster {
	if logger == nil {
		logger = slog.Default()
	}
	b := &StatusBroadcaster{
		runs:    make(map[string]*events.RunSnapshot),
		hub:     hub,
		logger:  logger.With(slog.String("component", "status_broadcaster")),
		updates: make(chan updateRequest, 64),
		stop:    make(chan struct{}),
	}
	go b.processUpdates()
	return b
}

// processUpdates applies snapshot mutations one at a time.
func (b *StatusBroadcaster) processUpdates() {
	for {
		select {
		case req := <-b.updates:
			b.handleUpdate(req)
		case <-b.stop:
			return
		}
	}
}

func (b *StatusBroadcaster) handleUpdate(req updateRequest) {
	defer close(req.done)

	b.mu.Lock()
	snapshot, exists := b.runs[req.runID]
	if !exists {
		snapshot = &events.RunSnapshot{
			RunID:  req.runID,
			Status: string(domain.RunStatusPending),
		}
		b.runs[req.runID] = snapshot
	}

	req.update(snapshot)
	snapshot.UpdatedAt = time.Now()
	snapshot.Progress = overallProgress(snapshot.Steps)

	switch domain.RunStatus(snapshot.Status) {
	case domain.RunStatusCompleted, domain.RunStatusFailed, domain.RunStatusCancelled:
		if snapshot.CompletedAt == nil {
			now := time.Now()
			snapshot.CompletedAt = &now
		}
		if snapshot.Status == string(domain.RunStatusCompleted) {
			snapshot.Progress = 100
		}
	}

	out := *snapshot
	b.mu.Unlock()

	if b.hub != nil {
		b.hub.BroadcastUpdate(string(events.MessageTypeRunSnapshot), out)
	}
}

// overallProgress averages step progress. Skipped steps count as done so
// a run with disabled stages still reaches 100.
func overallProgress(steps []events.StepSnapshot) int {
	if len(steps) == 0 {
		return 0
	}
	total := 0
	for _, s := range steps {
		switch domain.StepStatus(s.Status) {
		case domain.StepStatusCompleted, domain.StepStatusSkipped:
			total += 100
		default:
			total += s.Progress
		}
	}
	p := total / len(steps)
	if p < 0 {
		return 0
	}
	if p > 100 {
		return 100
	}
	return p
}

// UpdateStatus queues a snapshot mutation and waits for it to apply.
// After Stop it returns immediately without applying anything.
func (b *StatusBroadcaster) UpdateStatus(runID string, update func(*events.RunSnapshot)) {
	req := updateRequest{runID: runID, update: update, done: make(chan struct{})}
	select {
	case <-b.stop:
		return
	default:
	}
	select {
	case b.updates <- req:
		select {
		case <-req.done:
		case <-b.stop:
		}
	case <-b.stop:
	}
}

// CreateRun initializes the snapshot for a new run with all of its
// steps in the pending status.
func (b *StatusBroadcaster) CreateRun(runID, datasetName string, steps []Step) {
	b.UpdateStatus(runID, func(s *events.RunSnapshot) {
		s.Dataset = datasetName
		s.Status = string(domain.RunStatusPending)
		s.Steps = make([]events.StepSnapshot, len(steps))
		for i, step := range steps {
			s.Steps[i] = events.StepSnapshot{
				ID:     step.ID(),
				Name:   step.Name(),
				Status: string(domain.StepStatusPending),
			}
		}
	})
}

// StartRun marks the run as running.
func (b *StatusBroadcaster) StartRun(runID string) {
	b.UpdateStatus(runID, func(s *events.RunSnapshot) {
		s.Status = string(domain.RunStatusRunning)
		s.StartedAt = time.Now()
		s.Message = "Run started"
	})
}

// StartStep marks a step as active and makes it the current step.
func (b *StatusBroadcaster) StartStep(runID, stepID string) {
	b.UpdateStatus(runID, func(s *events.RunSnapshot) {
		for i := range s.Steps {
			if s.Steps[i].ID == stepID {
				s.Steps[i].Status = string(domain.StepStatusActive)
				s.CurrentStep = s.Steps[i].Name
				return
			}
		}
	})
}

// CompleteStep marks a step as completed and attaches the log lines
// accumulated so far.
func (b *StatusBroadcaster) CompleteStep(runID, stepID, message string, logLines []string) {
	b.UpdateStatus(runID, func(s *events.RunSnapshot) {
		s.Log = logLines
		for i := range s.Steps {
			if s.Steps[i].ID == stepID {
				s.Steps[i].Status = string(domain.StepStatusCompleted)
				s.Steps[i].Progress = 100
				s.Steps[i].Message = message
				return
			}
		}
	})
}

// SkipStep marks a step as skipped.
func (b *StatusBroadcaster) SkipStep(runID, stepID, reason string) {
	b.UpdateStatus(runID, func(s *events.RunSnapshot) {
		for i := range s.Steps {
			if s.Steps[i].ID == stepID {
				s.Steps[i].Status = string(domain.StepStatusSkipped)
				s.Steps[i].Message = reason
				return
			}
		}
	})
}

// FailStep marks a step as failed.
func (b *StatusBroadcaster) FailStep(runID, stepID string, err error) {
	b.UpdateStatus(runID, func(s *events.RunSnapshot) {
		for i := range s.Steps {
			if s.Steps[i].ID == stepID {
				s.Steps[i].Status = string(domain.StepStatusFailed)
				if err != nil {
					s.Steps[i].Error = err.Error()
				}
				return
			}
		}
	})
}

// CompleteRun marks the run as completed with its final log.
func (b *StatusBroadcaster) CompleteRun(runID, message string, logLines []string) {
	b.UpdateStatus(runID, func(s *events.RunSnapshot) {
		s.Status = string(domain.RunStatusCompleted)
		s.CurrentStep = ""
		s.Message = message
		s.Log = logLines
	})
}

// FailRun marks the run as failed.
func (b *StatusBroadcaster) FailRun(runID string, err error, logLines []string) {
	b.UpdateStatus(runID, func(s *events.RunSnapshot) {
		s.Status = string(domain.RunStatusFailed)
		s.CurrentStep = ""
		s.Log = logLines
		if err != nil {
			s.Error = err.Error()
		}
	})
}

// CancelRun marks the run as cancelled.
func (b *StatusBroadcaster) CancelRun(runID string, logLines []string) {
	b.UpdateStatus(runID, func(s *events.RunSnapshot) {
		s.Status = string(domain.RunStatusCancelled)
		s.CurrentStep = ""
		s.Log = logLines
		s.Message = "Run cancelled"
	})
}

// GetSnapshot returns a copy of the snapshot for a run.
func (b *StatusBroadcaster) GetSnapshot(runID string) (events.RunSnapshot, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	snapshot, ok := b.runs[runID]
	if !ok {
		return events.RunSnapshot{}, false
	}
	return *snapshot, true
}

// CleanupOldRuns removes snapshots for runs that finished before maxAge
// ago and returns how many were removed.
func (b *StatusBroadcaster) CleanupOldRuns(maxAge time.Duration) int {
	b.mu.Lock()
	defer b.mu.Unlock()

	cutoff := time.Now().Add(-maxAge)
	removed := 0
	for id, snapshot := range b.runs {
		if snapshot.CompletedAt != nil && snapshot.CompletedAt.Before(cutoff) {
			delete(b.runs, id)
			removed++
		}
	}
	if removed > 0 {
		b.logger.Info("cleaned up old run snapshots", slog.Int("removed", removed))
	}
	return removed
}

// Stop shuts down the update loop. Safe to call more than once.
func (b *StatusBroadcaster) Stop() {
	b.stopped.Do(func() {
		close(b.stop)
	})
}
