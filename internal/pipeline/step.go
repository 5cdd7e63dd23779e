package pipeline

import (
	"context"
	"sync"
	"time"

	"surveyprep/pkg/contracts/domain"
)

// Step is a single data preparation stage. Implementations must be
// stateless; everything they need lives in the RunState they receive.
type Step interface {
	// ID returns the unique identifier for this step.
	ID() string

	// Name returns a human-readable name for display purposes.
	Name() string

	// Enabled reports whether the run configuration activates this
	// step. Disabled steps are skipped without a log entry.
	Enabled(cfg domain.CleaningConfig) bool

	// Execute runs the step against the current run state. The table
	// held by the state is replaced with the step's output.
	Execute(ctx context.Context, state *RunState) error
}

// BaseStep provides the identity boilerplate shared by all steps.
type BaseStep struct {
	id   string
	name string
}

// NewBaseStep creates a BaseStep with the given identity.
func NewBaseStep(id, name string) BaseStep {
	return BaseStep{id: id, name: name}
}

// ID returns the step identifier.
func (s BaseStep) ID() string { return s.id }

// Name returns the human-readable step name.
func (s BaseStep) Name() string { return s.name }

// StepState tracks the execution state of a single step within a run.
// Mutations go through the state-transition methods, which hold the
// lock; Summary returns a consistent copy for reporting.
type StepState struct {
	mu        sync.RWMutex
	ID        string
	Name      string
	Status    domain.StepStatus
	StartTime *time.Time
	EndTime   *time.Time
	Progress  float64
	Message   string
	Error     error
}

// NewStepState creates a step state in the pending status.
func NewStepState(id, name string) *StepState {
	return &StepState{
		ID:     id,
		Name:   name,
		Status: domain.StepStatusPending,
	}
}

// Start marks the step as active.
func (s *StepState) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now()
	s.StartTime = &now
	s.Status = domain.StepStatusActive
}

// Complete marks the step as completed with an optional final message.
func (s *StepState) Complete(message string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now()
	s.EndTime = &now
	s.Status = domain.StepStatusCompleted
	s.Progress = 100
	if message != "" {
		s.Message = message
	}
}

// Fail marks the step as failed with the given error.
func (s *StepState) Fail(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now()
	s.EndTime = &now
	s.Status = domain.StepStatusFailed
	s.Error = err
	if err != nil {
		s.Message = err.Error()
	}
}

// Skip marks the step as skipped with a reason.
func (s *StepState) Skip(reason string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now()
	s.EndTime = &now
	s.Status = domain.StepStatusSkipped
	s.Message = reason
}

// UpdateProgress records progress as a percentage with a status message.
func (s *StepState) UpdateProgress(progress float64, message string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if progress < 0 {
		progress = 0
	}
	if progress > 100 {
		progress = 100
	}
	s.Progress = progress
	if message != "" {
		s.Message = message
	}
}

// Duration returns how long the step has been running, or its total
// runtime once finished. Returns zero if the step never started.
func (s *StepState) Duration() time.Duration {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.StartTime == nil {
		return 0
	}
	if s.EndTime != nil {
		return s.EndTime.Sub(*s.StartTime)
	}
	return time.Since(*s.StartTime)
}

// CurrentStatus returns the step status under the read lock.
func (s *StepState) CurrentStatus() domain.StepStatus {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.Status
}

// Summary returns a consistent copy of the step state for reporting.
func (s *StepState) Summary() domain.StepSummary {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sum := domain.StepSummary{
		ID:          s.ID,
		Name:        s.Name,
		Status:      s.Status,
		Progress:    s.Progress,
		Message:     s.Message,
		StartedAt:   s.StartTime,
		CompletedAt: s.EndTime,
	}
	if s.Error != nil {
		sum.Error = s.Error.Error()
	}
	return sum
}
