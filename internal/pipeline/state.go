package pipeline

import (
	"sync"
	"time"

	"surveyprep/internal/dataset"
	"surveyprep/pkg/contracts/domain"
)

// RunState holds everything about one preparation run: the table being
// transformed, the per-step states, the transformation log, and the
// cumulative effect counters. The executing goroutine mutates it while
// readers (snapshots, HTTP status queries) take consistent copies
// through Summary.
type RunState struct {
	mu        sync.RWMutex
	ID        string
	Dataset   string
	Config    domain.CleaningConfig
	Status    domain.RunStatus
	CreatedAt time.Time
	StartTime *time.Time
	EndTime   *time.Time
	Error     error

	table    dataset.Table
	rowsIn   int
	imputed  int
	outliers int

	log       *Log
	steps     map[string]*StepState
	stepOrder []string
}

// NewRunState creates a pending run over the given table.
func NewRunState(id, datasetName string, t dataset.Table, cfg domain.CleaningConfig) *RunState {
	return &RunState{
		ID:        id,
		Dataset:   datasetName,
		Config:    cfg,
		Status:    domain.RunStatusPending,
		CreatedAt: time.Now(),
		table:     t,
		rowsIn:    t.Len(),
		log:       NewLog(),
		steps:     make(map[string]*StepState),
	}
}

// RegisterStep adds a step state to the run, preserving registration order.
func (s *RunState) RegisterStep(st *StepState) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.steps[st.ID]; !exists {
		s.stepOrder = append(s.stepOrder, st.ID)
	}
	s.steps[st.ID] = st
}

// Step returns the state for a step by ID, or nil if not registered.
func (s *RunState) Step(id string) *StepState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.steps[id]
}

// Steps returns the step states in registration order.
func (s *RunState) Steps() []*StepState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*StepState, 0, len(s.stepOrder))
	for _, id := range s.stepOrder {
		out = append(out, s.steps[id])
	}
	return out
}

// Start marks the run as running.
func (s *RunState) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now()
	s.StartTime = &now
	s.Status = domain.RunStatusRunning
}

// Complete marks the run as completed.
func (s *RunState) Complete() {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now()
	s.EndTime = &now
	s.Status = domain.RunStatusCompleted
}

// Fail marks the run as failed with the given error.
func (s *RunState) Fail(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now()
	s.EndTime = &now
	s.Status = domain.RunStatusFailed
	s.Error = err
}

// Cancel marks the run as cancelled.
func (s *RunState) Cancel() {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now()
	s.EndTime = &now
	s.Status = domain.RunStatusCancelled
}

// Table returns the current table.
func (s *RunState) Table() dataset.Table {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.table
}

// SetTable replaces the current table with a step's output.
func (s *RunState) SetTable(t dataset.Table) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.table = t
}

// AddImputed adds to the count of cells filled by imputation.
func (s *RunState) AddImputed(n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.imputed += n
}

// AddOutliers adds to the count of rows flagged as outliers.
func (s *RunState) AddOutliers(n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.outliers += n
}

// Log returns the run's transformation log.
func (s *RunState) Log() *Log {
	return s.log
}

// CurrentStatus returns the run status under the read lock.
func (s *RunState) CurrentStatus() domain.RunStatus {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.Status
}

// IsComplete reports whether the run reached a terminal status.
func (s *RunState) IsComplete() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	switch s.Status {
	case domain.RunStatusCompleted, domain.RunStatusFailed, domain.RunStatusCancelled:
		return true
	}
	return false
}

// EndedAt returns when the run reached a terminal status, or nil while
// it is still pending or running.
func (s *RunState) EndedAt() *time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.EndTime
}

// Duration returns how long the run has been executing, or its total
// runtime once finished. Returns zero if the run never started.
func (s *RunState) Duration() time.Duration {
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

// Summary returns a consistent reportable copy of the run.
func (s *RunState) Summary() domain.RunSummary {
	s.mu.RLock()
	defer s.mu.RUnlock()

	steps := make([]domain.StepSummary, 0, len(s.stepOrder))
	for _, id := range s.stepOrder {
		steps = append(steps, s.steps[id].Summary())
	}

	sum := domain.RunSummary{
		ID:          s.ID,
		Dataset:     s.Dataset,
		Status:      s.Status,
		Config:      s.Config,
		Steps:       steps,
		RowsIn:      s.rowsIn,
		RowsOut:     s.table.Len(),
		Outliers:    s.outliers,
		Imputed:     s.imputed,
		Log:         s.log.Lines(),
		CreatedAt:   s.CreatedAt,
		StartedAt:   s.StartTime,
		CompletedAt: s.EndTime,
	}
	if s.Error != nil {
		sum.Error = s.Error.Error()
	}
	return sum
}
