package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"surveyprep/internal/dataset"
	"surveyprep/pkg/contracts/domain"
)

// Request describes one preparation run over an in-memory table.
type Request struct {
	// ID is optional; a UUID is assigned when empty.
	ID string
	// Dataset is the display name of the source dataset.
	Dataset string
	// Table is the raw table the run transforms.
	Table dataset.Table
	// Config selects which stages run and how.
	Config domain.CleaningConfig
}

// Result is the outcome of a completed run.
type Result struct {
	Summary domain.RunSummary
	Table   dataset.Table
}

// Manager executes preparation runs and keeps every run's state in an
// in-memory registry. Runs stay retrievable after completion so their
// cleaned tables can feed estimation and export; CleanupOldRuns bounds
// the registry's growth.
type Manager struct {
	steps       []Step
	broadcaster *StatusBroadcaster
	logger      *slog.Logger

	mu   sync.RWMutex
	runs map[string]*RunState
}

// NewManager creates a manager with the default step sequence. The hub
// may be nil for callers that do not push live updates.
func NewManager(hub WebSocketHub, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{
		steps:       DefaultSteps(logger),
		broadcaster: NewStatusBroadcaster(hub, logger),
		logger:      logger.With(slog.String("component", "pipeline_manager")),
		runs:        make(map[string]*RunState),
	}
}

// Broadcaster returns the status broadcaster for snapshot queries.
func (m *Manager) Broadcaster() *StatusBroadcaster {
	return m.broadcaster
}

// Execute runs the preparation pipeline to completion. Steps run
// sequentially in their fixed order; disabled steps are skipped
// silently. There are no retries: a failed step fails the run, and a
// cancelled context cancels it at the next step boundary.
func (m *Manager) Execute(ctx context.Context, req Request) (*Result, error) {
	state, err := m.Prepare(req)
	if err != nil {
		return nil, err
	}
	return m.ExecutePrepared(ctx, state)
}

// Prepare registers a pending run without executing it. The run is
// immediately visible to Run, GetRun and ListRuns, so callers that
// execute in the background can hand out the run id first.
func (m *Manager) Prepare(req Request) (*RunState, error) {
	if req.ID == "" {
		req.ID = uuid.NewString()
	}

	state := NewRunState(req.ID, req.Dataset, req.Table, req.Config)
	for _, step := range m.steps {
		state.RegisterStep(NewStepState(step.ID(), step.Name()))
	}
	if err := m.storeRun(state); err != nil {
		return nil, err
	}

	m.broadcaster.CreateRun(state.ID, state.Dataset, m.steps)
	return state, nil
}

// ExecutePrepared runs a prepared run to completion.
func (m *Manager) ExecutePrepared(ctx context.Context, state *RunState) (*Result, error) {
	m.logger.InfoContext(ctx, "run started",
		slog.String("run_id", state.ID),
		slog.String("dataset", state.Dataset),
		slog.Int("rows_in", state.Table().Len()))

	state.Start()
	m.broadcaster.StartRun(state.ID)

	if err := m.executeSequential(ctx, state); err != nil {
		return nil, err
	}

	state.Complete()
	m.broadcaster.CompleteRun(state.ID, "Run completed", state.Log().Lines())

	summary := state.Summary()
	m.logger.InfoContext(ctx, "run completed",
		slog.String("run_id", state.ID),
		slog.Int("rows_out", summary.RowsOut),
		slog.Int("cells_imputed", summary.Imputed),
		slog.Int("outliers_flagged", summary.Outliers),
		slog.Duration("duration", state.Duration()))

	return &Result{Summary: summary, Table: state.Table()}, nil
}

// executeSequential walks the fixed step order. State transitions and
// broadcasts happen here so the steps stay pure table transforms.
func (m *Manager) executeSequential(ctx context.Context, state *RunState) error {
	for _, step := range m.steps {
		select {
		case <-ctx.Done():
			runErr := NewCancellationError(step.ID())
			state.Cancel()
			m.broadcaster.CancelRun(state.ID, state.Log().Lines())
			m.logger.InfoContext(ctx, "run cancelled",
				slog.String("run_id", state.ID),
				slog.String("at_step", step.ID()))
			return runErr
		default:
		}

		stepState := state.Step(step.ID())

		if !step.Enabled(state.Config) {
			stepState.Skip("not configured")
			m.broadcaster.SkipStep(state.ID, step.ID(), "Not configured")
			continue
		}

		stepState.Start()
		m.broadcaster.StartStep(state.ID, step.ID())

		if err := step.Execute(ctx, state); err != nil {
			runErr := NewExecutionError(step.ID(), "step execution failed", err)
			stepState.Fail(runErr)
			state.Fail(runErr)
			m.broadcaster.FailStep(state.ID, step.ID(), runErr)
			m.broadcaster.FailRun(state.ID, runErr, state.Log().Lines())
			m.logger.ErrorContext(ctx, "run failed",
				slog.String("run_id", state.ID),
				slog.String("step", step.ID()),
				slog.String("error", err.Error()))
			return runErr
		}

		message := ""
		if entries := state.Log().Entries(); len(entries) > 0 {
			message = entries[len(entries)-1].Message
		}
		stepState.Complete(message)
		m.broadcaster.CompleteStep(state.ID, step.ID(), message, state.Log().Lines())
	}
	return nil
}

// storeRun registers a run, rejecting duplicate identifiers.
func (m *Manager) storeRun(state *RunState) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.runs[state.ID]; exists {
		return NewValidationError(fmt.Sprintf("run %q already exists", state.ID))
	}
	m.runs[state.ID] = state
	return nil
}

// Run returns the live state for a run. Callers must treat it as
// read-only outside the state's own methods.
func (m *Manager) Run(id string) (*RunState, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	state, ok := m.runs[id]
	if !ok {
		return nil, ErrRunNotFound
	}
	return state, nil
}

// GetRun returns the reportable summary for a run.
func (m *Manager) GetRun(id string) (domain.RunSummary, error) {
	state, err := m.Run(id)
	if err != nil {
		return domain.RunSummary{}, err
	}
	return state.Summary(), nil
}

// ListRuns returns summaries for all known runs, newest first.
func (m *Manager) ListRuns() []domain.RunSummary {
	m.mu.RLock()
	states := make([]*RunState, 0, len(m.runs))
	for _, state := range m.runs {
		states = append(states, state)
	}
	m.mu.RUnlock()

	summaries := make([]domain.RunSummary, len(states))
	for i, state := range states {
		summaries[i] = state.Summary()
	}
	sort.Slice(summaries, func(i, j int) bool {
		return summaries[i].CreatedAt.After(summaries[j].CreatedAt)
	})
	return summaries
}

// RemoveRun drops a run from the registry.
func (m *Manager) RemoveRun(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.runs[id]; !ok {
		return ErrRunNotFound
	}
	delete(m.runs, id)
	return nil
}

// CleanupOldRuns removes terminal runs that finished before maxAge ago,
// along with their broadcaster snapshots. Returns how many runs were
// removed.
func (m *Manager) CleanupOldRuns(maxAge time.Duration) int {
	cutoff := time.Now().Add(-maxAge)

	m.mu.Lock()
	removed := 0
	for id, state := range m.runs {
		if !state.IsComplete() {
			continue
		}
		if end := state.EndedAt(); end != nil && end.Before(cutoff) {
			delete(m.runs, id)
			removed++
		}
	}
	m.mu.Unlock()

	m.broadcaster.CleanupOldRuns(maxAge)
	if removed > 0 {
		m.logger.Info("cleaned up old runs", slog.Int("removed", removed))
	}
	return removed
}

// Stop shuts down the broadcaster. In-flight runs are unaffected; they
// finish against an already-stopped broadcaster without blocking.
func (m *Manager) Stop() {
	m.broadcaster.Stop()
}
