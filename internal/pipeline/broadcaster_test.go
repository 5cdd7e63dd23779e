package pipeline

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"surveyprep/pkg/contracts/domain"
	"surveyprep/pkg/contracts/events"
)

type captureHub struct {
	mu        sync.Mutex
	snapshots []events.RunSnapshot
}

func (h *captureHub) BroadcastUpdate(eventType string, data interface{}) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if snap, ok := data.(events.RunSnapshot); ok {
		h.snapshots = append(h.snapshots, snap)
	}
}

func (h *captureHub) last(t *testing.T) events.RunSnapshot {
	t.Helper()
	h.mu.Lock()
	defer h.mu.Unlock()
	require.NotEmpty(t, h.snapshots)
	return h.snapshots[len(h.snapshots)-1]
}

func newTestBroadcaster(t *testing.T) (*StatusBroadcaster, *captureHub) {
	t.Helper()
	hub := &captureHub{}
	b := NewStatusBroadcaster(hub, nil)
	t.Cleanup(b.Stop)
	return b, hub
}

func TestBroadcasterCreateRun(t *testing.T) {
	b, hub := newTestBroadcaster(t)

	b.CreateRun("run-1", "survey.csv", DefaultSteps(nil))

	snap := hub.last(t)
	assert.Equal(t, "run-1", snap.RunID)
	assert.Equal(t, "survey.csv", snap.Dataset)
	assert.Equal(t, string(domain.RunStatusPending), snap.Status)
	require.Len(t, snap.Steps, 3)
	for _, step := range snap.Steps {
		assert.Equal(t, string(domain.StepStatusPending), step.Status)
	}
	assert.Zero(t, snap.Progress)
}

func TestBroadcasterStepLifecycle(t *testing.T) {
	b, hub := newTestBroadcaster(t)
	b.CreateRun("run-1", "survey.csv", DefaultSteps(nil))
	b.StartRun("run-1")

	b.StartStep("run-1", StepIDImpute)
	snap := hub.last(t)
	assert.Equal(t, StepNameImpute, snap.CurrentStep)

	b.CompleteStep("run-1", StepIDImpute, "filled 2", []string{"line one"})
	snap = hub.last(t)
	assert.Equal(t, []string{"line one"}, snap.Log)
	assert.Equal(t, string(domain.StepStatusCompleted), snap.Steps[0].Status)
	assert.Equal(t, 33, snap.Progress, "one of three steps done")

	b.SkipStep("run-1", StepIDOutliers, "Not configured")
	snap = hub.last(t)
	assert.Equal(t, string(domain.StepStatusSkipped), snap.Steps[1].Status)
	assert.Equal(t, 66, snap.Progress, "skipped steps count as done")

	b.CompleteStep("run-1", StepIDValidate, "removed 1", []string{"line one", "line two"})
	b.CompleteRun("run-1", "Run completed", []string{"line one", "line two"})
	snap = hub.last(t)
	assert.Equal(t, string(domain.RunStatusCompleted), snap.Status)
	assert.Equal(t, 100, snap.Progress)
	assert.NotNil(t, snap.CompletedAt)
	assert.Empty(t, snap.CurrentStep)
}

func TestBroadcasterFailRun(t *testing.T) {
	b, hub := newTestBroadcaster(t)
	b.CreateRun("run-1", "survey.csv", DefaultSteps(nil))
	b.StartRun("run-1")

	b.FailStep("run-1", StepIDImpute, assert.AnError)
	b.FailRun("run-1", assert.AnError, nil)

	snap := hub.last(t)
	assert.Equal(t, string(domain.RunStatusFailed), snap.Status)
	assert.Equal(t, assert.AnError.Error(), snap.Error)
	assert.Equal(t, string(domain.StepStatusFailed), snap.Steps[0].Status)
	assert.NotNil(t, snap.CompletedAt)
}

func TestBroadcasterGetSnapshot(t *testing.T) {
	b, _ := newTestBroadcaster(t)

	_, ok := b.GetSnapshot("missing")
	assert.False(t, ok)

	b.CreateRun("run-1", "survey.csv", nil)
	snap, ok := b.GetSnapshot("run-1")
	require.True(t, ok)
	assert.Equal(t, "run-1", snap.RunID)
}

func TestBroadcasterCleanupOldRuns(t *testing.T) {
	b, _ := newTestBroadcaster(t)

	b.CreateRun("run-done", "survey.csv", nil)
	b.CompleteRun("run-done", "done", nil)
	b.CreateRun("run-live", "survey.csv", nil)

	// Age the completed snapshot past the cutoff.
	b.mu.Lock()
	past := time.Now().Add(-2 * time.Hour)
	b.runs["run-done"].CompletedAt = &past
	b.mu.Unlock()

	removed := b.CleanupOldRuns(time.Hour)
	assert.Equal(t, 1, removed)

	_, ok := b.GetSnapshot("run-done")
	assert.False(t, ok)
	_, ok = b.GetSnapshot("run-live")
	assert.True(t, ok)
}

func TestBroadcasterNilHub(t *testing.T) {
	b := NewStatusBroadcaster(nil, nil)
	t.Cleanup(b.Stop)

	b.CreateRun("run-1", "survey.csv", DefaultSteps(nil))
	b.CompleteRun("run-1", "done", nil)

	snap, ok := b.GetSnapshot("run-1")
	require.True(t, ok)
	assert.Equal(t, string(domain.RunStatusCompleted), snap.Status)
}

func TestBroadcasterStopIsIdempotent(t *testing.T) {
	b := NewStatusBroadcaster(nil, nil)
	b.Stop()
	b.Stop()

	// Updates after Stop must not block.
	done := make(chan struct{})
	go func() {
		b.StartRun("run-1")
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("UpdateStatus blocked after Stop")
	}
}
