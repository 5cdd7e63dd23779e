package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"surveyprep/internal/config"
	"surveyprep/internal/exporter"
	"surveyprep/pkg/contracts/domain"
)

func newTestPipelineService(t *testing.T) (*PipelineService, *DataService, *config.Paths) {
	t.Helper()

	data, paths := newTestDataService(t)
	svc := NewPipelineService(paths, data, nil, nil, testLogger())
	t.Cleanup(svc.Stop)

	return svc, data, paths
}

// waitForRun blocks until the run leaves its running states.
func waitForRun(t *testing.T, svc *PipelineService, id string) domain.RunSummary {
	t.Helper()

	var summary domain.RunSummary
	require.Eventually(t, func() bool {
		var err error
		summary, err = svc.GetRun(context.Background(), id)
		if err != nil {
			return false
		}
		switch summary.Status {
		case domain.RunStatusCompleted, domain.RunStatusFailed, domain.RunStatusCancelled:
			return true
		}
		return false
	}, 5*time.Second, 10*time.Millisecond, "run %s did not finish", id)

	return summary
}

func TestStartRunCompletes(t *testing.T) {
	svc, _, paths := newTestPipelineService(t)
	writeDataset(t, paths, "survey.csv", "age,income\n30,5000\n41,\n55,4800\n29,5100\n")

	cfg := domain.CleaningConfig{
		Imputation: domain.ImputationConfig{Column: "income", Method: "mean"},
	}

	summary, err := svc.StartRun(context.Background(), "survey.csv", cfg)
	require.NoError(t, err)
	assert.NotEmpty(t, summary.ID)
	assert.Equal(t, "survey.csv", summary.Dataset)

	final := waitForRun(t, svc, summary.ID)
	assert.Equal(t, domain.RunStatusCompleted, final.Status)
	assert.Equal(t, 4, final.RowsIn)
	assert.Equal(t, 4, final.RowsOut)
	assert.Equal(t, 1, final.Imputed)
	assert.NotEmpty(t, final.Log)
}

func TestStartRunDatasetNotFound(t *testing.T) {
	svc, _, _ := newTestPipelineService(t)

	_, err := svc.StartRun(context.Background(), "missing.csv", domain.CleaningConfig{})
	assert.ErrorIs(t, err, ErrDatasetNotFound)
}

func TestStartRunExportsArtifacts(t *testing.T) {
	svc, _, paths := newTestPipelineService(t)
	writeDataset(t, paths, "survey.csv", "age,income\n30,5000\n41,6200\n55,4800\n29,5100\n33,5300\n")

	cfg := domain.CleaningConfig{
		Outlier: domain.OutlierConfig{Column: "income", Method: "iqr"},
	}

	summary, err := svc.StartRun(context.Background(), "survey.csv", cfg)
	require.NoError(t, err)
	waitForRun(t, svc, summary.ID)

	// Artifact writes finish with the run goroutine, not the status flip;
	// the run log is written after the cleaned table
	require.Eventually(t, func() bool {
		return config.FileExists(paths.ExportPath(exporter.LogFilename(summary.ID)))
	}, 5*time.Second, 10*time.Millisecond)
	assert.FileExists(t, paths.ExportPath(exporter.CleanedFilename(summary.ID)))
}

func TestGetRunNotFound(t *testing.T) {
	svc, _, _ := newTestPipelineService(t)

	_, err := svc.GetRun(context.Background(), "no-such-run")
	assert.ErrorIs(t, err, ErrRunNotFound)
}

func TestGetRunLog(t *testing.T) {
	svc, _, paths := newTestPipelineService(t)
	writeDataset(t, paths, "survey.csv", "age\n30\n41\n")

	cfg := domain.CleaningConfig{
		Imputation: domain.ImputationConfig{Column: "age", Method: "median"},
	}

	summary, err := svc.StartRun(context.Background(), "survey.csv", cfg)
	require.NoError(t, err)
	waitForRun(t, svc, summary.ID)

	lines, err := svc.GetRunLog(context.Background(), summary.ID)
	require.NoError(t, err)
	require.Len(t, lines, 1)
	assert.Contains(t, lines[0], `Imputation: no missing values to fill in "age" (median)`)
}

func TestListRuns(t *testing.T) {
	svc, _, paths := newTestPipelineService(t)
	writeDataset(t, paths, "survey.csv", "age\n30\n")

	assert.Empty(t, svc.ListRuns(context.Background()))

	summary, err := svc.StartRun(context.Background(), "survey.csv", domain.CleaningConfig{})
	require.NoError(t, err)
	waitForRun(t, svc, summary.ID)

	runs := svc.ListRuns(context.Background())
	require.Len(t, runs, 1)
	assert.Equal(t, summary.ID, runs[0].ID)
}

func TestRunTable(t *testing.T) {
	svc, _, paths := newTestPipelineService(t)
	writeDataset(t, paths, "survey.csv", "age,income\n30,\n41,6200\n")

	cfg := domain.CleaningConfig{
		Imputation: domain.ImputationConfig{Column: "income", Method: "mean"},
	}

	summary, err := svc.StartRun(context.Background(), "survey.csv", cfg)
	require.NoError(t, err)
	waitForRun(t, svc, summary.ID)

	got, state, err := svc.RunTable(context.Background(), summary.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.RunStatusCompleted, got.Status)

	table := state.Table()
	v, ok := table.Cell(0, "income")
	require.True(t, ok)
	assert.Equal(t, "6200.00", v)
}

func TestRunTableNotFound(t *testing.T) {
	svc, _, _ := newTestPipelineService(t)

	_, _, err := svc.RunTable(context.Background(), "no-such-run")
	assert.ErrorIs(t, err, ErrRunNotFound)
}

func TestCancelRunNotRunning(t *testing.T) {
	svc, _, paths := newTestPipelineService(t)
	writeDataset(t, paths, "survey.csv", "age\n30\n")

	summary, err := svc.StartRun(context.Background(), "survey.csv", domain.CleaningConfig{})
	require.NoError(t, err)
	waitForRun(t, svc, summary.ID)

	err = svc.CancelRun(context.Background(), summary.ID)
	assert.ErrorIs(t, err, ErrRunNotRunning)
}

func TestCancelRunNotFound(t *testing.T) {
	svc, _, _ := newTestPipelineService(t)

	err := svc.CancelRun(context.Background(), "no-such-run")
	assert.ErrorIs(t, err, ErrRunNotFound)
}

func TestDeleteRun(t *testing.T) {
	svc, _, paths := newTestPipelineService(t)
	writeDataset(t, paths, "survey.csv", "age\n30\n41\n")

	summary, err := svc.StartRun(context.Background(), "survey.csv", domain.CleaningConfig{})
	require.NoError(t, err)
	waitForRun(t, svc, summary.ID)

	// The run log is the last exports-dir artifact written
	require.Eventually(t, func() bool {
		return config.FileExists(paths.ExportPath(exporter.LogFilename(summary.ID)))
	}, 5*time.Second, 10*time.Millisecond)

	require.NoError(t, svc.DeleteRun(context.Background(), summary.ID))

	_, err = svc.GetRun(context.Background(), summary.ID)
	assert.ErrorIs(t, err, ErrRunNotFound)
	assert.NoFileExists(t, paths.ExportPath(exporter.CleanedFilename(summary.ID)))
	assert.NoFileExists(t, paths.ExportPath(exporter.LogFilename(summary.ID)))
}

func TestDeleteRunNotFound(t *testing.T) {
	svc, _, _ := newTestPipelineService(t)

	err := svc.DeleteRun(context.Background(), "no-such-run")
	assert.ErrorIs(t, err, ErrRunNotFound)
}

func TestCleanupOldRunsKeepsRecent(t *testing.T) {
	svc, _, paths := newTestPipelineService(t)
	writeDataset(t, paths, "survey.csv", "age\n30\n")

	summary, err := svc.StartRun(context.Background(), "survey.csv", domain.CleaningConfig{})
	require.NoError(t, err)
	waitForRun(t, svc, summary.ID)

	assert.Zero(t, svc.CleanupOldRuns(time.Hour))
	assert.Len(t, svc.ListRuns(context.Background()), 1)
}
