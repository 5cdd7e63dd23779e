package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"sync"
	"time"

	"surveyprep/internal/config"
	"surveyprep/internal/exporter"
	"surveyprep/internal/files"
	"surveyprep/internal/infrastructure"
	"surveyprep/internal/pipeline"
	"surveyprep/internal/report"
	"surveyprep/pkg/contracts/domain"
)

// PipelineService starts preparation runs over uploaded datasets and
// tracks their lifecycle. A run is registered before its id is handed
// back, then executes in the background; completed runs stay in memory
// so their cleaned tables can feed estimation and export.
type PipelineService struct {
	paths     *config.Paths
	data      *DataService
	manager   *pipeline.Manager
	exporter  *exporter.RunExporter
	reports   *report.Generator
	discovery *files.Discovery
	metrics   *infrastructure.PipelineMetrics
	logger    *slog.Logger

	mu      sync.Mutex
	cancels map[string]context.CancelFunc
	wg      sync.WaitGroup
}

// NewPipelineService creates a pipeline service. The hub may be nil for
// callers that do not push live updates; metrics may be nil when
// observability is disabled.
func NewPipelineService(paths *config.Paths, data *DataService, hub pipeline.WebSocketHub, metrics *infrastructure.PipelineMetrics, logger *slog.Logger) *PipelineService {
	if logger == nil {
		logger = slog.Default()
	}

	return &PipelineService{
		paths:     paths,
		data:      data,
		manager:   pipeline.NewManager(hub, logger),
		exporter:  exporter.NewRunExporter(paths),
		reports:   report.NewGenerator(paths, logger),
		discovery: files.NewDiscovery(paths.ExportsDir),
		metrics:   metrics,
		logger:    logger.With(slog.String("component", "pipeline_service")),
		cancels:   make(map[string]context.CancelFunc),
	}
}

// StartRun loads a dataset, registers a run over it and launches the
// pipeline in the background. The returned summary is the pending
// snapshot; progress arrives over the WebSocket hub and through GetRun.
func (ps *PipelineService) StartRun(ctx context.Context, datasetName string, cfg domain.CleaningConfig) (domain.RunSummary, error) {
	t, err := ps.data.LoadTable(ctx, datasetName)
	if err != nil {
		return domain.RunSummary{}, err
	}

	state, err := ps.manager.Prepare(pipeline.Request{
		Dataset: datasetName,
		Table:   t,
		Config:  cfg,
	})
	if err != nil {
		return domain.RunSummary{}, fmt.Errorf("failed to prepare run: %w", err)
	}

	// The run outlives the request, so it gets its own context.
	runCtx, cancel := context.WithCancel(context.Background())
	ps.mu.Lock()
	ps.cancels[state.ID] = cancel
	ps.mu.Unlock()

	infrastructure.RecordActiveRunChange(runCtx, ps.metrics, 1, datasetName)

	ps.wg.Add(1)
	go ps.executeRun(runCtx, cancel, state)

	ps.logger.InfoContext(ctx, "run accepted",
		slog.String("run_id", state.ID),
		slog.String("dataset", datasetName),
		slog.Int("rows", t.Len()))

	return state.Summary(), nil
}

// executeRun drives one background run to completion and exports its
// artifacts on success.
func (ps *PipelineService) executeRun(ctx context.Context, cancel context.CancelFunc, state *pipeline.RunState) {
	defer ps.wg.Done()

	start := time.Now()
	result, err := ps.manager.ExecutePrepared(ctx, state)

	ps.mu.Lock()
	delete(ps.cancels, state.ID)
	ps.mu.Unlock()
	cancel()

	infrastructure.RecordActiveRunChange(ctx, ps.metrics, -1, state.Dataset)
	infrastructure.RecordRunMetrics(ctx, ps.metrics, state.ID, state.Dataset, time.Since(start), err == nil, err)

	if err != nil {
		// Failure and cancellation are already logged and broadcast by
		// the manager; a terminal run without artifacts is the outcome.
		return
	}

	summary := result.Summary
	infrastructure.RecordRunVolume(ctx, ps.metrics, summary.Dataset,
		int64(summary.RowsIn), int64(summary.Imputed), int64(summary.Outliers),
		int64(summary.RowsIn-summary.RowsOut))

	ps.exportArtifacts(ctx, result)
}

// exportArtifacts writes the cleaned table, run log and charts for a
// completed run. Export failures do not fail the run; the table is
// still retrievable from memory.
func (ps *PipelineService) exportArtifacts(ctx context.Context, result *pipeline.Result) {
	summary := result.Summary

	if err := ps.exporter.ExportCleanedTable(result.Table, exporter.CleanedFilename(summary.ID)); err != nil {
		ps.logger.ErrorContext(ctx, "failed to export cleaned table",
			slog.String("run_id", summary.ID),
			slog.String("error", err.Error()))
	}

	if err := ps.exporter.ExportRunLog(summary, exporter.LogFilename(summary.ID)); err != nil {
		ps.logger.ErrorContext(ctx, "failed to export run log",
			slog.String("run_id", summary.ID),
			slog.String("error", err.Error()))
	}

	if _, err := ps.reports.WriteRunCharts(result.Table, chartVariables(summary.Config), summary.ID); err != nil {
		ps.logger.ErrorContext(ctx, "failed to write run charts",
			slog.String("run_id", summary.ID),
			slog.String("error", err.Error()))
	}

	ps.logger.InfoContext(ctx, "run artifacts exported",
		slog.String("run_id", summary.ID),
		slog.String("exports_dir", ps.paths.ExportsDir))
}

// chartVariables picks the columns worth charting for a run: the imputed
// column and the outlier-scanned column, deduplicated.
func chartVariables(cfg domain.CleaningConfig) []string {
	variables := make([]string, 0, 2)
	seen := make(map[string]bool, 2)
	for _, column := range []string{cfg.Imputation.Column, cfg.Outlier.Column} {
		column = strings.TrimSpace(column)
		if column == "" || seen[column] {
			continue
		}
		seen[column] = true
		variables = append(variables, column)
	}
	return variables
}

// GetRun returns the current summary of a run.
func (ps *PipelineService) GetRun(ctx context.Context, id string) (domain.RunSummary, error) {
	summary, err := ps.manager.GetRun(id)
	if err != nil {
		if errors.Is(err, pipeline.ErrRunNotFound) {
			return domain.RunSummary{}, fmt.Errorf("%w: %s", ErrRunNotFound, id)
		}
		return domain.RunSummary{}, fmt.Errorf("failed to get run %q: %w", id, err)
	}
	return summary, nil
}

// ListRuns returns summaries for all known runs, newest first.
func (ps *PipelineService) ListRuns(ctx context.Context) []domain.RunSummary {
	return ps.manager.ListRuns()
}

// GetRunLog returns the timestamped transformation log of a run.
func (ps *PipelineService) GetRunLog(ctx context.Context, id string) ([]string, error) {
	summary, err := ps.GetRun(ctx, id)
	if err != nil {
		return nil, err
	}
	return summary.Log, nil
}

// RunTable returns the cleaned table of a successfully completed run.
func (ps *PipelineService) RunTable(ctx context.Context, id string) (domain.RunSummary, *pipeline.RunState, error) {
	state, err := ps.manager.Run(id)
	if err != nil {
		if errors.Is(err, pipeline.ErrRunNotFound) {
			return domain.RunSummary{}, nil, fmt.Errorf("%w: %s", ErrRunNotFound, id)
		}
		return domain.RunSummary{}, nil, fmt.Errorf("failed to get run %q: %w", id, err)
	}
	if state.CurrentStatus() != domain.RunStatusCompleted {
		return domain.RunSummary{}, nil, fmt.Errorf("%w: %s", ErrRunNotComplete, id)
	}
	return state.Summary(), state, nil
}

// CancelRun requests cancellation of a running run. The run reaches its
// cancelled status at the next step boundary.
func (ps *PipelineService) CancelRun(ctx context.Context, id string) error {
	state, err := ps.manager.Run(id)
	if err != nil {
		if errors.Is(err, pipeline.ErrRunNotFound) {
			return fmt.Errorf("%w: %s", ErrRunNotFound, id)
		}
		return fmt.Errorf("failed to get run %q: %w", id, err)
	}

	ps.mu.Lock()
	cancel, ok := ps.cancels[id]
	ps.mu.Unlock()
	if !ok {
		return fmt.Errorf("%w: %s", ErrRunNotRunning, id)
	}

	cancel()
	infrastructure.RecordRunCancellation(ctx, ps.metrics, id, state.Dataset, "user request")
	ps.logger.InfoContext(ctx, "run cancellation requested", slog.String("run_id", id))
	return nil
}

// DeleteRun removes a terminal run from the registry together with its
// exported artifacts. Running runs must be cancelled first.
func (ps *PipelineService) DeleteRun(ctx context.Context, id string) error {
	state, err := ps.manager.Run(id)
	if err != nil {
		if errors.Is(err, pipeline.ErrRunNotFound) {
			return fmt.Errorf("%w: %s", ErrRunNotFound, id)
		}
		return fmt.Errorf("failed to get run %q: %w", id, err)
	}
	if !state.IsComplete() {
		return fmt.Errorf("%w: %s", ErrRunNotComplete, id)
	}

	ps.removeArtifacts(ctx, id)

	if err := ps.manager.RemoveRun(id); err != nil {
		if errors.Is(err, pipeline.ErrRunNotFound) {
			return fmt.Errorf("%w: %s", ErrRunNotFound, id)
		}
		return fmt.Errorf("failed to remove run %q: %w", id, err)
	}

	ps.logger.InfoContext(ctx, "run deleted", slog.String("run_id", id))
	return nil
}

// removeArtifacts deletes every exported file of a run from the exports
// and charts directories. Removal failures are logged, not returned.
func (ps *PipelineService) removeArtifacts(ctx context.Context, id string) {
	pattern := exporter.ArtifactPattern(id)
	for _, dir := range []string{ps.paths.ExportsDir, ps.paths.ChartsDir} {
		found, err := ps.discovery.FindFilesByPattern(dir, pattern)
		if err != nil {
			ps.logger.WarnContext(ctx, "failed to scan run artifacts",
				slog.String("run_id", id),
				slog.String("dir", dir),
				slog.String("error", err.Error()))
			continue
		}
		for _, artifact := range found {
			if err := os.Remove(artifact.Path); err != nil {
				ps.logger.WarnContext(ctx, "failed to remove run artifact",
					slog.String("run_id", id),
					slog.String("path", artifact.Path),
					slog.String("error", err.Error()))
			}
		}
	}
}

// CleanupOldRuns removes terminal runs that finished before maxAge ago.
func (ps *PipelineService) CleanupOldRuns(maxAge time.Duration) int {
	return ps.manager.CleanupOldRuns(maxAge)
}

// Stop cancels every in-flight run and waits for their goroutines, then
// shuts down the status broadcaster.
func (ps *PipelineService) Stop() {
	ps.mu.Lock()
	for id, cancel := range ps.cancels {
		ps.logger.Info("cancelling run for shutdown", slog.String("run_id", id))
		cancel()
	}
	ps.mu.Unlock()

	ps.wg.Wait()
	ps.manager.Stop()
}
