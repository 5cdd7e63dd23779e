package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"surveyprep/internal/config"
	"surveyprep/internal/dataset"
	"surveyprep/internal/estimator"
	"surveyprep/internal/exporter"
	"surveyprep/internal/infrastructure"
	"surveyprep/internal/report"
	v1 "surveyprep/pkg/contracts/api/v1"
	"surveyprep/pkg/contracts/domain"
)

// EstimateService computes survey estimates over prepared or raw tables
// and writes estimate artifacts for completed runs.
type EstimateService struct {
	data      *DataService
	pipeline  *PipelineService
	estimator *estimator.Estimator
	exporter  *exporter.RunExporter
	reports   *report.Generator
	metrics   *infrastructure.PipelineMetrics
	logger    *slog.Logger
}

// NewEstimateService creates an estimate service.
func NewEstimateService(paths *config.Paths, data *DataService, pipeline *PipelineService, metrics *infrastructure.PipelineMetrics, logger *slog.Logger) *EstimateService {
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With(slog.String("service", "estimate"))

	return &EstimateService{
		data:      data,
		pipeline:  pipeline,
		estimator: estimator.New(logger),
		exporter:  exporter.NewRunExporter(paths),
		reports:   report.NewGenerator(paths, logger),
		metrics:   metrics,
		logger:    logger,
	}
}

// ExportArtifacts lists the files written by an estimate export.
type ExportArtifacts struct {
	Estimates string `json:"estimates"`
	Charts    string `json:"charts,omitempty"`
}

// Estimate resolves the source table named by the request and computes
// estimates for every mapped analysis variable. Exactly one of RunID
// (the cleaned table of a completed run) and Dataset (a raw file,
// estimated as-is) must be set.
func (es *EstimateService) Estimate(ctx context.Context, req v1.EstimateRequest) ([]domain.EstimateResult, error) {
	started := time.Now()

	mode, table, err := es.resolveTable(ctx, req.RunID, req.Dataset)
	if err != nil {
		infrastructure.RecordEstimateMetrics(ctx, es.metrics, mode, time.Since(started), false)
		return nil, err
	}

	results, err := es.estimateTable(ctx, table, req.Mapping)
	infrastructure.RecordEstimateMetrics(ctx, es.metrics, mode, time.Since(started), err == nil)
	if err != nil {
		return nil, err
	}

	es.logger.InfoContext(ctx, "estimates computed",
		slog.String("mode", mode),
		slog.String("run_id", req.RunID),
		slog.String("dataset", req.Dataset),
		slog.Int("variables", len(results)),
		slog.Duration("duration", time.Since(started)))
	return results, nil
}

// Export computes estimates over a completed run's cleaned table and
// writes the estimate summary CSV, plus the chart page when requested.
func (es *EstimateService) Export(ctx context.Context, req v1.ExportRequest) (ExportArtifacts, error) {
	_, state, err := es.pipeline.RunTable(ctx, req.RunID)
	if err != nil {
		return ExportArtifacts{}, err
	}
	table := state.Table()

	results, err := es.estimateTable(ctx, table, req.Mapping)
	if err != nil {
		return ExportArtifacts{}, err
	}

	artifacts := ExportArtifacts{Estimates: exporter.EstimatesFilename(req.RunID)}
	if err := es.exporter.ExportEstimates(results, artifacts.Estimates); err != nil {
		return ExportArtifacts{}, fmt.Errorf("failed to export estimates for run %q: %w", req.RunID, err)
	}

	if req.Charts {
		chartPath, err := es.reports.WriteRunCharts(table, req.Mapping.AnalysisVariables(), req.RunID)
		if err != nil {
			return ExportArtifacts{}, fmt.Errorf("failed to write charts for run %q: %w", req.RunID, err)
		}
		artifacts.Charts = chartPath
	}

	es.logger.InfoContext(ctx, "estimate artifacts exported",
		slog.String("run_id", req.RunID),
		slog.String("estimates", artifacts.Estimates),
		slog.Bool("charts", req.Charts))
	return artifacts, nil
}

// resolveTable loads the table an estimate request points at and names
// the estimation mode for metrics.
func (es *EstimateService) resolveTable(ctx context.Context, runID, datasetName string) (string, dataset.Table, error) {
	switch {
	case runID != "" && datasetName != "":
		return "run", dataset.Table{}, fmt.Errorf("%w: run_id and dataset are mutually exclusive", ErrNoEstimateSource)
	case runID != "":
		_, state, err := es.pipeline.RunTable(ctx, runID)
		if err != nil {
			return "run", dataset.Table{}, err
		}
		return "run", state.Table(), nil
	case datasetName != "":
		table, err := es.data.LoadTable(ctx, datasetName)
		if err != nil {
			return "dataset", dataset.Table{}, err
		}
		return "dataset", table, nil
	default:
		return "none", dataset.Table{}, fmt.Errorf("%w: provide run_id or dataset", ErrNoEstimateSource)
	}
}

// estimateTable validates the mapping, then computes the mapped analysis
// variables concurrently. The group shares the request context, so
// cancelling the request abandons both variables together. Results keep
// mapping order regardless of completion order.
func (es *EstimateService) estimateTable(ctx context.Context, table dataset.Table, mapping domain.SchemaMapping) ([]domain.EstimateResult, error) {
	if err := estimator.ValidateMapping(mapping); err != nil {
		return nil, err
	}

	variables := mapping.AnalysisVariables()
	results := make([]domain.EstimateResult, len(variables))

	g, gctx := errgroup.WithContext(ctx)
	for i, variable := range variables {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			results[i] = es.estimator.Estimate(gctx, table, variable, mapping.Weight)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("estimation aborted: %w", err)
	}
	return results, nil
}
