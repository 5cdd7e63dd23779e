package http

import (
	"context"

	"surveyprep/internal/pipeline"
	"surveyprep/pkg/contracts/domain"
)

// PipelineServiceInterface defines the interface for preparation runs
type PipelineServiceInterface interface {
	StartRun(ctx context.Context, datasetName string, cfg domain.CleaningConfig) (domain.RunSummary, error)
	GetRun(ctx context.Context, id string) (domain.RunSummary, error)
	ListRuns(ctx context.Context) []domain.RunSummary
	GetRunLog(ctx context.Context, id string) ([]string, error)
	RunTable(ctx context.Context, id string) (domain.RunSummary, *pipeline.RunState, error)
	CancelRun(ctx context.Context, id string) error
	DeleteRun(ctx context.Context, id string) error
}
