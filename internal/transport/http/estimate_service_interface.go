package http

import (
	"context"

	"surveyprep/internal/services"
	v1 "surveyprep/pkg/contracts/api/v1"
	"surveyprep/pkg/contracts/domain"
)

// EstimateServiceInterface defines the interface for estimation over
// raw datasets and completed runs
type EstimateServiceInterface interface {
	Estimate(ctx context.Context, req v1.EstimateRequest) ([]domain.EstimateResult, error)
	Export(ctx context.Context, req v1.ExportRequest) (services.ExportArtifacts, error)
}
