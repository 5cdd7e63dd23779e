package http

import (
	"context"
	"io"

	"surveyprep/pkg/contracts/domain"
)

// DataServiceInterface defines the interface for dataset operations
type DataServiceInterface interface {
	ListDatasets(ctx context.Context) ([]domain.DatasetInfo, error)
	GetPreview(ctx context.Context, name string, limit int) (domain.DatasetPreview, error)
	SaveDataset(ctx context.Context, name string, src io.Reader) (domain.DatasetInfo, error)
	DeleteDataset(ctx context.Context, name string) error
}
