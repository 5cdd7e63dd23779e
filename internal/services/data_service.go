package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"surveyprep/internal/config"
	"surveyprep/internal/dataset"
	"surveyprep/internal/files"
	"surveyprep/internal/ingest"
	"surveyprep/pkg/contracts/domain"
)

// DefaultPreviewRows bounds dataset previews when the caller does not
// ask for a specific row count.
const DefaultPreviewRows = 20

// DataService provides dataset access: listing, preview, upload and
// removal of the files under the data directory.
type DataService struct {
	paths     *config.Paths
	manager   *files.Manager
	discovery *files.Discovery
	logger    *slog.Logger
}

// NewDataService creates a data service rooted at the configured data
// directory.
func NewDataService(paths *config.Paths, logger *slog.Logger) *DataService {
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With(slog.String("component", "data_service"))

	logger.Info("DataService initialized with paths",
		slog.String("data_dir", paths.DataDir),
		slog.String("exports_dir", paths.ExportsDir))

	return &DataService{
		paths:     paths,
		manager:   files.NewManager(paths),
		discovery: files.NewDiscovery(paths.DataDir),
		logger:    logger,
	}
}

// ListDatasets returns the loadable datasets in the data directory,
// sorted by name. A missing data directory is an empty listing, not an
// error.
func (ds *DataService) ListDatasets(ctx context.Context) ([]domain.DatasetInfo, error) {
	found, err := ds.discovery.FindDatasetFiles(ds.paths.DataDir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return []domain.DatasetInfo{}, nil
		}
		return nil, fmt.Errorf("failed to list datasets: %w", err)
	}

	infos := make([]domain.DatasetInfo, 0, len(found))
	for _, f := range found {
		format := domain.DatasetFormatFor(f.Name)
		if format == "" {
			// Discovered but not loadable (legacy .xls)
			continue
		}
		infos = append(infos, domain.DatasetInfo{
			Name:      f.Name,
			Format:    format,
			SizeBytes: f.Size,
			Modified:  f.ModTime,
		})
	}

	ds.logger.DebugContext(ctx, "listed datasets", slog.Int("count", len(infos)))
	return infos, nil
}

// GetPreview loads a dataset and returns its columns plus the first
// limit rows. A non-positive limit falls back to DefaultPreviewRows.
func (ds *DataService) GetPreview(ctx context.Context, name string, limit int) (domain.DatasetPreview, error) {
	if limit <= 0 {
		limit = DefaultPreviewRows
	}

	t, err := ds.LoadTable(ctx, name)
	if err != nil {
		return domain.DatasetPreview{}, err
	}

	columns := t.Columns()
	shown := t.Len()
	if shown > limit {
		shown = limit
	}

	rows := make([]map[string]string, shown)
	for i := 0; i < shown; i++ {
		row := make(map[string]string, len(columns))
		for _, col := range columns {
			value, _ := t.Cell(i, col)
			row[col] = value
		}
		rows[i] = row
	}

	return domain.DatasetPreview{
		Name:      name,
		Columns:   columns,
		Rows:      rows,
		RowCount:  t.Len(),
		Truncated: t.Len() > shown,
	}, nil
}

// LoadTable reads a named dataset into a table.
func (ds *DataService) LoadTable(ctx context.Context, name string) (dataset.Table, error) {
	path, err := ds.datasetPath(name)
	if err != nil {
		return dataset.Table{}, err
	}

	t, err := ingest.Load(ctx, path)
	if err != nil {
		return dataset.Table{}, fmt.Errorf("failed to load dataset %q: %w", name, err)
	}
	return t, nil
}

// SaveDataset stores an uploaded dataset and returns its listing entry.
func (ds *DataService) SaveDataset(ctx context.Context, name string, src io.Reader) (domain.DatasetInfo, error) {
	if err := files.ValidateDatasetName(name); err != nil {
		return domain.DatasetInfo{}, fmt.Errorf("%w: %s", ErrInvalidDatasetName, err)
	}

	format := domain.DatasetFormatFor(name)
	if format == "" {
		return domain.DatasetInfo{}, fmt.Errorf("%w: %s", ErrUnsupportedFormat, name)
	}

	written, err := ds.manager.SaveUpload(name, src)
	if err != nil {
		return domain.DatasetInfo{}, fmt.Errorf("failed to save dataset %q: %w", name, err)
	}
	if written == 0 {
		if err := ds.manager.DeleteDataset(name); err != nil {
			ds.logger.WarnContext(ctx, "failed to remove empty upload",
				slog.String("dataset", name),
				slog.String("error", err.Error()))
		}
		return domain.DatasetInfo{}, fmt.Errorf("%w: %s", ErrEmptyUpload, name)
	}

	info, err := os.Stat(ds.paths.DatasetPath(name))
	if err != nil {
		return domain.DatasetInfo{}, fmt.Errorf("failed to stat saved dataset: %w", err)
	}

	ds.logger.InfoContext(ctx, "dataset uploaded",
		slog.String("dataset", name),
		slog.Int64("size_bytes", written))

	return domain.DatasetInfo{
		Name:      name,
		Format:    format,
		SizeBytes: info.Size(),
		Modified:  info.ModTime(),
	}, nil
}

// DeleteDataset removes a dataset file.
func (ds *DataService) DeleteDataset(ctx context.Context, name string) error {
	if err := files.ValidateDatasetName(name); err != nil {
		return fmt.Errorf("%w: %s", ErrInvalidDatasetName, err)
	}

	if err := ds.manager.DeleteDataset(name); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("%w: %s", ErrDatasetNotFound, name)
		}
		return fmt.Errorf("failed to delete dataset %q: %w", name, err)
	}

	ds.logger.InfoContext(ctx, "dataset deleted", slog.String("dataset", name))
	return nil
}

// datasetPath resolves and checks a dataset name, mapping validation
// and existence failures onto the service sentinels.
func (ds *DataService) datasetPath(name string) (string, error) {
	if err := files.ValidateDatasetName(name); err != nil {
		return "", fmt.Errorf("%w: %s", ErrInvalidDatasetName, err)
	}

	if domain.DatasetFormatFor(name) == "" {
		return "", fmt.Errorf("%w: %s", ErrUnsupportedFormat, name)
	}

	path := ds.paths.DatasetPath(name)
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", fmt.Errorf("%w: %s", ErrDatasetNotFound, name)
		}
		return "", fmt.Errorf("failed to stat dataset %q: %w", name, err)
	}
	return path, nil
}
