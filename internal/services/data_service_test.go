package services

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"surveyprep/internal/config"
	"surveyprep/pkg/contracts/domain"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelError,
	}))
}

func newTestDataService(t *testing.T) (*DataService, *config.Paths) {
	t.Helper()

	paths := config.NewPaths(t.TempDir())
	require.NoError(t, paths.EnsureDirectories())

	return NewDataService(paths, testLogger()), paths
}

func writeDataset(t *testing.T, paths *config.Paths, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(paths.DatasetPath(name), []byte(content), 0o644))
}

func TestListDatasetsEmpty(t *testing.T) {
	svc, _ := newTestDataService(t)

	infos, err := svc.ListDatasets(context.Background())
	require.NoError(t, err)
	assert.Empty(t, infos)
}

func TestListDatasetsMissingDirIsEmpty(t *testing.T) {
	paths := config.NewPaths(filepath.Join(t.TempDir(), "nonexistent"))
	svc := NewDataService(paths, testLogger())

	infos, err := svc.ListDatasets(context.Background())
	require.NoError(t, err)
	assert.Empty(t, infos)
}

func TestListDatasets(t *testing.T) {
	svc, paths := newTestDataService(t)

	writeDataset(t, paths, "survey.csv", "age,income\n30,5000\n")
	writeDataset(t, paths, "wave2.xlsx", "placeholder")
	writeDataset(t, paths, "legacy.xls", "placeholder")
	writeDataset(t, paths, "notes.txt", "not a dataset")

	infos, err := svc.ListDatasets(context.Background())
	require.NoError(t, err)

	// legacy.xls is discovered but not loadable, notes.txt not discovered
	require.Len(t, infos, 2)
	assert.Equal(t, "survey.csv", infos[0].Name)
	assert.Equal(t, domain.DatasetFormatCSV, infos[0].Format)
	assert.Greater(t, infos[0].SizeBytes, int64(0))
	assert.Equal(t, "wave2.xlsx", infos[1].Name)
	assert.Equal(t, domain.DatasetFormatExcel, infos[1].Format)
}

func TestGetPreview(t *testing.T) {
	svc, paths := newTestDataService(t)
	writeDataset(t, paths, "survey.csv", "age,income\n30,5000\n41,6200\n55,4800\n29,5100\n")

	preview, err := svc.GetPreview(context.Background(), "survey.csv", 2)
	require.NoError(t, err)

	assert.Equal(t, "survey.csv", preview.Name)
	assert.Equal(t, []string{"age", "income"}, preview.Columns)
	require.Len(t, preview.Rows, 2)
	assert.Equal(t, "30", preview.Rows[0]["age"])
	assert.Equal(t, "6200", preview.Rows[1]["income"])
	assert.Equal(t, 4, preview.RowCount)
	assert.True(t, preview.Truncated)
}

func TestGetPreviewDefaultLimit(t *testing.T) {
	svc, paths := newTestDataService(t)
	writeDataset(t, paths, "survey.csv", "age\n30\n41\n")

	preview, err := svc.GetPreview(context.Background(), "survey.csv", 0)
	require.NoError(t, err)

	require.Len(t, preview.Rows, 2)
	assert.False(t, preview.Truncated)
}

func TestGetPreviewNotFound(t *testing.T) {
	svc, _ := newTestDataService(t)

	_, err := svc.GetPreview(context.Background(), "missing.csv", 10)
	assert.ErrorIs(t, err, ErrDatasetNotFound)
}

func TestGetPreviewUnsupportedFormat(t *testing.T) {
	svc, paths := newTestDataService(t)
	writeDataset(t, paths, "legacy.xls", "placeholder")

	_, err := svc.GetPreview(context.Background(), "legacy.xls", 10)
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
}

func TestSaveDataset(t *testing.T) {
	svc, paths := newTestDataService(t)

	info, err := svc.SaveDataset(context.Background(), "upload.csv", strings.NewReader("a,b\n1,2\n"))
	require.NoError(t, err)

	assert.Equal(t, "upload.csv", info.Name)
	assert.Equal(t, domain.DatasetFormatCSV, info.Format)
	assert.Equal(t, int64(8), info.SizeBytes)
	assert.FileExists(t, paths.DatasetPath("upload.csv"))
}

func TestSaveDatasetEmpty(t *testing.T) {
	svc, paths := newTestDataService(t)

	_, err := svc.SaveDataset(context.Background(), "upload.csv", strings.NewReader(""))
	assert.ErrorIs(t, err, ErrEmptyUpload)
	assert.NoFileExists(t, paths.DatasetPath("upload.csv"))
}

func TestSaveDatasetInvalidName(t *testing.T) {
	svc, _ := newTestDataService(t)

	_, err := svc.SaveDataset(context.Background(), "../escape.csv", strings.NewReader("a\n1\n"))
	assert.ErrorIs(t, err, ErrInvalidDatasetName)
}

func TestSaveDatasetUnsupportedFormat(t *testing.T) {
	svc, _ := newTestDataService(t)

	_, err := svc.SaveDataset(context.Background(), "upload.txt", strings.NewReader("a\n1\n"))
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
}

func TestDeleteDataset(t *testing.T) {
	svc, paths := newTestDataService(t)
	writeDataset(t, paths, "survey.csv", "a\n1\n")

	require.NoError(t, svc.DeleteDataset(context.Background(), "survey.csv"))
	assert.NoFileExists(t, paths.DatasetPath("survey.csv"))
}

func TestDeleteDatasetNotFound(t *testing.T) {
	svc, _ := newTestDataService(t)

	err := svc.DeleteDataset(context.Background(), "missing.csv")
	assert.ErrorIs(t, err, ErrDatasetNotFound)
}

func TestLoadTable(t *testing.T) {
	svc, paths := newTestDataService(t)
	writeDataset(t, paths, "survey.csv", "age,income\n30,5000\n41,6200\n")

	table, err := svc.LoadTable(context.Background(), "survey.csv")
	require.NoError(t, err)

	assert.Equal(t, 2, table.Len())
	assert.Equal(t, []string{"age", "income"}, table.Columns())
}
