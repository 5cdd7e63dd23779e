package ingest

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"surveyprep/internal/dataset"
	"surveyprep/pkg/contracts/domain"
)

// Load reads a dataset file into a table, dispatching on the file
// extension.
func Load(ctx context.Context, path string) (dataset.Table, error) {
	logger := slog.Default()

	var (
		table dataset.Table
		err   error
	)
	switch domain.DatasetFormatFor(path) {
	case domain.DatasetFormatCSV:
		table, err = ReadCSV(path)
	case domain.DatasetFormatExcel:
		table, err = ReadExcel(path)
	default:
		return dataset.Table{}, fmt.Errorf("unsupported dataset format: %s", filepath.Base(path))
	}
	if err != nil {
		return dataset.Table{}, err
	}

	logger.InfoContext(ctx, "dataset loaded",
		"file", filepath.Base(path),
		"rows", table.Len(),
		"columns", len(table.SchemaColumns()),
	)
	return table, nil
}

// tableFromRecords assembles a table from raw header+data records.
// Trailing empty header cells are dropped, short rows are padded with
// empty strings, and cells beyond the header width are ignored.
func tableFromRecords(records [][]string) (dataset.Table, error) {
	if len(records) == 0 {
		return dataset.Table{}, fmt.Errorf("file has no rows")
	}

	header := records[0]
	columns := make([]string, len(header))
	for i, h := range header {
		columns[i] = strings.TrimSpace(stripBOM(h))
	}
	for len(columns) > 0 && columns[len(columns)-1] == "" {
		columns = columns[:len(columns)-1]
	}
	if len(columns) == 0 {
		return dataset.Table{}, fmt.Errorf("header row has no column names")
	}

	rows := make([]map[string]string, 0, len(records)-1)
	for _, record := range records[1:] {
		row := make(map[string]string, len(columns))
		for i, col := range columns {
			if i < len(record) {
				row[col] = record[i]
			} else {
				row[col] = ""
			}
		}
		rows = append(rows, row)
	}
	return dataset.New(columns, rows), nil
}

// stripBOM removes a UTF-8 byte order mark. Spreadsheet exports often
// prefix the first header cell with one.
func stripBOM(s string) string {
	return strings.TrimPrefix(s, "\uFEFF")
}
