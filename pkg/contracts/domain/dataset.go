package domain

import (
	"strings"
	"time"
)

// DatasetFormat identifies the on-disk format of an uploaded dataset.
type DatasetFormat string

const (
	DatasetFormatCSV   DatasetFormat = "csv"
	DatasetFormatExcel DatasetFormat = "xlsx"
)

// DatasetFormatFor maps a file name to its dataset format; empty when the
// extension is not a supported dataset type.
func DatasetFormatFor(name string) DatasetFormat {
	switch {
	case strings.HasSuffix(strings.ToLower(name), ".csv"):
		return DatasetFormatCSV
	case strings.HasSuffix(strings.ToLower(name), ".xlsx"):
		return DatasetFormatExcel
	default:
		return ""
	}
}

// DatasetInfo describes one uploadable data file in the data directory.
type DatasetInfo struct {
	Name      string        `json:"name"`
	Format    DatasetFormat `json:"format"`
	SizeBytes int64         `json:"size_bytes"`
	Modified  time.Time     `json:"modified"`
}

// DatasetPreview is the re-display shape of a loaded table: the ordered
// column list (original schema plus any derived flag columns) and a bounded
// slice of rows as name→string mappings.
type DatasetPreview struct {
	Name      string              `json:"name"`
	Columns   []string            `json:"columns"`
	Rows      []map[string]string `json:"rows"`
	RowCount  int                 `json:"row_count"`
	Truncated bool                `json:"truncated"`
}
