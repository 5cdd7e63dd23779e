package ingest

import (
	"encoding/csv"
	"fmt"
	"os"

	"surveyprep/internal/dataset"
)

// ReadCSV loads a CSV file into a table. The first record is the
// header; every later record becomes one row. Records may have varying
// field counts.
func ReadCSV(path string) (dataset.Table, error) {
	file, err := os.Open(path)
	if err != nil {
		return dataset.Table{}, fmt.Errorf("open CSV file: %w", err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1
	records, err := reader.ReadAll()
	if err != nil {
		return dataset.Table{}, fmt.Errorf("read CSV records: %w", err)
	}

	return tableFromRecords(records)
}
