package ingest

import (
	"fmt"

	"github.com/xuri/excelize/v2"

	"surveyprep/internal/dataset"
)

// ReadExcel loads an .xlsx workbook into a table. The first sheet that
// contains any rows is used; its first row is the header.
func ReadExcel(path string) (dataset.Table, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return dataset.Table{}, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()

	for _, name := range f.GetSheetList() {
		rows, err := f.GetRows(name)
		if err != nil || len(rows) == 0 {
			continue
		}
		return tableFromRecords(rows)
	}
	return dataset.Table{}, fmt.Errorf("workbook has no data sheets")
}
