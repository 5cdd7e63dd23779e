package ingest

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func writeCSV(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestReadCSV(t *testing.T) {
	path := writeCSV(t, "survey.csv", "id,age,income\n1,34,1200\n2,,850\n3,forty,\n")

	table, err := ReadCSV(path)
	require.NoError(t, err)

	assert.Equal(t, []string{"id", "age", "income"}, table.Columns())
	require.Equal(t, 3, table.Len())

	v, _ := table.Cell(0, "age")
	assert.Equal(t, "34", v)
	v, _ = table.Cell(1, "age")
	assert.Empty(t, v)
	v, _ = table.Cell(2, "age")
	assert.Equal(t, "forty", v, "non-numeric text is preserved verbatim")
}

func TestReadCSVRaggedRows(t *testing.T) {
	path := writeCSV(t, "ragged.csv", "id,age\n1,30,extra\n2\n")

	table, err := ReadCSV(path)
	require.NoError(t, err)

	require.Equal(t, 2, table.Len())
	v, _ := table.Cell(0, "age")
	assert.Equal(t, "30", v, "cells beyond the header are dropped")
	v, _ = table.Cell(1, "age")
	assert.Empty(t, v, "short rows are padded with empty cells")
}

func TestReadCSVHeaderBOM(t *testing.T) {
	path := writeCSV(t, "bom.csv", "\uFEFFid,age\n1,30\n")

	table, err := ReadCSV(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"id", "age"}, table.Columns())
}

func TestReadCSVHeaderOnly(t *testing.T) {
	path := writeCSV(t, "empty.csv", "id,age\n")

	table, err := ReadCSV(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"id", "age"}, table.Columns())
	assert.Zero(t, table.Len())
}

func TestReadCSVEmptyFile(t *testing.T) {
	path := writeCSV(t, "nothing.csv", "")

	_, err := ReadCSV(path)
	assert.Error(t, err)
}

func TestReadCSVMissingFile(t *testing.T) {
	_, err := ReadCSV(filepath.Join(t.TempDir(), "missing.csv"))
	assert.Error(t, err)
}

func writeWorkbook(t *testing.T, rows [][]interface{}) string {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()
	for i, row := range rows {
		for j, cell := range row {
			ref, err := excelize.CoordinatesToCellName(j+1, i+1)
			require.NoError(t, err)
			require.NoError(t, f.SetCellValue("Sheet1", ref, cell))
		}
	}
	path := filepath.Join(t.TempDir(), "survey.xlsx")
	require.NoError(t, f.SaveAs(path))
	return path
}

func TestReadExcel(t *testing.T) {
	path := writeWorkbook(t, [][]interface{}{
		{"id", "age", "income"},
		{1, 34, 1200},
		{2, "", 850},
	})

	table, err := ReadExcel(path)
	require.NoError(t, err)

	assert.Equal(t, []string{"id", "age", "income"}, table.Columns())
	require.Equal(t, 2, table.Len())
	v, _ := table.Cell(0, "age")
	assert.Equal(t, "34", v)
}

func TestReadExcelMissingFile(t *testing.T) {
	_, err := ReadExcel(filepath.Join(t.TempDir(), "missing.xlsx"))
	assert.Error(t, err)
}

func TestLoadDispatchesOnExtension(t *testing.T) {
	csvPath := writeCSV(t, "survey.csv", "id\n1\n")

	table, err := Load(context.Background(), csvPath)
	require.NoError(t, err)
	assert.Equal(t, 1, table.Len())

	_, err = Load(context.Background(), filepath.Join(t.TempDir(), "report.pdf"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported dataset format")
}

func TestTableFromRecordsDropsTrailingEmptyHeaders(t *testing.T) {
	table, err := tableFromRecords([][]string{
		{"id", "age", "", ""},
		{"1", "30", "x", "y"},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"id", "age"}, table.Columns())
}
