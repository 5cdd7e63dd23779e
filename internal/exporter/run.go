package exporter

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"surveyprep/internal/config"
	"surveyprep/internal/dataset"
	"surveyprep/pkg/contracts/domain"
)

// Artifact filenames for a run, shared by the HTTP service and the CLI
// so both produce identical layouts.

// CleanedFilename returns the cleaned-table artifact name for a run
func CleanedFilename(runID string) string {
	return fmt.Sprintf("run_%s_cleaned.csv", runID)
}

// EstimatesFilename returns the estimate-summary artifact name for a run
func EstimatesFilename(runID string) string {
	return fmt.Sprintf("run_%s_estimates.csv", runID)
}

// LogFilename returns the transformation-log artifact name for a run
func LogFilename(runID string) string {
	return fmt.Sprintf("run_%s_log.txt", runID)
}

// ArtifactPattern returns a glob matching every artifact of a run
func ArtifactPattern(runID string) string {
	return fmt.Sprintf("run_%s_*", runID)
}

// RunExporter writes the artifacts of a preparation run
type RunExporter struct {
	csvWriter *CSVWriter
	paths     *config.Paths
}

// NewRunExporter creates a new run artifact exporter
func NewRunExporter(paths *config.Paths) *RunExporter {
	return &RunExporter{
		csvWriter: NewCSVWriter(paths),
		paths:     paths,
	}
}

// ExportCleanedTable streams the cleaned table to a CSV file. Columns
// appear in table order: original schema first, derived flags after.
func (e *RunExporter) ExportCleanedTable(t dataset.Table, filePath string) error {
	columns := t.Columns()

	stream, err := e.csvWriter.CreateStreamWriter(filePath, columns)
	if err != nil {
		return fmt.Errorf("failed to create stream writer: %w", err)
	}

	record := make([]string, len(columns))
	for i := 0; i < t.Len(); i++ {
		row := t.Row(i)
		for j, col := range columns {
			record[j], _ = row.Value(col)
		}
		if err := stream.WriteRecord(record); err != nil {
			stream.Close()
			return fmt.Errorf("failed to write row %d: %w", i, err)
		}
	}

	return stream.Close()
}

// ExportEstimates writes the estimate summary as CSV, one row per
// estimation mode per analysis variable.
func (e *RunExporter) ExportEstimates(results []domain.EstimateResult, filePath string) error {
	headers := []string{"Variable", "Mode", "Count", "Mean", "MoE", "Total"}

	records := make([][]string, 0, len(results)*2)
	for _, result := range results {
		records = append(records, estimateRow(result.Variable, "unweighted", result.Unweighted))
		records = append(records, estimateRow(result.Variable, "weighted", result.Weighted))
	}

	return e.csvWriter.WriteSimpleCSV(filePath, headers, records)
}

func estimateRow(variable, mode string, stats domain.VariableStats) []string {
	return []string{
		variable,
		mode,
		formatInt(stats.Count),
		formatFloat(stats.Mean),
		formatFloat(stats.MoE),
		formatFloat(stats.Total),
	}
}

// ExportRunLog writes the transformation log as plain text: a short
// header identifying the run, then the already-timestamped log lines.
func (e *RunExporter) ExportRunLog(summary domain.RunSummary, filePath string) error {
	fullPath := filePath
	if !filepath.IsAbs(fullPath) {
		fullPath = e.paths.ExportPath(filePath)
	}

	if err := os.MkdirAll(filepath.Dir(fullPath), 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Run %s on dataset %s (%s)\n", summary.ID, summary.Dataset, summary.Status)
	fmt.Fprintf(&b, "Rows in: %d, rows out: %d, cells imputed: %d, outliers flagged: %d\n",
		summary.RowsIn, summary.RowsOut, summary.Imputed, summary.Outliers)
	b.WriteString("\n")
	for _, line := range summary.Log {
		b.WriteString(line)
		b.WriteString("\n")
	}

	if err := os.WriteFile(fullPath, []byte(b.String()), 0644); err != nil {
		return fmt.Errorf("failed to write run log: %w", err)
	}
	return nil
}
