// Package exporter writes run artifacts to disk: the cleaned table and
// estimate summary as CSV, the transformation log as plain text.
//
// CSVWriter is the low-level writer (BOM handling, append mode, a
// streaming variant for large tables). RunExporter sits on top and knows
// the artifact naming scheme, so the HTTP service and the CLI produce
// identical files for a given run.
package exporter
