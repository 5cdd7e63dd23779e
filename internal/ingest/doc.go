// Package ingest loads uploaded survey files into in-memory tables.
//
// Two formats are supported: CSV and Excel (.xlsx). Both readers treat
// the first non-empty row as the header and every following row as
// data. Short rows are padded with empty cells, long rows are truncated
// to the header width, and all cell values stay strings; numeric
// interpretation happens downstream on demand.
package ingest
