package exporter

import (
	"strconv"
)

// formatFloat formats a float64 value for CSV output with exactly 2
// decimal places, matching the rendering the imputer writes into cells.
// This ensures values like 13.4 appear as 13.40 in CSV.
func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', 2, 64)
}

// formatInt formats an int value for CSV output
func formatInt(i int) string {
	return strconv.Itoa(i)
}
