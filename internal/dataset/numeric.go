package dataset

import (
	"math"
	"strconv"
	"strings"
)

// ParseNumeric coerces a raw cell value to a finite numeric value. The
// second return reports presence: false means the cell is absent for
// numeric purposes. Only a full-string parse is accepted - a numeric prefix
// followed by garbage is a parse failure, and NaN/Inf spellings parse but
// are rejected as non-finite.
func ParseNumeric(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}
