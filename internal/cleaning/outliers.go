package cleaning

import (
	"sort"

	"surveyprep/internal/dataset"
	"surveyprep/pkg/contracts/domain"
)

// MinPresentForSpread is the smallest present-value count that supports a
// spread estimate. Below it every row is flagged false.
const MinPresentForSpread = 4

// OutlierSummary reports what one detection pass did.
type OutlierSummary struct {
	Column     string               `json:"column"`
	FlagColumn string               `json:"flag_column"`
	Method     domain.OutlierMethod `json:"method"`
	Threshold  float64              `json:"threshold"`
	Present    int                  `json:"present"`
	Flagged    int                  `json:"flagged"`
	Lower      float64              `json:"lower"`
	Upper      float64              `json:"upper"`
}

// DetectOutliers adds the derived boolean column "<column>_is_outlier" to
// every row. A row is flagged true iff its value is present and strictly
// outside the method's bounds; absent values are never outliers. With fewer
// than MinPresentForSpread present values, or an unrecognized method,
// every row is flagged false - neither case is an error. A non-positive
// threshold falls back to the default.
func DetectOutliers(t dataset.Table, column, method string, threshold float64) (dataset.Table, OutlierSummary) {
	m := domain.NormalizeOutlierMethod(method)
	if threshold <= 0 {
		threshold = domain.DefaultOutlierThreshold
	}
	summary := OutlierSummary{
		Column:     column,
		FlagColumn: domain.OutlierFlagColumn(column),
		Method:     m,
		Threshold:  threshold,
	}

	flags := make([]bool, t.Len())
	present := t.PresentValues(column)
	summary.Present = len(present)

	bounded := false
	var lower, upper float64
	if len(present) >= MinPresentForSpread {
		switch m {
		case domain.OutlierIQR:
			lower, upper = iqrBounds(present, threshold)
			bounded = true
		case domain.OutlierZScore:
			lower, upper = zScoreBounds(present, threshold)
			bounded = true
		}
	}

	if bounded {
		summary.Lower = lower
		summary.Upper = upper
		for i := 0; i < t.Len(); i++ {
			v, ok := t.Numeric(i, column)
			if ok && (v < lower || v > upper) {
				flags[i] = true
				summary.Flagged++
			}
		}
	}

	return t.WithFlagColumn(summary.FlagColumn, flags), summary
}

// iqrBounds computes positional quartiles over the sorted values: Q1 is the
// value at index floor(n/4) and Q3 at floor(3n/4). Deliberately not an
// interpolated quartile convention - results must reproduce prior runs
// bit-for-bit.
func iqrBounds(values []float64, threshold float64) (float64, float64) {
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)
	n := len(sorted)
	q1 := sorted[n/4]
	q3 := sorted[3*n/4]
	iqr := q3 - q1
	return q1 - threshold*iqr, q3 + threshold*iqr
}

// zScoreBounds is mean plus/minus threshold population standard deviations.
func zScoreBounds(values []float64, threshold float64) (float64, float64) {
	m := mean(values)
	sd := populationStdDev(values)
	return m - threshold*sd, m + threshold*sd
}
