package cleaning

import (
	"strconv"

	"surveyprep/internal/dataset"
	"surveyprep/pkg/contracts/domain"
)

// ImputeSummary reports what one imputation pass did.
type ImputeSummary struct {
	Column      string                  `json:"column"`
	Method      domain.ImputationMethod `json:"method"`
	Present     int                     `json:"present"`
	Filled      int                     `json:"filled"`
	Replacement string                  `json:"replacement,omitempty"`
}

// Impute fills the absent cells of column with a column-wide statistic and
// returns the resulting table. The method string is normalized: unknown
// values and "none" leave the table unchanged, and "knn" is a recognized
// stub that also leaves the table unchanged. An empty present-value set is
// a no-op, not an error. Present cells are never altered, which makes a
// second application with the same method and column a no-op.
func Impute(t dataset.Table, column, method string) (dataset.Table, ImputeSummary) {
	m := domain.NormalizeImputationMethod(method)
	summary := ImputeSummary{Column: column, Method: m}

	if m == domain.ImputationNone || m == domain.ImputationKNN {
		return t, summary
	}

	present := t.PresentValues(column)
	summary.Present = len(present)
	if len(present) == 0 {
		return t, summary
	}

	var replacement float64
	switch m {
	case domain.ImputationMean:
		replacement = mean(present)
	case domain.ImputationMedian:
		replacement = median(present)
	}
	rendered := strconv.FormatFloat(replacement, 'f', 2, 64)

	var absent []int
	for i := 0; i < t.Len(); i++ {
		if _, ok := t.Numeric(i, column); !ok {
			absent = append(absent, i)
		}
	}
	summary.Filled = len(absent)
	summary.Replacement = rendered
	if len(absent) == 0 {
		return t, summary
	}
	return t.WithCells(column, rendered, absent), summary
}
