package estimator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strings"

	"surveyprep/internal/dataset"
	"surveyprep/pkg/contracts/domain"
)

// Configuration errors: the only failures estimation raises. Everything
// else degrades to zero-valued statistics.
var (
	ErrAnalysisVarNotMapped = errors.New("analysis variable 1 is not mapped")
	ErrWeightNotMapped      = errors.New("weight variable is not mapped")
)

// ValidateMapping checks that the schema mapping carries the roles required
// for estimation.
func ValidateMapping(m domain.SchemaMapping) error {
	if strings.TrimSpace(m.AnalysisVar1) == "" {
		return ErrAnalysisVarNotMapped
	}
	if strings.TrimSpace(m.Weight) == "" {
		return ErrWeightNotMapped
	}
	return nil
}

// Estimator computes estimate results over prepared tables.
type Estimator struct {
	logger *slog.Logger
}

// New creates an estimator. A nil logger falls back to slog.Default.
func New(logger *slog.Logger) *Estimator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Estimator{logger: logger}
}

// EstimateAll validates the mapping and computes one EstimateResult per
// mapped analysis variable, in mapping order. Results are independent; no
// cross-variable statistic is computed.
func (e *Estimator) EstimateAll(ctx context.Context, t dataset.Table, m domain.SchemaMapping) ([]domain.EstimateResult, error) {
	if err := ValidateMapping(m); err != nil {
		e.logger.ErrorContext(ctx, "schema mapping incomplete", "error", err)
		return nil, fmt.Errorf("validate mapping: %w", err)
	}

	vars := m.AnalysisVariables()
	results := make([]domain.EstimateResult, 0, len(vars))
	for _, variable := range vars {
		results = append(results, e.Estimate(ctx, t, variable, m.Weight))
	}
	return results, nil
}

// Estimate computes the unweighted and weighted statistics for one analysis
// variable against one weight column. A row joins the unweighted branch
// when the variable is present, and the weighted branch when the weight is
// present too. A mapped column that does not exist in the table simply
// contributes no present values.
func (e *Estimator) Estimate(ctx context.Context, t dataset.Table, variable, weight string) domain.EstimateResult {
	var (
		values   []float64
		wValues  []float64
		wWeights []float64
	)
	for i := 0; i < t.Len(); i++ {
		v, ok := t.Numeric(i, variable)
		if !ok {
			continue
		}
		values = append(values, v)
		if w, ok := t.Numeric(i, weight); ok {
			wValues = append(wValues, v)
			wWeights = append(wWeights, w)
		}
	}

	result := domain.EstimateResult{
		Variable:   variable,
		Unweighted: unweightedStats(values),
		Weighted:   weightedStats(wValues, wWeights),
	}

	e.logger.InfoContext(ctx, "estimate computed",
		"variable", variable,
		"weight", weight,
		"unweighted_n", result.Unweighted.Count,
		"weighted_n", result.Weighted.Count,
	)
	return result
}

// unweightedStats: mean and total over the present values, sample variance
// with divisor n-1, SE = sqrt(variance/n), MoE = 1.96 x SE. All zero when
// n is 0; variance is zero when n is 1.
func unweightedStats(values []float64) domain.VariableStats {
	n := len(values)
	stats := domain.VariableStats{Count: n}
	if n == 0 {
		return stats
	}

	sum := 0.0
	for _, v := range values {
		sum += v
	}
	mean := sum / float64(n)

	variance := 0.0
	if n > 1 {
		sumSq := 0.0
		for _, v := range values {
			d := v - mean
			sumSq += d * d
		}
		variance = sumSq / float64(n-1)
	}

	se := math.Sqrt(variance / float64(n))
	stats.Mean = mean
	stats.MoE = domain.MoEMultiplier * se
	stats.Total = sum
	return stats
}

// weightedStats: weighted mean and total, weighted variance with divisor
// sum-of-weights, SE = sqrt(variance/count). The SE is a simplified
// approximation without design structure. Zero sum-of-weights zeroes the
// mean and variance but the total stays Σ(value x weight).
func weightedStats(values, weights []float64) domain.VariableStats {
	n := len(values)
	stats := domain.VariableStats{Count: n}
	if n == 0 {
		return stats
	}

	sumW := 0.0
	sumVW := 0.0
	for i, v := range values {
		sumW += weights[i]
		sumVW += v * weights[i]
	}
	stats.Total = sumVW

	if sumW == 0 {
		return stats
	}
	mean := sumVW / sumW

	sumSq := 0.0
	for i, v := range values {
		d := v - mean
		sumSq += weights[i] * d * d
	}
	variance := sumSq / sumW
	if variance < 0 || math.IsNaN(variance) {
		// Negative weights can push the weighted variance below zero.
		variance = 0
	}

	se := math.Sqrt(variance / float64(n))
	stats.Mean = mean
	stats.MoE = domain.MoEMultiplier * se
	return stats
}
