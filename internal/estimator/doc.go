// Package estimator computes unweighted and weighted descriptive statistics
// (count, mean, margin of error, total) for analysis variables of a
// prepared survey table.
//
// The margin of error is 1.96 standard errors under a normal approximation.
// The weighted standard error divides the weighted variance by the weighted
// row count, which is a simplified approximation of design-based variance;
// stratum and cluster structure is out of scope. Degenerate data (no rows,
// zero weights, single observations) yields zero-valued statistics, never
// NaN. The only errors raised are configuration errors: a schema mapping
// missing the weight or first analysis variable.
package estimator
