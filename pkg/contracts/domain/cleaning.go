package domain

import "strings"

// ImputationMethod selects how missing values in a column are filled.
type ImputationMethod string

const (
	ImputationNone   ImputationMethod = "none"
	ImputationMean   ImputationMethod = "mean"
	ImputationMedian ImputationMethod = "median"
	// ImputationKNN is accepted as a configuration value but is a known
	// scope limitation: it behaves as a no-op, never as an error.
	ImputationKNN ImputationMethod = "knn"
)

// NormalizeImputationMethod maps arbitrary configuration input onto the
// recognized method set. Anything outside the set behaves as "none";
// configuration surfaces may send free text and that must never fail.
func NormalizeImputationMethod(s string) ImputationMethod {
	switch ImputationMethod(strings.ToLower(strings.TrimSpace(s))) {
	case ImputationMean:
		return ImputationMean
	case ImputationMedian:
		return ImputationMedian
	case ImputationKNN:
		return ImputationKNN
	default:
		return ImputationNone
	}
}

// OutlierMethod selects how values in a column are flagged as outliers.
type OutlierMethod string

const (
	OutlierNone   OutlierMethod = "none"
	OutlierIQR    OutlierMethod = "iqr"
	OutlierZScore OutlierMethod = "zscore"
)

// NormalizeOutlierMethod maps arbitrary configuration input onto the
// recognized method set; unknown values behave as "none".
func NormalizeOutlierMethod(s string) OutlierMethod {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case string(OutlierIQR):
		return OutlierIQR
	case string(OutlierZScore), "z-score", "z_score":
		return OutlierZScore
	default:
		return OutlierNone
	}
}

// DefaultOutlierThreshold is the spread multiplier applied when a cleaning
// configuration leaves the threshold unset.
const DefaultOutlierThreshold = 1.5

// ImputationConfig names the column to impute and the method to use.
type ImputationConfig struct {
	Column string `json:"column" yaml:"column"`
	Method string `json:"method" yaml:"method"`
}

// OutlierConfig names the column to scan and the detection method.
// Threshold is optional; zero or negative falls back to the default.
type OutlierConfig struct {
	Column    string  `json:"column" yaml:"column"`
	Method    string  `json:"method" yaml:"method"`
	Threshold float64 `json:"threshold,omitempty" yaml:"threshold,omitempty"`
}

// CleaningConfig is the full configuration for one preparation run:
// imputation, outlier flagging, and a single free-text validation rule of
// the form "<column> <op> <number>" with op one of >, <, =.
type CleaningConfig struct {
	Imputation     ImputationConfig `json:"imputation" yaml:"imputation"`
	Outlier        OutlierConfig    `json:"outlier" yaml:"outlier"`
	ValidationRule string           `json:"validation_rule" yaml:"validation_rule"`
}

// ImputationEnabled reports whether the imputation stage should run at all.
func (c CleaningConfig) ImputationEnabled() bool {
	return strings.TrimSpace(c.Imputation.Column) != "" &&
		NormalizeImputationMethod(c.Imputation.Method) != ImputationNone
}

// OutlierEnabled reports whether the outlier stage should run at all.
func (c CleaningConfig) OutlierEnabled() bool {
	return strings.TrimSpace(c.Outlier.Column) != "" &&
		NormalizeOutlierMethod(c.Outlier.Method) != OutlierNone
}

// RuleEnabled reports whether the validation stage should run at all.
func (c CleaningConfig) RuleEnabled() bool {
	return strings.TrimSpace(c.ValidationRule) != ""
}

// OutlierThreshold returns the configured threshold or the default when unset.
func (c CleaningConfig) OutlierThreshold() float64 {
	if c.Outlier.Threshold > 0 {
		return c.Outlier.Threshold
	}
	return DefaultOutlierThreshold
}

// OutlierFlagColumn is the derived boolean column name added by outlier
// detection for the given source column.
func OutlierFlagColumn(column string) string {
	return column + "_is_outlier"
}
