package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeImputationMethod(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  ImputationMethod
	}{
		{name: "mean", input: "mean", want: ImputationMean},
		{name: "median", input: "median", want: ImputationMedian},
		{name: "knn recognized", input: "knn", want: ImputationKNN},
		{name: "case insensitive", input: "MEAN", want: ImputationMean},
		{name: "surrounding whitespace", input: "  median ", want: ImputationMedian},
		{name: "unknown becomes none", input: "mode", want: ImputationNone},
		{name: "empty becomes none", input: "", want: ImputationNone},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizeImputationMethod(tt.input))
		})
	}
}

func TestNormalizeOutlierMethod(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  OutlierMethod
	}{
		{name: "iqr", input: "iqr", want: OutlierIQR},
		{name: "zscore", input: "zscore", want: OutlierZScore},
		{name: "z-score alias", input: "z-score", want: OutlierZScore},
		{name: "z_score alias", input: "Z_SCORE", want: OutlierZScore},
		{name: "unknown becomes none", input: "mad", want: OutlierNone},
		{name: "empty becomes none", input: "", want: OutlierNone},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizeOutlierMethod(tt.input))
		})
	}
}

func TestCleaningConfigStageGates(t *testing.T) {
	empty := CleaningConfig{}
	assert.False(t, empty.ImputationEnabled())
	assert.False(t, empty.OutlierEnabled())
	assert.False(t, empty.RuleEnabled())

	// A method without a column, or a column without a usable method,
	// leaves the stage disabled.
	assert.False(t, CleaningConfig{Imputation: ImputationConfig{Method: "mean"}}.ImputationEnabled())
	assert.False(t, CleaningConfig{Imputation: ImputationConfig{Column: "income", Method: "nope"}}.ImputationEnabled())
	assert.True(t, CleaningConfig{Imputation: ImputationConfig{Column: "income", Method: "mean"}}.ImputationEnabled())

	assert.False(t, CleaningConfig{Outlier: OutlierConfig{Column: "income"}}.OutlierEnabled())
	assert.True(t, CleaningConfig{Outlier: OutlierConfig{Column: "income", Method: "iqr"}}.OutlierEnabled())

	assert.False(t, CleaningConfig{ValidationRule: "   "}.RuleEnabled())
	assert.True(t, CleaningConfig{ValidationRule: "age > 0"}.RuleEnabled())
}

func TestCleaningConfigOutlierThreshold(t *testing.T) {
	assert.Equal(t, DefaultOutlierThreshold, CleaningConfig{}.OutlierThreshold())
	assert.Equal(t, DefaultOutlierThreshold, CleaningConfig{Outlier: OutlierConfig{Threshold: -2}}.OutlierThreshold())
	assert.Equal(t, 3.0, CleaningConfig{Outlier: OutlierConfig{Threshold: 3}}.OutlierThreshold())
}

func TestOutlierFlagColumn(t *testing.T) {
	assert.Equal(t, "income_is_outlier", OutlierFlagColumn("income"))
}
