package domain

import "strings"

// SchemaRole is a logical statistical role assignable to a dataset column.
type SchemaRole string

const (
	RoleUniqueID     SchemaRole = "unique_id"
	RoleStrata       SchemaRole = "strata"
	RoleWeight       SchemaRole = "weight"
	RoleAnalysisVar1 SchemaRole = "analysis_var_1"
	RoleAnalysisVar2 SchemaRole = "analysis_var_2"
)

// SchemaMapping assigns dataset columns to the fixed set of statistical
// roles. Weight and AnalysisVar1 are required before estimation; the rest
// are optional.
type SchemaMapping struct {
	UniqueID     string `json:"unique_id,omitempty" yaml:"unique_id,omitempty"`
	Strata       string `json:"strata,omitempty" yaml:"strata,omitempty"`
	Weight       string `json:"weight" yaml:"weight"`
	AnalysisVar1 string `json:"analysis_var_1" yaml:"analysis_var_1"`
	AnalysisVar2 string `json:"analysis_var_2,omitempty" yaml:"analysis_var_2,omitempty"`
}

// AnalysisVariables returns the mapped analysis columns in order, skipping
// the optional second variable when unmapped.
func (m SchemaMapping) AnalysisVariables() []string {
	vars := make([]string, 0, 2)
	if v := strings.TrimSpace(m.AnalysisVar1); v != "" {
		vars = append(vars, v)
	}
	if v := strings.TrimSpace(m.AnalysisVar2); v != "" {
		vars = append(vars, v)
	}
	return vars
}

// VariableStats holds the descriptive statistics for one estimation branch.
type VariableStats struct {
	Count int     `json:"count"`
	Mean  float64 `json:"mean"`
	MoE   float64 `json:"moe"`
	Total float64 `json:"total"`
}

// EstimateResult pairs the unweighted and weighted statistics for one
// analysis variable. The weighted margin of error uses a simplified
// variance approximation, not a design-based estimator.
type EstimateResult struct {
	Variable   string        `json:"name"`
	Unweighted VariableStats `json:"unweighted"`
	Weighted   VariableStats `json:"weighted"`
}

// MoEMultiplier is the 95%-confidence half-width multiplier under a normal
// approximation. Fixed; no t-distribution adjustment for small samples.
const MoEMultiplier = 1.96
