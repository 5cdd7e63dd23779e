package pipeline

import (
	"context"
	"log/slog"

	"surveyprep/internal/cleaning"
	"surveyprep/pkg/contracts/domain"
)

// Step identifiers, in execution order.
const (
	StepIDImpute   = "imputation"
	StepIDOutliers = "outlier_detection"
	StepIDValidate = "rule_validation"
)

// Display names for the steps.
const (
	StepNameImpute   = "Missing Value Imputation"
	StepNameOutliers = "Outlier Detection"
	StepNameValidate = "Rule Validation"
)

// DefaultSteps returns the preparation steps in their fixed execution
// order: imputation, then outlier detection, then rule validation.
func DefaultSteps(logger *slog.Logger) []Step {
	return []Step{
		NewImputeStep(logger),
		NewOutlierStep(logger),
		NewRuleStep(logger),
	}
}

// ImputeStep fills missing numeric values in the configured column with
// a column-wide statistic.
type ImputeStep struct {
	BaseStep
	logger *slog.Logger
}

// NewImputeStep creates the imputation step.
func NewImputeStep(logger *slog.Logger) *ImputeStep {
	if logger == nil {
		logger = slog.Default()
	}
	return &ImputeStep{
		BaseStep: NewBaseStep(StepIDImpute, StepNameImpute),
		logger:   logger,
	}
}

// Enabled reports whether an imputation column and method are configured.
func (s *ImputeStep) Enabled(cfg domain.CleaningConfig) bool {
	return cfg.ImputationEnabled()
}

// Execute applies imputation to the run's table and appends one log
// entry describing the effect.
func (s *ImputeStep) Execute(ctx context.Context, state *RunState) error {
	cfg := state.Config.Imputation
	out, sum := cleaning.Impute(state.Table(), cfg.Column, cfg.Method)
	state.SetTable(out)
	state.AddImputed(sum.Filled)

	switch {
	case sum.Method == domain.ImputationKNN:
		state.Log().Append("Imputation: method %q is not implemented; column %q left unchanged", sum.Method, sum.Column)
	case sum.Filled > 0:
		state.Log().Append("Imputation: filled %d missing value(s) in %q with the %s %s", sum.Filled, sum.Column, sum.Method, sum.Replacement)
	default:
		state.Log().Append("Imputation: no missing values to fill in %q (%s)", sum.Column, sum.Method)
	}

	s.logger.InfoContext(ctx, "imputation finished",
		slog.String("run_id", state.ID),
		slog.String("column", sum.Column),
		slog.String("method", string(sum.Method)),
		slog.Int("filled", sum.Filled))
	return nil
}

// OutlierStep flags values in the configured column that fall outside
// the method's bounds, adding a derived boolean column.
type OutlierStep struct {
	BaseStep
	logger *slog.Logger
}

// NewOutlierStep creates the outlier detection step.
func NewOutlierStep(logger *slog.Logger) *OutlierStep {
	if logger == nil {
		logger = slog.Default()
	}
	return &OutlierStep{
		BaseStep: NewBaseStep(StepIDOutliers, StepNameOutliers),
		logger:   logger,
	}
}

// Enabled reports whether an outlier column and method are configured.
func (s *OutlierStep) Enabled(cfg domain.CleaningConfig) bool {
	return cfg.OutlierEnabled()
}

// Execute runs outlier detection on the run's table and appends one log
// entry describing the effect.
func (s *OutlierStep) Execute(ctx context.Context, state *RunState) error {
	cfg := state.Config.Outlier
	out, sum := cleaning.DetectOutliers(state.Table(), cfg.Column, cfg.Method, state.Config.OutlierThreshold())
	state.SetTable(out)
	state.AddOutliers(sum.Flagged)

	if sum.Present < cleaning.MinPresentForSpread {
		state.Log().Append("Outlier detection: only %d usable value(s) in %q; every row marked false", sum.Present, sum.Column)
	} else {
		state.Log().Append("Outlier detection: flagged %d of %d value(s) in %q using %s (threshold %g)", sum.Flagged, sum.Present, sum.Column, sum.Method, sum.Threshold)
	}

	s.logger.InfoContext(ctx, "outlier detection finished",
		slog.String("run_id", state.ID),
		slog.String("column", sum.Column),
		slog.String("method", string(sum.Method)),
		slog.Int("flagged", sum.Flagged))
	return nil
}

// RuleStep filters rows by the configured free-text validation rule. An
// unusable rule degrades to a no-op with a log entry and never fails
// the run.
type RuleStep struct {
	BaseStep
	logger *slog.Logger
}

// NewRuleStep creates the rule validation step.
func NewRuleStep(logger *slog.Logger) *RuleStep {
	if logger == nil {
		logger = slog.Default()
	}
	return &RuleStep{
		BaseStep: NewBaseStep(StepIDValidate, StepNameValidate),
		logger:   logger,
	}
}

// Enabled reports whether a validation rule is configured.
func (s *RuleStep) Enabled(cfg domain.CleaningConfig) bool {
	return cfg.RuleEnabled()
}

// Execute applies the validation rule to the run's table and appends
// one log entry describing the effect.
func (s *RuleStep) Execute(ctx context.Context, state *RunState) error {
	out, sum := cleaning.ApplyRule(state.Table(), state.Config.ValidationRule)
	state.SetTable(out)

	if sum.Err != nil {
		state.Log().Append("Validation rule %q could not be applied (%v); table unchanged", sum.Raw, sum.Err)
		s.logger.WarnContext(ctx, "validation rule unusable",
			slog.String("run_id", state.ID),
			slog.String("rule", sum.Raw),
			slog.String("error", sum.Err.Error()))
		return nil
	}

	state.Log().Append("Validation rule %q: removed %d row(s), %d remaining", sum.Raw, sum.Removed, sum.Kept)
	s.logger.InfoContext(ctx, "rule validation finished",
		slog.String("run_id", state.ID),
		slog.String("rule", sum.Raw),
		slog.Int("removed", sum.Removed),
		slog.Int("kept", sum.Kept))
	return nil
}
