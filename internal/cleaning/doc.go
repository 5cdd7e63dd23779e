// Package cleaning implements the three data-preparation stages: missing
// value imputation, outlier flagging, and rule-based row validation.
//
// Every stage is a pure function over an immutable dataset.Table - it
// returns a new table plus a summary of what it did, and never logs or
// mutates shared state itself. Degenerate inputs (empty columns, too few
// values to estimate spread, unusable rules) resolve to defined no-op
// behavior rather than errors; the only caller-visible failures are the
// summaries, which the orchestrator turns into log entries.
//
// Absence semantics come from dataset.ParseNumeric everywhere: a cell that
// does not fully parse as a finite number is invisible to the statistics,
// is the target of imputation, is never an outlier, and is conservatively
// retained by row validation.
package cleaning
