package cleaning

import (
	"fmt"
	"strings"

	"surveyprep/internal/dataset"
)

// Rule is one parsed validation rule: a column, a comparator, and a numeric
// threshold.
type Rule struct {
	Column    string  `json:"column"`
	Operator  string  `json:"operator"`
	Threshold float64 `json:"threshold"`
}

// Evaluate reports whether a present value satisfies the rule. Equality is
// exact floating-point comparison.
func (r Rule) Evaluate(v float64) bool {
	switch r.Operator {
	case ">":
		return v > r.Threshold
	case "<":
		return v < r.Threshold
	case "=":
		return v == r.Threshold
	default:
		return false
	}
}

func (r Rule) String() string {
	return fmt.Sprintf("%s %s %g", r.Column, r.Operator, r.Threshold)
}

const operatorChars = "><="

// ParseRule parses "<column> <op> <number>" with op one of >, <, =. The
// text is split on the first run of comparator characters; a run longer
// than one character (">=", "==", "<>") is unsupported, as is an empty
// column fragment or a right fragment that is not fully numeric.
func ParseRule(text string) (Rule, error) {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return Rule{}, fmt.Errorf("empty rule")
	}

	start := strings.IndexAny(trimmed, operatorChars)
	if start < 0 {
		return Rule{}, fmt.Errorf("rule %q has no comparator", trimmed)
	}
	end := start
	for end < len(trimmed) && strings.ContainsRune(operatorChars, rune(trimmed[end])) {
		end++
	}
	op := trimmed[start:end]
	if op != ">" && op != "<" && op != "=" {
		return Rule{}, fmt.Errorf("rule %q has unsupported comparator %q", trimmed, op)
	}

	column := strings.TrimSpace(trimmed[:start])
	if column == "" {
		return Rule{}, fmt.Errorf("rule %q is missing a column", trimmed)
	}

	right := strings.TrimSpace(trimmed[end:])
	threshold, ok := dataset.ParseNumeric(right)
	if !ok {
		return Rule{}, fmt.Errorf("rule %q threshold %q is not numeric", trimmed, right)
	}

	return Rule{Column: column, Operator: op, Threshold: threshold}, nil
}

// RuleSummary reports what one validation pass did. Err carries the parse
// failure when the rule was unusable; the table is unchanged in that case.
type RuleSummary struct {
	Raw     string `json:"raw"`
	Rule    Rule   `json:"rule"`
	Parsed  bool   `json:"parsed"`
	Kept    int    `json:"kept"`
	Removed int    `json:"removed"`
	Err     error  `json:"-"`
}

// ApplyRule filters rows by a free-text rule. A blank rule is the identity.
// An unusable rule leaves the table unchanged and surfaces the reason in
// the summary - it is never raised to the caller. Rows whose value in the
// rule's column is absent are kept regardless of the comparator:
// unevaluable rows are conservatively retained, by policy. Survivor order
// is stable.
func ApplyRule(t dataset.Table, ruleText string) (dataset.Table, RuleSummary) {
	summary := RuleSummary{Raw: ruleText, Kept: t.Len()}
	if strings.TrimSpace(ruleText) == "" {
		return t, summary
	}

	rule, err := ParseRule(ruleText)
	if err != nil {
		summary.Err = err
		return t, summary
	}
	summary.Rule = rule
	summary.Parsed = true

	filtered := t.Filter(func(i int, r dataset.Row) bool {
		v, ok := r.Numeric(rule.Column)
		if !ok {
			return true
		}
		return rule.Evaluate(v)
	})
	summary.Kept = filtered.Len()
	summary.Removed = t.Len() - filtered.Len()
	return filtered, summary
}
