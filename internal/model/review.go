package model

import (
	"errors"
	"fmt"
	"strings"
)

// Rule is a structural check applied to the generated assignments document
// during the review stage. A rule passes when the operator holds for the
// value extracted by the JSONPath expression; any rule that does not pass
// is a violation and fails the job.
type Rule struct {
	Name        string      `json:"name" yaml:"name"`
	Description string      `json:"description,omitempty" yaml:"description,omitempty"`
	Expression  string      `json:"expression" yaml:"expression"` // JSONPath expression
	Operator    string      `json:"operator" yaml:"operator"`     // eq, ne, gt, lt, gte, lte, contains, exists, regex
	Expected    interface{} `json:"expected,omitempty" yaml:"expected,omitempty"`
}

// Validate validates rule configuration.
func (r *Rule) Validate() error {
	if r.Name == "" {
		return errors.New("rule name is required")
	}
	if r.Expression == "" {
		return errors.New("rule expression is required")
	}

	validOperators := map[string]bool{
		"eq": true, "ne": true, "gt": true, "lt": true,
		"gte": true, "lte": true, "contains": true, "exists": true, "regex": true,
	}
	if !validOperators[strings.ToLower(r.Operator)] {
		return fmt.Errorf("invalid operator: %s", r.Operator)
	}
	r.Operator = strings.ToLower(r.Operator)

	return nil
}

// RuleEvaluation is the outcome of one review rule check.
type RuleEvaluation struct {
	RuleName   string      `json:"rule_name"`
	Expression string      `json:"expression"`
	Operator   string      `json:"operator"`
	Expected   interface{} `json:"expected,omitempty"`
	Extracted  interface{} `json:"extracted,omitempty"`
	Passed     bool        `json:"passed"`
	Error      string      `json:"error,omitempty"`
}
