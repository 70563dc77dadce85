package evaluator

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/hirelab/crucible/internal/model"
	"github.com/oliveagle/jsonpath"
)

// Evaluator runs structural review rules against a generated assignments
// document.
type Evaluator struct{}

// NewEvaluator creates a new evaluator
func NewEvaluator() *Evaluator {
	return &Evaluator{}
}

// EvaluateRule evaluates a single rule against the raw JSON document.
func (e *Evaluator) EvaluateRule(rule model.Rule, document []byte) model.RuleEvaluation {
	result := model.RuleEvaluation{
		RuleName:   rule.Name,
		Expression: rule.Expression,
		Operator:   rule.Operator,
		Expected:   rule.Expected,
		Passed:     false,
	}

	var jsonData interface{}
	if err := json.Unmarshal(document, &jsonData); err != nil {
		result.Error = fmt.Sprintf("failed to parse document: %v", err)
		slog.Error("Failed to parse JSON for rule evaluation",
			"rule", rule.Name,
			"error", err.Error(),
		)
		return result
	}

	extractedValue, err := e.extractValue(jsonData, rule.Expression)
	if err != nil {
		// A missing path is a clean non-pass for exists checks, an error
		// for everything else.
		if strings.ToLower(rule.Operator) != "exists" {
			result.Error = err.Error()
		}
		slog.Debug("JSONPath extraction failed",
			"rule", rule.Name,
			"expression", rule.Expression,
			"error", err.Error(),
		)
		return result
	}

	result.Extracted = extractedValue

	passed, err := EvaluateOperator(rule.Operator, extractedValue, rule.Expected)
	if err != nil {
		result.Error = err.Error()
		slog.Error("Operator evaluation failed",
			"rule", rule.Name,
			"operator", rule.Operator,
			"error", err.Error(),
		)
		return result
	}

	result.Passed = passed

	slog.Debug("Rule evaluation completed",
		"rule", rule.Name,
		"expression", rule.Expression,
		"extracted_value", extractedValue,
		"expected_value", rule.Expected,
		"operator", rule.Operator,
		"passed", passed,
	)

	return result
}

// EvaluateRules evaluates all rules against the document.
func (e *Evaluator) EvaluateRules(rules []model.Rule, document []byte) []model.RuleEvaluation {
	results := make([]model.RuleEvaluation, 0, len(rules))

	for _, rule := range rules {
		results = append(results, e.EvaluateRule(rule, document))
	}

	return results
}

// extractValue extracts a value from JSON using JSONPath expression
func (e *Evaluator) extractValue(jsonData interface{}, expression string) (interface{}, error) {
	pattern, err := jsonpath.Compile(expression)
	if err != nil {
		return nil, fmt.Errorf("invalid JSONPath expression '%s': %w", expression, err)
	}

	result, err := pattern.Lookup(jsonData)
	if err != nil {
		return nil, fmt.Errorf("JSONPath expression '%s' returned no results: %w", expression, err)
	}

	return result, nil
}

// Violations returns the evaluations that did not pass.
func Violations(evaluations []model.RuleEvaluation) []model.RuleEvaluation {
	violations := make([]model.RuleEvaluation, 0)
	for _, eval := range evaluations {
		if !eval.Passed {
			violations = append(violations, eval)
		}
	}
	return violations
}
