package evaluator

import (
	"fmt"
	"regexp"
	"strings"
)

// EvaluateOperator evaluates an operator against extracted and expected values
func EvaluateOperator(operator string, extractedValue, expectedValue interface{}) (bool, error) {
	switch strings.ToLower(operator) {
	case "eq":
		return AreEqual(extractedValue, expectedValue), nil
	case "ne":
		return !AreEqual(extractedValue, expectedValue), nil
	case "gt":
		return evaluateComparison(extractedValue, expectedValue, func(c int) bool { return c > 0 })
	case "lt":
		return evaluateComparison(extractedValue, expectedValue, func(c int) bool { return c < 0 })
	case "gte":
		return evaluateComparison(extractedValue, expectedValue, func(c int) bool { return c >= 0 })
	case "lte":
		return evaluateComparison(extractedValue, expectedValue, func(c int) bool { return c <= 0 })
	case "contains":
		return evaluateContains(extractedValue, expectedValue)
	case "exists":
		return extractedValue != nil, nil
	case "regex":
		return evaluateRegex(extractedValue, expectedValue)
	default:
		return false, fmt.Errorf("unknown operator: %s", operator)
	}
}

func evaluateComparison(extracted, expected interface{}, holds func(int) bool) (bool, error) {
	cmp, err := CompareNumbers(extracted, expected)
	if err != nil {
		return false, err
	}
	return holds(cmp), nil
}

// evaluateContains checks membership for arrays and substring match for
// everything else.
func evaluateContains(extracted, expected interface{}) (bool, error) {
	if arr, ok := extracted.([]interface{}); ok {
		for _, item := range arr {
			if AreEqual(item, expected) {
				return true, nil
			}
		}
		return false, nil
	}

	return strings.Contains(CoerceToString(extracted), CoerceToString(expected)), nil
}

// evaluateRegex checks if extracted matches the regex pattern in expected
func evaluateRegex(extracted, expected interface{}) (bool, error) {
	patternStr := CoerceToString(expected)

	re, err := regexp.Compile(patternStr)
	if err != nil {
		return false, fmt.Errorf("invalid regex pattern '%s': %w", patternStr, err)
	}

	return re.MatchString(CoerceToString(extracted)), nil
}
