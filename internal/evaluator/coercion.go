package evaluator

import (
	"fmt"
	"strconv"
	"strings"
)

// CoerceToString renders any extracted value as a string.
func CoerceToString(value interface{}) string {
	if value == nil {
		return "null"
	}
	if s, ok := value.(string); ok {
		return s
	}
	return fmt.Sprintf("%v", value)
}

// CoerceToNumber converts an extracted value to float64. JSON numbers
// arrive as float64; strings are parsed so rules can compare "5" to 5.
func CoerceToNumber(value interface{}) (float64, error) {
	switch v := value.(type) {
	case float64:
		return v, nil
	case float32:
		return float64(v), nil
	case int:
		return float64(v), nil
	case int32:
		return float64(v), nil
	case int64:
		return float64(v), nil
	case string:
		num, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return 0, fmt.Errorf("cannot convert string %q to number", v)
		}
		return num, nil
	default:
		return 0, fmt.Errorf("cannot convert %T to number", value)
	}
}

// CoerceToBool converts an extracted value to a boolean. Strings accept
// the usual spellings; nil, zero, and empty are false.
func CoerceToBool(value interface{}) bool {
	switch v := value.(type) {
	case nil:
		return false
	case bool:
		return v
	case string:
		switch strings.ToLower(strings.TrimSpace(v)) {
		case "true", "1", "yes":
			return true
		case "false", "0", "no", "":
			return false
		}
		return len(v) > 0
	case int, int32, int64:
		return v != 0
	case float32, float64:
		return v != 0.0
	default:
		return true
	}
}

// AreEqual compares two values with type coercion: numeric comparison is
// tried first so 5, "5", and 5.0 are all equal, then boolean, then string.
func AreEqual(a, b interface{}) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}

	numA, errA := CoerceToNumber(a)
	numB, errB := CoerceToNumber(b)
	if errA == nil && errB == nil {
		return numA == numB
	}

	if boolA, ok := a.(bool); ok {
		return boolA == CoerceToBool(b)
	}
	if boolB, ok := b.(bool); ok {
		return CoerceToBool(a) == boolB
	}

	return CoerceToString(a) == CoerceToString(b)
}

// CompareNumbers compares two values numerically, returning -1, 0, or 1.
func CompareNumbers(a, b interface{}) (int, error) {
	numA, err := CoerceToNumber(a)
	if err != nil {
		return 0, fmt.Errorf("cannot compare: left value - %w", err)
	}
	numB, err := CoerceToNumber(b)
	if err != nil {
		return 0, fmt.Errorf("cannot compare: right value - %w", err)
	}

	switch {
	case numA < numB:
		return -1, nil
	case numA > numB:
		return 1, nil
	default:
		return 0, nil
	}
}
