package rules

import (
	"fmt"
	"strings"
)

// valuesEqual compares a payload value with a condition value. Numbers are
// compared numerically so a JSON 5 matches an int 5; everything else falls
// back to string representation.
func valuesEqual(a, b any) bool {
	af, aok := toFloat(a)
	bf, bok := toFloat(b)
	if aok && bok {
		return af == bf
	}
	return fmt.Sprintf("%v", a) == fmt.Sprintf("%v", b)
}

// valueContains implements the "contains" operator: substring for strings,
// membership for sequences.
func valueContains(value, needle any) bool {
	switch v := value.(type) {
	case string:
		return strings.Contains(v, fmt.Sprintf("%v", needle))
	case []any:
		for _, item := range v {
			if valuesEqual(item, needle) {
				return true
			}
		}
	case []string:
		for _, item := range v {
			if valuesEqual(item, needle) {
				return true
			}
		}
	}
	return false
}

// valueIn implements the "in" operator: the payload value must be a member
// of the condition's sequence value.
func valueIn(value, set any) bool {
	switch s := set.(type) {
	case []any:
		for _, item := range s {
			if valuesEqual(value, item) {
				return true
			}
		}
	case []string:
		for _, item := range s {
			if valuesEqual(value, item) {
				return true
			}
		}
	}
	return false
}

// compareNumeric returns -1, 0 or 1 when both values are numeric, and 0
// (incomparable) otherwise. Callers treat 0 as "condition not satisfied"
// for strict comparisons.
func compareNumeric(a, b any) int {
	af, aok := toFloat(a)
	bf, bok := toFloat(b)
	if !aok || !bok {
		return 0
	}
	switch {
	case af > bf:
		return 1
	case af < bf:
		return -1
	default:
		return 0
	}
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	}
	return 0, false
}
