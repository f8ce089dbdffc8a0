// Package conditions evaluates workflow condition sets against entity
// snapshots. Evaluation is total: malformed fields, operators or values make
// the offending node evaluate to false, never panic or error, so one bad
// workflow definition cannot block dispatch of others.
package conditions

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/caldera-io/relay/pkg/models"
)

// Evaluate applies the implicit AND across all condition nodes. An empty
// list always matches.
func Evaluate(snapshot map[string]any, nodes []models.ConditionNode) bool {
	for _, node := range nodes {
		if !evaluateNode(snapshot, node) {
			return false
		}
	}

	return true
}

func evaluateNode(snapshot map[string]any, node models.ConditionNode) bool {
	resolved, _ := Resolve(snapshot, node.Field)

	switch node.Operator {
	case models.OperatorEquals:
		return coerceString(resolved) == coerceString(node.Value)
	case models.OperatorNotEquals:
		return coerceString(resolved) != coerceString(node.Value)
	case models.OperatorGreaterThan:
		return compareNumeric(resolved, node.Value, func(a, b float64) bool { return a > b })
	case models.OperatorLessThan:
		return compareNumeric(resolved, node.Value, func(a, b float64) bool { return a < b })
	case models.OperatorGreaterOrEqual:
		return compareNumeric(resolved, node.Value, func(a, b float64) bool { return a >= b })
	case models.OperatorLessOrEqual:
		return compareNumeric(resolved, node.Value, func(a, b float64) bool { return a <= b })
	case models.OperatorContains:
		return strings.Contains(coerceString(resolved), coerceString(node.Value))
	case models.OperatorNotContains:
		return !strings.Contains(coerceString(resolved), coerceString(node.Value))
	case models.OperatorStartsWith:
		return strings.HasPrefix(coerceString(resolved), coerceString(node.Value))
	case models.OperatorEndsWith:
		return strings.HasSuffix(coerceString(resolved), coerceString(node.Value))
	case models.OperatorIsEmpty:
		return isEmpty(resolved)
	case models.OperatorIsNotEmpty:
		return !isEmpty(resolved)
	case models.OperatorInList:
		return inList(resolved, node.Value)
	case models.OperatorNotInList:
		return !inList(resolved, node.Value)
	default:
		// Unknown operator fails the node, not the dispatch.
		return false
	}
}

// Resolve looks a dot-path up in a nested snapshot map. A missing segment
// resolves to (nil, false).
func Resolve(snapshot map[string]any, path string) (any, bool) {
	if snapshot == nil || path == "" {
		return nil, false
	}

	current := any(snapshot)

	for _, segment := range strings.Split(path, ".") {
		asMap, ok := current.(map[string]any)
		if !ok {
			return nil, false
		}

		current, ok = asMap[segment]
		if !ok {
			return nil, false
		}
	}

	return current, true
}

func coerceString(value any) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(v)
	default:
		return fmt.Sprintf("%v", v)
	}
}

func coerceFloat(value any) (float64, bool) {
	switch v := value.(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int32:
		return float64(v), true
	case int64:
		return float64(v), true
	case json.Number:
		f, err := v.Float64()

		return f, err == nil
	case string:
		f, err := strconv.ParseFloat(v, 64)

		return f, err == nil
	default:
		return 0, false
	}
}

func compareNumeric(left, right any, cmp func(a, b float64) bool) bool {
	a, ok := coerceFloat(left)
	if !ok {
		return false
	}

	b, ok := coerceFloat(right)
	if !ok {
		return false
	}

	return cmp(a, b)
}

func isEmpty(value any) bool {
	switch v := value.(type) {
	case nil:
		return true
	case string:
		return v == ""
	case []any:
		return len(v) == 0
	case []string:
		return len(v) == 0
	case map[string]any:
		return len(v) == 0
	default:
		return false
	}
}

func inList(needle, haystack any) bool {
	target := coerceString(needle)

	switch list := haystack.(type) {
	case []any:
		for _, item := range list {
			if coerceString(item) == target {
				return true
			}
		}
	case []string:
		for _, item := range list {
			if item == target {
				return true
			}
		}
	}

	return false
}
