package conditions

import (
	"encoding/json"
	"testing"

	"github.com/caldera-io/relay/pkg/models"
	"github.com/stretchr/testify/assert"
)

func snapshot() map[string]any {
	return map[string]any{
		"title": "Acme renewal",
		"value": float64(1500),
		"stage": map[string]any{
			"id":   "closed-won",
			"name": "Closed Won",
		},
		"tags":  []any{"enterprise", "renewal"},
		"notes": "",
	}
}

func TestEvaluate_EmptyConditionSetAlwaysMatches(t *testing.T) {
	assert.True(t, Evaluate(snapshot(), nil))
	assert.True(t, Evaluate(nil, []models.ConditionNode{}))
}

func TestEvaluate_Operators(t *testing.T) {
	tests := []struct {
		name string
		node models.ConditionNode
		want bool
	}{
		{"equals string", models.ConditionNode{Field: "title", Operator: models.OperatorEquals, Value: "Acme renewal"}, true},
		{"equals cross-type", models.ConditionNode{Field: "value", Operator: models.OperatorEquals, Value: "1500"}, true},
		{"not_equals", models.ConditionNode{Field: "title", Operator: models.OperatorNotEquals, Value: "other"}, true},
		{"greater_than true", models.ConditionNode{Field: "value", Operator: models.OperatorGreaterThan, Value: 1000}, true},
		{"greater_than false", models.ConditionNode{Field: "value", Operator: models.OperatorGreaterThan, Value: 2000}, false},
		{"greater_than non-numeric operand", models.ConditionNode{Field: "title", Operator: models.OperatorGreaterThan, Value: 10}, false},
		{"less_than", models.ConditionNode{Field: "value", Operator: models.OperatorLessThan, Value: 2000}, true},
		{"greater_or_equal boundary", models.ConditionNode{Field: "value", Operator: models.OperatorGreaterOrEqual, Value: 1500}, true},
		{"less_or_equal boundary", models.ConditionNode{Field: "value", Operator: models.OperatorLessOrEqual, Value: 1500}, true},
		{"contains", models.ConditionNode{Field: "title", Operator: models.OperatorContains, Value: "renew"}, true},
		{"contains is case-sensitive", models.ConditionNode{Field: "title", Operator: models.OperatorContains, Value: "ACME"}, false},
		{"not_contains", models.ConditionNode{Field: "title", Operator: models.OperatorNotContains, Value: "churn"}, true},
		{"starts_with", models.ConditionNode{Field: "title", Operator: models.OperatorStartsWith, Value: "Acme"}, true},
		{"ends_with", models.ConditionNode{Field: "title", Operator: models.OperatorEndsWith, Value: "renewal"}, true},
		{"is_empty on empty string", models.ConditionNode{Field: "notes", Operator: models.OperatorIsEmpty}, true},
		{"is_empty on missing field", models.ConditionNode{Field: "missing", Operator: models.OperatorIsEmpty}, true},
		{"is_not_empty on array", models.ConditionNode{Field: "tags", Operator: models.OperatorIsNotEmpty}, true},
		{"in_list", models.ConditionNode{Field: "stage.id", Operator: models.OperatorInList, Value: []any{"closed-won", "closed-lost"}}, true},
		{"not_in_list", models.ConditionNode{Field: "stage.id", Operator: models.OperatorNotInList, Value: []any{"open"}}, true},
		{"in_list against non-list value", models.ConditionNode{Field: "stage.id", Operator: models.OperatorInList, Value: "closed-won"}, false},
		{"dot-path lookup", models.ConditionNode{Field: "stage.name", Operator: models.OperatorEquals, Value: "Closed Won"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Evaluate(snapshot(), []models.ConditionNode{tt.node})
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestEvaluate_NumberDecodedValues(t *testing.T) {
	// Decoders configured with UseNumber hand the evaluator json.Number
	// instead of float64; numeric operators treat both alike.
	snap := map[string]any{"value": json.Number("1500")}

	nodes := []models.ConditionNode{
		{Field: "value", Operator: models.OperatorGreaterThan, Value: json.Number("1000")},
	}
	assert.True(t, Evaluate(snap, nodes))

	nodes = []models.ConditionNode{
		{Field: "value", Operator: models.OperatorLessThan, Value: json.Number("not-a-number")},
	}
	assert.False(t, Evaluate(snap, nodes))
}

func TestEvaluate_IsTotal(t *testing.T) {
	// None of these may panic; they all resolve to no-match.
	nodes := []models.ConditionNode{
		{Field: "does.not.exist", Operator: models.OperatorEquals, Value: "x"},
	}
	assert.False(t, Evaluate(snapshot(), nodes))

	nodes = []models.ConditionNode{
		{Field: "title", Operator: "definitely_not_an_operator", Value: "x"},
	}
	assert.False(t, Evaluate(snapshot(), nodes))

	nodes = []models.ConditionNode{
		{Field: "stage", Operator: models.OperatorGreaterThan, Value: map[string]any{"nested": true}},
	}
	assert.False(t, Evaluate(snapshot(), nodes))
}

func TestEvaluate_AllNodesMustPass(t *testing.T) {
	nodes := []models.ConditionNode{
		{Field: "stage.id", Operator: models.OperatorEquals, Value: "closed-won"},
		{Field: "value", Operator: models.OperatorGreaterThan, Value: 1000},
	}
	assert.True(t, Evaluate(snapshot(), nodes))

	nodes = append(nodes, models.ConditionNode{
		Field: "value", Operator: models.OperatorGreaterThan, Value: 9999,
	})
	assert.False(t, Evaluate(snapshot(), nodes))
}

func TestResolve(t *testing.T) {
	value, ok := Resolve(snapshot(), "stage.id")
	assert.True(t, ok)
	assert.Equal(t, "closed-won", value)

	_, ok = Resolve(snapshot(), "stage.id.deeper")
	assert.False(t, ok)

	_, ok = Resolve(nil, "anything")
	assert.False(t, ok)
}
