package models

// Operator is a single comparison applied by a condition node.
type Operator string

const (
	OperatorEquals         Operator = "equals"
	OperatorNotEquals      Operator = "not_equals"
	OperatorGreaterThan    Operator = "greater_than"
	OperatorLessThan       Operator = "less_than"
	OperatorGreaterOrEqual Operator = "greater_or_equal"
	OperatorLessOrEqual    Operator = "less_or_equal"
	OperatorContains       Operator = "contains"
	OperatorNotContains    Operator = "not_contains"
	OperatorStartsWith     Operator = "starts_with"
	OperatorEndsWith       Operator = "ends_with"
	OperatorIsEmpty        Operator = "is_empty"
	OperatorIsNotEmpty     Operator = "is_not_empty"
	OperatorInList         Operator = "in_list"
	OperatorNotInList      Operator = "not_in_list"
)

var operators = map[Operator]struct{}{
	OperatorEquals: {}, OperatorNotEquals: {},
	OperatorGreaterThan: {}, OperatorLessThan: {},
	OperatorGreaterOrEqual: {}, OperatorLessOrEqual: {},
	OperatorContains: {}, OperatorNotContains: {},
	OperatorStartsWith: {}, OperatorEndsWith: {},
	OperatorIsEmpty: {}, OperatorIsNotEmpty: {},
	OperatorInList: {}, OperatorNotInList: {},
}

// Valid reports whether the operator is part of the closed set.
func (o Operator) Valid() bool {
	_, ok := operators[o]

	return ok
}

// ConditionNode is one field/operator/value test against the event's entity
// snapshot. Field is a dot-path into the snapshot map. A workflow's full
// condition set is the AND of its nodes; there is no OR/NOT grouping.
type ConditionNode struct {
	ID       string   `json:"id"`
	Field    string   `json:"field"    validate:"required"`
	Operator Operator `json:"operator" validate:"required"`
	Value    any      `json:"value"`
}
