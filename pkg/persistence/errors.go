package persistence

import (
	"errors"
	"fmt"
)

// Standard persistence error types that all implementations should use.
var (
	// ErrWorkflowNotFound indicates a workflow was not found by the given identifier.
	ErrWorkflowNotFound = errors.New("workflow not found")

	// ErrRunNotFound indicates an execution run was not found by the given identifier.
	ErrRunNotFound = errors.New("execution run not found")

	// ErrSubscriptionNotFound indicates a webhook subscription was not found by the given identifier.
	ErrSubscriptionNotFound = errors.New("webhook subscription not found")
)

// NotFoundError wraps a not-found sentinel with the operation and identifier
// that produced it.
type NotFoundError struct {
	Op  string // Operation being performed (e.g., "GetByID", "Update")
	ID  string // Record identifier
	Err error  // Underlying sentinel
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s: %v: %s", e.Op, e.Err, e.ID)
}

func (e *NotFoundError) Unwrap() error {
	return e.Err
}

// NewNotFoundError creates a not-found error with context.
func NewNotFoundError(op, id string, err error) *NotFoundError {
	return &NotFoundError{Op: op, ID: id, Err: err}
}

// IsWorkflowNotFound checks if an error indicates a workflow was not found.
func IsWorkflowNotFound(err error) bool {
	return errors.Is(err, ErrWorkflowNotFound)
}

// IsRunNotFound checks if an error indicates an execution run was not found.
func IsRunNotFound(err error) bool {
	return errors.Is(err, ErrRunNotFound)
}

// IsSubscriptionNotFound checks if an error indicates a webhook subscription was not found.
func IsSubscriptionNotFound(err error) bool {
	return errors.Is(err, ErrSubscriptionNotFound)
}
