// Package models defines the core domain models for the automation engine.
package models

import "time"

// WorkflowStatus represents the lifecycle state of a workflow.
type WorkflowStatus string

const (
	WorkflowStatusActive   WorkflowStatus = "active"   // Matched and executed on incoming events
	WorkflowStatusInactive WorkflowStatus = "inactive" // Soft-deactivated, kept for ledger references
)

// Trigger binds a workflow to a domain lifecycle event plus an optional
// condition set. An empty condition list means "always match".
type Trigger struct {
	Type       TriggerType     `json:"type"       validate:"required"`
	Conditions []ConditionNode `json:"conditions"`
}

// Workflow is an administrator-defined automation rule: a trigger, a flat
// AND-list of conditions and an ordered action sequence.
//
// Workflows referenced by execution runs are never hard-deleted; they are
// deactivated instead so historical runs keep a resolvable definition.
type Workflow struct {
	ID          string         `json:"id"`
	Name        string         `json:"name"        validate:"required,min=3"`
	Description string         `json:"description"`
	Status      WorkflowStatus `json:"status"      validate:"required"`
	Trigger     Trigger        `json:"trigger"     validate:"required"`
	Actions     []Action       `json:"actions"     validate:"dive"`
	Owner       string         `json:"owner"`

	// Usage counters, updated best-effort after each firing.
	ExecutionCount int64      `json:"execution_count"`
	LastExecutedAt *time.Time `json:"last_executed_at,omitempty"`

	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
	DeletedAt *time.Time `json:"deleted_at,omitempty"`
}

func (w *Workflow) IsActive() bool {
	return w.Status == WorkflowStatusActive && w.DeletedAt == nil
}
