package models

import "time"

// RunStatus is the lifecycle state of an execution run.
// pending -> running -> completed | failed | cancelled. Terminal states are
// final; no run transitions out of them.
type RunStatus string

const (
	RunStatusPending   RunStatus = "pending"
	RunStatusRunning   RunStatus = "running"
	RunStatusCompleted RunStatus = "completed"
	RunStatusFailed    RunStatus = "failed"
	RunStatusCancelled RunStatus = "cancelled"
)

// Terminal reports whether the status is final.
func (s RunStatus) Terminal() bool {
	return s == RunStatusCompleted || s == RunStatusFailed || s == RunStatusCancelled
}

// ActionLogStatus is the per-action outcome state within a run.
type ActionLogStatus string

const (
	ActionLogRunning   ActionLogStatus = "running"
	ActionLogCompleted ActionLogStatus = "completed"
	ActionLogFailed    ActionLogStatus = "failed"
	ActionLogCancelled ActionLogStatus = "cancelled"
)

// TriggerSnapshot is the immutable copy of the event that caused a run,
// captured at dispatch time. Later entity mutations never change what a
// past run saw.
type TriggerSnapshot struct {
	EntityType    EntityType     `json:"entity_type"`
	EntityID      string         `json:"entity_id"`
	EntityName    string         `json:"entity_name,omitempty"`
	PreviousData  map[string]any `json:"previous_data,omitempty"`
	NewData       map[string]any `json:"new_data,omitempty"`
	ChangedFields []string       `json:"changed_fields,omitempty"`
}

// ActionLog records the outcome of one executed action within a run.
type ActionLog struct {
	ActionID    string          `json:"action_id"`
	ActionType  ActionType      `json:"action_type"`
	Status      ActionLogStatus `json:"status"`
	StartedAt   *time.Time      `json:"started_at,omitempty"`
	CompletedAt *time.Time      `json:"completed_at,omitempty"`
	Error       string          `json:"error,omitempty"`
	Result      any             `json:"result,omitempty"`
}

// ExecutionRun is one audited firing of one workflow for one event. The
// workflow name is denormalized so renames never corrupt historical display.
// Runs are operational data subject to rolling eviction, not permanent
// business records.
type ExecutionRun struct {
	ID           string          `json:"id"`
	WorkflowID   string          `json:"workflow_id"`
	WorkflowName string          `json:"workflow_name"`
	TriggerType  TriggerType     `json:"trigger_type"`
	TriggerData  TriggerSnapshot `json:"trigger_data"`
	Status       RunStatus       `json:"status"`
	StartedAt    time.Time       `json:"started_at"`
	CompletedAt  *time.Time      `json:"completed_at,omitempty"`
	DurationMs   int64           `json:"duration_ms"`
	ActionLogs   []ActionLog     `json:"action_logs"`
	Error        string          `json:"error,omitempty"`
	ErrorStack   string          `json:"error_stack,omitempty"`
}

// Finish moves the run into a terminal state and derives the duration.
func (r *ExecutionRun) Finish(status RunStatus, at time.Time) {
	r.Status = status
	r.CompletedAt = &at
	r.DurationMs = at.Sub(r.StartedAt).Milliseconds()
}
