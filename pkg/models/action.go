package models

import (
	"encoding/json"
	"fmt"
	"sort"
)

// ActionType enumerates the supported action kinds.
type ActionType string

const (
	ActionSendNotification   ActionType = "send_notification"
	ActionSendChannelMessage ActionType = "send_channel_message"
	ActionCreateTask         ActionType = "create_task"
	ActionCreateActivity     ActionType = "create_activity"
	ActionUpdateField        ActionType = "update_field"
	ActionMoveStage          ActionType = "move_stage"
	ActionAssignOwner        ActionType = "assign_owner"
	ActionAddTag             ActionType = "add_tag"
	ActionRemoveTag          ActionType = "remove_tag"
	ActionWebhook            ActionType = "webhook"
	ActionDelay              ActionType = "delay"
)

// Action is one ordered side-effecting step of a workflow. Order is the
// authoritative execution sequence; IDs are generated once at creation and
// never reused, so ledger entries stay resolvable across workflow edits.
type Action struct {
	ID     string         `json:"id"`
	Type   ActionType     `json:"type"  validate:"required"`
	Order  int            `json:"order"`
	Params map[string]any `json:"params"`
}

// SortedActions returns the workflow's actions ordered by their Order field.
// The sort is stable so actions sharing an order value keep definition order.
func (w *Workflow) SortedActions() []Action {
	actions := make([]Action, len(w.Actions))
	copy(actions, w.Actions)

	sort.SliceStable(actions, func(i, j int) bool {
		return actions[i].Order < actions[j].Order
	})

	return actions
}

// Typed parameter variants, one per action kind. Executors decode the raw
// params bag into the matching struct via DecodeParams.

type NotificationParams struct {
	Title   string `json:"title"`
	Message string `json:"message" validate:"required"`
	Channel string `json:"channel"`
	UserID  string `json:"user_id"`
}

type TaskParams struct {
	Title       string `json:"title"       validate:"required"`
	Description string `json:"description"`
	AssigneeID  string `json:"assignee_id"`
	DueInDays   int    `json:"due_in_days"`
}

type ActivityParams struct {
	Kind    string `json:"kind"    validate:"required"`
	Subject string `json:"subject"`
	Notes   string `json:"notes"`
}

type UpdateFieldParams struct {
	Field string `json:"field" validate:"required"`
	Value any    `json:"value"`
}

type MoveStageParams struct {
	StageID string `json:"stage_id" validate:"required"`
}

type AssignOwnerParams struct {
	OwnerID string `json:"owner_id" validate:"required"`
}

type TagParams struct {
	Tags []string `json:"tags" validate:"required,min=1"`
}

type WebhookParams struct {
	URL       string `json:"url"    validate:"required,url"`
	Secret    string `json:"secret" validate:"required"`
	Event     string `json:"event"`
	TimeoutMs int    `json:"timeout_ms"`
}

type DelayParams struct {
	DurationMs int64 `json:"duration_ms" validate:"required,gt=0"`
}

// DecodeParams converts an action's raw params bag into a typed variant.
func DecodeParams(params map[string]any, out any) error {
	data, err := json.Marshal(params)
	if err != nil {
		return fmt.Errorf("failed to marshal action params: %w", err)
	}

	err = json.Unmarshal(data, out)
	if err != nil {
		return fmt.Errorf("failed to decode action params: %w", err)
	}

	return nil
}
