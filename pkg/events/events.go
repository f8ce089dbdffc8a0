// Package events defines the engine lifecycle notifications published on the
// event bus. Consumers (audit sinks, metrics pipelines) subscribe to the run
// lifecycle without being in the dispatch path.
package events

import (
	"time"

	"github.com/google/uuid"

	"github.com/caldera-io/relay/pkg/models"
)

type EventType string

// Topic carries every engine lifecycle event.
const Topic = "relay.events"

const EventMetadataKey = "key"
const EventTypeMetadataKey = "event_type"

const (
	RunStartedEvent   EventType = "run.started"
	RunCompletedEvent EventType = "run.completed"
	RunFailedEvent    EventType = "run.failed"
	RunCancelledEvent EventType = "run.cancelled"

	WorkflowSavedEvent   EventType = "workflow.saved"
	WorkflowDeletedEvent EventType = "workflow.deleted"
)

type BaseEvent struct {
	ID         string         `json:"id"`
	Type       EventType      `json:"type"`
	Timestamp  time.Time      `json:"timestamp"`
	WorkflowID string         `json:"workflow_id"`
	Metadata   map[string]any `json:"metadata,omitempty"`
}

func NewBaseEvent(eventType EventType, workflowID string) BaseEvent {
	return BaseEvent{
		ID:         uuid.New().String(),
		Type:       eventType,
		Timestamp:  time.Now().UTC(),
		WorkflowID: workflowID,
		Metadata:   make(map[string]any),
	}
}

type RunStarted struct {
	BaseEvent

	RunID        string             `json:"run_id"`
	WorkflowName string             `json:"workflow_name"`
	TriggerType  models.TriggerType `json:"trigger_type"`
	EntityType   models.EntityType  `json:"entity_type"`
	EntityID     string             `json:"entity_id"`
}

func (e RunStarted) GetType() EventType {
	return RunStartedEvent
}

type RunCompleted struct {
	BaseEvent

	RunID           string `json:"run_id"`
	DurationMs      int64  `json:"duration_ms"`
	ActionsExecuted int    `json:"actions_executed"`
	ActionsFailed   int    `json:"actions_failed"`
}

func (e RunCompleted) GetType() EventType {
	return RunCompletedEvent
}

type RunFailed struct {
	BaseEvent

	RunID      string `json:"run_id"`
	DurationMs int64  `json:"duration_ms"`
	Error      string `json:"error"`
}

func (e RunFailed) GetType() EventType {
	return RunFailedEvent
}

type RunCancelled struct {
	BaseEvent

	RunID      string `json:"run_id"`
	DurationMs int64  `json:"duration_ms"`
}

func (e RunCancelled) GetType() EventType {
	return RunCancelledEvent
}

type WorkflowSaved struct {
	BaseEvent

	Name   string                `json:"name"`
	Status models.WorkflowStatus `json:"status"`
}

func (e WorkflowSaved) GetType() EventType {
	return WorkflowSavedEvent
}

type WorkflowDeleted struct {
	BaseEvent
}

func (e WorkflowDeleted) GetType() EventType {
	return WorkflowDeletedEvent
}
