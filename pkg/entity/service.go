// Package entity defines the business-record collaborator the automation
// engine mutates through. Persistence and validation of the records
// themselves belong to the owning service; the engine only needs the narrow
// surface below.
package entity

import (
	"context"
	"errors"
	"time"

	"github.com/caldera-io/relay/pkg/models"
)

// ErrNotFound indicates the referenced entity does not exist.
var ErrNotFound = errors.New("entity not found")

// Task is a record created by the create_task action.
type Task struct {
	ID          string            `json:"id"`
	Title       string            `json:"title"`
	Description string            `json:"description"`
	AssigneeID  string            `json:"assignee_id"`
	EntityType  models.EntityType `json:"entity_type"`
	EntityID    string            `json:"entity_id"`
	DueAt       *time.Time        `json:"due_at,omitempty"`
	Completed   bool              `json:"completed"`
	CreatedAt   time.Time         `json:"created_at"`
}

// Activity is a record created by the create_activity action.
type Activity struct {
	ID         string            `json:"id"`
	Kind       string            `json:"kind"`
	Subject    string            `json:"subject"`
	Notes      string            `json:"notes"`
	EntityType models.EntityType `json:"entity_type"`
	EntityID   string            `json:"entity_id"`
	CreatedAt  time.Time         `json:"created_at"`
}

// Service is the mutation surface action executors use. Field writes are
// subject to the owning service's validation rules; the engine treats a
// rejection as an action failure, not a dispatch fault.
type Service interface {
	Get(ctx context.Context, entityType models.EntityType, id string) (map[string]any, error)
	UpdateField(ctx context.Context, entityType models.EntityType, id, field string, value any) error
	MoveStage(ctx context.Context, entityType models.EntityType, id, stageID string) error
	AssignOwner(ctx context.Context, entityType models.EntityType, id, ownerID string) error
	AddTags(ctx context.Context, entityType models.EntityType, id string, tags []string) error
	RemoveTags(ctx context.Context, entityType models.EntityType, id string, tags []string) error
	CreateTask(ctx context.Context, task *Task) error
	CreateActivity(ctx context.Context, activity *Activity) error
	OverdueTasks(ctx context.Context, now time.Time) ([]*Task, error)
}
