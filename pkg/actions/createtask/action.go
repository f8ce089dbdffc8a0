// Package createtask implements the create_task action: a follow-up task
// attached to the entity that fired the trigger.
package createtask

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/caldera-io/relay/pkg/entity"
	"github.com/caldera-io/relay/pkg/models"
	"github.com/caldera-io/relay/pkg/protocol"
)

type CreateTaskAction struct {
	params models.TaskParams
}

func NewCreateTaskAction(raw map[string]any) (*CreateTaskAction, error) {
	var params models.TaskParams

	err := models.DecodeParams(raw, &params)
	if err != nil {
		return nil, err
	}

	if params.Title == "" {
		return nil, fmt.Errorf("create_task action requires a title")
	}

	if params.DueInDays < 0 {
		return nil, fmt.Errorf("create_task due_in_days must not be negative")
	}

	return &CreateTaskAction{params: params}, nil
}

func (a *CreateTaskAction) Execute(ctx context.Context, execCtx protocol.ExecutionContext, logger *slog.Logger) (any, error) {
	task := &entity.Task{
		Title:       a.params.Title,
		Description: a.params.Description,
		AssigneeID:  a.params.AssigneeID,
		EntityType:  execCtx.Event.EntityType,
		EntityID:    execCtx.Event.EntityID,
	}

	if a.params.DueInDays > 0 {
		dueAt := time.Now().UTC().AddDate(0, 0, a.params.DueInDays)
		task.DueAt = &dueAt
	}

	err := execCtx.Entities.CreateTask(ctx, task)
	if err != nil {
		return nil, fmt.Errorf("failed to create task: %w", err)
	}

	logger.Info("Task created", "task_id", task.ID, "entity_id", task.EntityID)

	return map[string]any{"task_id": task.ID}, nil
}
