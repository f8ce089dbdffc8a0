// Package updatefield implements the update_field action. The write goes
// through the entity service and is subject to its validation; a rejected
// write fails the action, never the run.
package updatefield

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/caldera-io/relay/pkg/models"
	"github.com/caldera-io/relay/pkg/protocol"
)

type UpdateFieldAction struct {
	params models.UpdateFieldParams
}

func NewUpdateFieldAction(raw map[string]any) (*UpdateFieldAction, error) {
	var params models.UpdateFieldParams

	err := models.DecodeParams(raw, &params)
	if err != nil {
		return nil, err
	}

	if params.Field == "" {
		return nil, fmt.Errorf("update_field action requires a field name")
	}

	return &UpdateFieldAction{params: params}, nil
}

func (a *UpdateFieldAction) Execute(ctx context.Context, execCtx protocol.ExecutionContext, logger *slog.Logger) (any, error) {
	err := execCtx.Entities.UpdateField(ctx, execCtx.Event.EntityType, execCtx.Event.EntityID, a.params.Field, a.params.Value)
	if err != nil {
		return nil, fmt.Errorf("failed to update field %q: %w", a.params.Field, err)
	}

	logger.Info("Field updated", "field", a.params.Field, "entity_id", execCtx.Event.EntityID)

	return map[string]any{"field": a.params.Field, "value": a.params.Value}, nil
}
