// Package assignowner implements the assign_owner action.
package assignowner

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/caldera-io/relay/pkg/models"
	"github.com/caldera-io/relay/pkg/protocol"
)

type AssignOwnerAction struct {
	params models.AssignOwnerParams
}

func NewAssignOwnerAction(raw map[string]any) (*AssignOwnerAction, error) {
	var params models.AssignOwnerParams

	err := models.DecodeParams(raw, &params)
	if err != nil {
		return nil, err
	}

	if params.OwnerID == "" {
		return nil, fmt.Errorf("assign_owner action requires an owner_id")
	}

	return &AssignOwnerAction{params: params}, nil
}

func (a *AssignOwnerAction) Execute(ctx context.Context, execCtx protocol.ExecutionContext, logger *slog.Logger) (any, error) {
	err := execCtx.Entities.AssignOwner(ctx, execCtx.Event.EntityType, execCtx.Event.EntityID, a.params.OwnerID)
	if err != nil {
		return nil, fmt.Errorf("failed to assign owner: %w", err)
	}

	logger.Info("Owner assigned", "entity_id", execCtx.Event.EntityID, "owner_id", a.params.OwnerID)

	return map[string]any{"owner_id": a.params.OwnerID}, nil
}
