// Package movestage implements the move_stage action for pipeline entities.
package movestage

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/caldera-io/relay/pkg/models"
	"github.com/caldera-io/relay/pkg/protocol"
)

type MoveStageAction struct {
	params models.MoveStageParams
}

func NewMoveStageAction(raw map[string]any) (*MoveStageAction, error) {
	var params models.MoveStageParams

	err := models.DecodeParams(raw, &params)
	if err != nil {
		return nil, err
	}

	if params.StageID == "" {
		return nil, fmt.Errorf("move_stage action requires a stage_id")
	}

	return &MoveStageAction{params: params}, nil
}

func (a *MoveStageAction) Execute(ctx context.Context, execCtx protocol.ExecutionContext, logger *slog.Logger) (any, error) {
	err := execCtx.Entities.MoveStage(ctx, execCtx.Event.EntityType, execCtx.Event.EntityID, a.params.StageID)
	if err != nil {
		return nil, fmt.Errorf("failed to move stage: %w", err)
	}

	logger.Info("Stage changed", "entity_id", execCtx.Event.EntityID, "stage_id", a.params.StageID)

	return map[string]any{"stage_id": a.params.StageID}, nil
}
