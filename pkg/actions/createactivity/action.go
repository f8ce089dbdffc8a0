// Package createactivity implements the create_activity action: a timeline
// entry (call, note, meeting) on the triggering entity.
package createactivity

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/caldera-io/relay/pkg/entity"
	"github.com/caldera-io/relay/pkg/models"
	"github.com/caldera-io/relay/pkg/protocol"
)

type CreateActivityAction struct {
	params models.ActivityParams
}

func NewCreateActivityAction(raw map[string]any) (*CreateActivityAction, error) {
	var params models.ActivityParams

	err := models.DecodeParams(raw, &params)
	if err != nil {
		return nil, err
	}

	if params.Kind == "" {
		return nil, fmt.Errorf("create_activity action requires a kind")
	}

	return &CreateActivityAction{params: params}, nil
}

func (a *CreateActivityAction) Execute(ctx context.Context, execCtx protocol.ExecutionContext, logger *slog.Logger) (any, error) {
	activity := &entity.Activity{
		Kind:       a.params.Kind,
		Subject:    a.params.Subject,
		Notes:      a.params.Notes,
		EntityType: execCtx.Event.EntityType,
		EntityID:   execCtx.Event.EntityID,
	}

	err := execCtx.Entities.CreateActivity(ctx, activity)
	if err != nil {
		return nil, fmt.Errorf("failed to create activity: %w", err)
	}

	logger.Info("Activity created", "activity_id", activity.ID, "kind", activity.Kind)

	return map[string]any{"activity_id": activity.ID}, nil
}
