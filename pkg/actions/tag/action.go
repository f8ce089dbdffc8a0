// Package tag implements the add_tag and remove_tag actions. Both operate on
// the entity's tag set: adding an existing tag and removing an absent one are
// no-ops, not failures.
package tag

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/caldera-io/relay/pkg/models"
	"github.com/caldera-io/relay/pkg/protocol"
)

type TagAction struct {
	params models.TagParams
	remove bool
}

func NewTagAction(raw map[string]any, remove bool) (*TagAction, error) {
	var params models.TagParams

	err := models.DecodeParams(raw, &params)
	if err != nil {
		return nil, err
	}

	if len(params.Tags) == 0 {
		return nil, fmt.Errorf("tag action requires at least one tag")
	}

	for _, t := range params.Tags {
		if t == "" {
			return nil, fmt.Errorf("tag action tags must not be empty strings")
		}
	}

	return &TagAction{params: params, remove: remove}, nil
}

func (a *TagAction) Execute(ctx context.Context, execCtx protocol.ExecutionContext, logger *slog.Logger) (any, error) {
	var err error

	if a.remove {
		err = execCtx.Entities.RemoveTags(ctx, execCtx.Event.EntityType, execCtx.Event.EntityID, a.params.Tags)
	} else {
		err = execCtx.Entities.AddTags(ctx, execCtx.Event.EntityType, execCtx.Event.EntityID, a.params.Tags)
	}

	if err != nil {
		return nil, fmt.Errorf("failed to modify tags: %w", err)
	}

	logger.Info("Tags modified", "entity_id", execCtx.Event.EntityID, "tags", a.params.Tags, "removed", a.remove)

	return map[string]any{"tags": a.params.Tags, "removed": a.remove}, nil
}
