// Package protocol defines the interfaces between the dispatcher and the
// pluggable action executors.
package protocol

import (
	"context"
	"log/slog"

	"github.com/caldera-io/relay/pkg/entity"
	"github.com/caldera-io/relay/pkg/models"
)

// ExecutionContext carries everything an action executor may touch: the
// triggering event and the external collaborators. Executors must not reach
// outside of it.
type ExecutionContext struct {
	RunID      string
	WorkflowID string
	Event      models.Event
	Entities   entity.Service
	Notifier   Notifier
}

// Action executes one side-effecting workflow step. The returned value is
// recorded on the run's action log as the step result.
type Action interface {
	Execute(ctx context.Context, execCtx ExecutionContext, logger *slog.Logger) (any, error)
}

// ActionFactory builds executors from an action's raw params bag. Schema
// returns the JSON schema the params are validated against at workflow save
// time, so definition errors surface to the administrator instead of at
// dispatch.
type ActionFactory interface {
	Create(params map[string]any) (Action, error)
	ID() string
	Schema() map[string]any
}
