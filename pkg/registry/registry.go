// Package registry maps action types to their executor factories and
// validates action definitions against per-type JSON schemas.
package registry

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/caldera-io/relay/pkg/models"
	"github.com/caldera-io/relay/pkg/protocol"
	"github.com/xeipuuv/gojsonschema"
)

type Registry struct {
	logger          *slog.Logger
	actionFactories map[string]protocol.ActionFactory
}

func NewRegistry(logger *slog.Logger) *Registry {
	return &Registry{
		logger:          logger,
		actionFactories: make(map[string]protocol.ActionFactory),
	}
}

func (r *Registry) RegisterAction(factory protocol.ActionFactory) {
	r.actionFactories[factory.ID()] = factory
}

// CreateAction builds an executor for the given action type.
func (r *Registry) CreateAction(actionType string, params map[string]any) (protocol.Action, error) {
	factory, ok := r.actionFactories[actionType]
	if !ok {
		return nil, fmt.Errorf("action type %q not registered", actionType)
	}

	return factory.Create(params)
}

// AvailableActions returns the registered action type identifiers.
func (r *Registry) AvailableActions() []string {
	types := make([]string, 0, len(r.actionFactories))
	for actionType := range r.actionFactories {
		types = append(types, actionType)
	}

	return types
}

// ValidateAction checks an action definition against its factory's JSON
// schema. Called at workflow save time so malformed definitions are rejected
// before they can reach dispatch.
func (r *Registry) ValidateAction(action models.Action) error {
	factory, ok := r.actionFactories[string(action.Type)]
	if !ok {
		return fmt.Errorf("action type %q not registered", action.Type)
	}

	schema := factory.Schema()
	if schema == nil {
		return nil
	}

	params := action.Params
	if params == nil {
		params = map[string]any{}
	}

	result, err := gojsonschema.Validate(
		gojsonschema.NewGoLoader(schema),
		gojsonschema.NewGoLoader(params),
	)
	if err != nil {
		return fmt.Errorf("failed to validate action %q params: %w", action.ID, err)
	}

	if !result.Valid() {
		details := make([]string, 0, len(result.Errors()))
		for _, desc := range result.Errors() {
			details = append(details, desc.String())
		}

		return fmt.Errorf("invalid params for action %q (%s): %s",
			action.ID, action.Type, strings.Join(details, "; "))
	}

	return nil
}

// HealthCheck reports whether the registry has the built-in set loaded.
func (r *Registry) HealthCheck() (string, bool) {
	if len(r.actionFactories) == 0 {
		return "no action factories registered", false
	}

	return fmt.Sprintf("%d action factories registered", len(r.actionFactories)), true
}
