package assignowner

import (
	"github.com/caldera-io/relay/pkg/models"
	"github.com/caldera-io/relay/pkg/protocol"
)

func NewAssignOwnerFactory() *AssignOwnerFactory {
	return &AssignOwnerFactory{}
}

type AssignOwnerFactory struct{}

func (f *AssignOwnerFactory) Create(params map[string]any) (protocol.Action, error) {
	return NewAssignOwnerAction(params)
}

func (f *AssignOwnerFactory) ID() string {
	return string(models.ActionAssignOwner)
}

func (f *AssignOwnerFactory) Schema() map[string]any {
	return map[string]any{
		"type":     "object",
		"required": []string{"owner_id"},
		"properties": map[string]any{
			"owner_id": map[string]any{"type": "string", "minLength": 1},
		},
	}
}
