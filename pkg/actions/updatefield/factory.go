package updatefield

import (
	"github.com/caldera-io/relay/pkg/models"
	"github.com/caldera-io/relay/pkg/protocol"
)

func NewUpdateFieldFactory() *UpdateFieldFactory {
	return &UpdateFieldFactory{}
}

type UpdateFieldFactory struct{}

func (f *UpdateFieldFactory) Create(params map[string]any) (protocol.Action, error) {
	return NewUpdateFieldAction(params)
}

func (f *UpdateFieldFactory) ID() string {
	return string(models.ActionUpdateField)
}

func (f *UpdateFieldFactory) Schema() map[string]any {
	return map[string]any{
		"type":     "object",
		"required": []string{"field"},
		"properties": map[string]any{
			"field": map[string]any{"type": "string", "minLength": 1},
			"value": map[string]any{},
		},
	}
}
