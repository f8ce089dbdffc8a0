package createactivity

import (
	"github.com/caldera-io/relay/pkg/models"
	"github.com/caldera-io/relay/pkg/protocol"
)

func NewCreateActivityFactory() *CreateActivityFactory {
	return &CreateActivityFactory{}
}

type CreateActivityFactory struct{}

func (f *CreateActivityFactory) Create(params map[string]any) (protocol.Action, error) {
	return NewCreateActivityAction(params)
}

func (f *CreateActivityFactory) ID() string {
	return string(models.ActionCreateActivity)
}

func (f *CreateActivityFactory) Schema() map[string]any {
	return map[string]any{
		"type":     "object",
		"required": []string{"kind"},
		"properties": map[string]any{
			"kind":    map[string]any{"type": "string", "minLength": 1},
			"subject": map[string]any{"type": "string"},
			"notes":   map[string]any{"type": "string"},
		},
	}
}
