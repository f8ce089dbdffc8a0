package createtask

import (
	"github.com/caldera-io/relay/pkg/models"
	"github.com/caldera-io/relay/pkg/protocol"
)

func NewCreateTaskFactory() *CreateTaskFactory {
	return &CreateTaskFactory{}
}

type CreateTaskFactory struct{}

func (f *CreateTaskFactory) Create(params map[string]any) (protocol.Action, error) {
	return NewCreateTaskAction(params)
}

func (f *CreateTaskFactory) ID() string {
	return string(models.ActionCreateTask)
}

func (f *CreateTaskFactory) Schema() map[string]any {
	return map[string]any{
		"type":     "object",
		"required": []string{"title"},
		"properties": map[string]any{
			"title":       map[string]any{"type": "string", "minLength": 1},
			"description": map[string]any{"type": "string"},
			"assignee_id": map[string]any{"type": "string"},
			"due_in_days": map[string]any{"type": "integer", "minimum": 0},
		},
	}
}
