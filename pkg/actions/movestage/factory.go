package movestage

import (
	"github.com/caldera-io/relay/pkg/models"
	"github.com/caldera-io/relay/pkg/protocol"
)

func NewMoveStageFactory() *MoveStageFactory {
	return &MoveStageFactory{}
}

type MoveStageFactory struct{}

func (f *MoveStageFactory) Create(params map[string]any) (protocol.Action, error) {
	return NewMoveStageAction(params)
}

func (f *MoveStageFactory) ID() string {
	return string(models.ActionMoveStage)
}

func (f *MoveStageFactory) Schema() map[string]any {
	return map[string]any{
		"type":     "object",
		"required": []string{"stage_id"},
		"properties": map[string]any{
			"stage_id": map[string]any{"type": "string", "minLength": 1},
		},
	}
}
