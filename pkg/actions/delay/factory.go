package delay

import (
	"github.com/caldera-io/relay/pkg/models"
	"github.com/caldera-io/relay/pkg/protocol"
)

func NewDelayActionFactory() *DelayActionFactory {
	return &DelayActionFactory{}
}

type DelayActionFactory struct{}

func (f *DelayActionFactory) Create(params map[string]any) (protocol.Action, error) {
	return NewDelayAction(params)
}

func (f *DelayActionFactory) ID() string {
	return string(models.ActionDelay)
}

func (f *DelayActionFactory) Schema() map[string]any {
	return map[string]any{
		"type":     "object",
		"required": []string{"duration_ms"},
		"properties": map[string]any{
			"duration_ms": map[string]any{"type": "integer", "minimum": 1},
		},
	}
}
