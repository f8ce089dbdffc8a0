package tag

import (
	"github.com/caldera-io/relay/pkg/models"
	"github.com/caldera-io/relay/pkg/protocol"
)

func tagSchema() map[string]any {
	return map[string]any{
		"type":     "object",
		"required": []string{"tags"},
		"properties": map[string]any{
			"tags": map[string]any{
				"type":     "array",
				"minItems": 1,
				"items":    map[string]any{"type": "string", "minLength": 1},
			},
		},
	}
}

func NewAddTagFactory() *AddTagFactory {
	return &AddTagFactory{}
}

type AddTagFactory struct{}

func (f *AddTagFactory) Create(params map[string]any) (protocol.Action, error) {
	return NewTagAction(params, false)
}

func (f *AddTagFactory) ID() string {
	return string(models.ActionAddTag)
}

func (f *AddTagFactory) Schema() map[string]any {
	return tagSchema()
}

func NewRemoveTagFactory() *RemoveTagFactory {
	return &RemoveTagFactory{}
}

type RemoveTagFactory struct{}

func (f *RemoveTagFactory) Create(params map[string]any) (protocol.Action, error) {
	return NewTagAction(params, true)
}

func (f *RemoveTagFactory) ID() string {
	return string(models.ActionRemoveTag)
}

func (f *RemoveTagFactory) Schema() map[string]any {
	return tagSchema()
}
