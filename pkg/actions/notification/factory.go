package notification

import (
	"github.com/caldera-io/relay/pkg/models"
	"github.com/caldera-io/relay/pkg/protocol"
)

func NewSendNotificationFactory() *SendNotificationFactory {
	return &SendNotificationFactory{}
}

type SendNotificationFactory struct{}

func (f *SendNotificationFactory) Create(params map[string]any) (protocol.Action, error) {
	return NewNotificationAction(params, false)
}

func (f *SendNotificationFactory) ID() string {
	return string(models.ActionSendNotification)
}

func (f *SendNotificationFactory) Schema() map[string]any {
	return map[string]any{
		"type":     "object",
		"required": []string{"message"},
		"properties": map[string]any{
			"title":   map[string]any{"type": "string"},
			"message": map[string]any{"type": "string", "minLength": 1},
			"channel": map[string]any{"type": "string"},
			"user_id": map[string]any{"type": "string"},
		},
	}
}

func NewChannelMessageFactory() *ChannelMessageFactory {
	return &ChannelMessageFactory{}
}

type ChannelMessageFactory struct{}

func (f *ChannelMessageFactory) Create(params map[string]any) (protocol.Action, error) {
	return NewNotificationAction(params, true)
}

func (f *ChannelMessageFactory) ID() string {
	return string(models.ActionSendChannelMessage)
}

func (f *ChannelMessageFactory) Schema() map[string]any {
	return map[string]any{
		"type":     "object",
		"required": []string{"message", "channel"},
		"properties": map[string]any{
			"title":   map[string]any{"type": "string"},
			"message": map[string]any{"type": "string", "minLength": 1},
			"channel": map[string]any{"type": "string", "minLength": 1},
			"user_id": map[string]any{"type": "string"},
		},
	}
}
