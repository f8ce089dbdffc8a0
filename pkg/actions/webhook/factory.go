package webhookaction

import (
	"github.com/caldera-io/relay/pkg/models"
	"github.com/caldera-io/relay/pkg/protocol"
	"github.com/caldera-io/relay/pkg/webhook"
)

func NewWebhookActionFactory(deliverer *webhook.Deliverer) *WebhookActionFactory {
	return &WebhookActionFactory{deliverer: deliverer}
}

type WebhookActionFactory struct {
	deliverer *webhook.Deliverer
}

func (f *WebhookActionFactory) Create(params map[string]any) (protocol.Action, error) {
	return NewWebhookAction(params, f.deliverer)
}

func (f *WebhookActionFactory) ID() string {
	return string(models.ActionWebhook)
}

func (f *WebhookActionFactory) Schema() map[string]any {
	return map[string]any{
		"type":     "object",
		"required": []string{"url", "secret"},
		"properties": map[string]any{
			"url":        map[string]any{"type": "string", "format": "uri"},
			"secret":     map[string]any{"type": "string", "minLength": 1},
			"event":      map[string]any{"type": "string"},
			"timeout_ms": map[string]any{"type": "integer", "minimum": 0},
		},
	}
}
