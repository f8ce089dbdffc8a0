// Package webhookaction implements the webhook action: a single signed POST
// to the configured URL carrying the run's trigger snapshot. The delivery is
// one attempt bounded by the configured timeout; a non-2xx response fails the
// action and the failure is recorded on the action log like any other.
package webhookaction

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/caldera-io/relay/pkg/models"
	"github.com/caldera-io/relay/pkg/protocol"
	"github.com/caldera-io/relay/pkg/webhook"
)

type WebhookAction struct {
	params    models.WebhookParams
	deliverer *webhook.Deliverer
}

func NewWebhookAction(raw map[string]any, deliverer *webhook.Deliverer) (*WebhookAction, error) {
	var params models.WebhookParams

	err := models.DecodeParams(raw, &params)
	if err != nil {
		return nil, err
	}

	if params.URL == "" {
		return nil, fmt.Errorf("webhook action requires a url")
	}

	if params.Secret == "" {
		return nil, fmt.Errorf("webhook action requires a signing secret")
	}

	return &WebhookAction{params: params, deliverer: deliverer}, nil
}

func (a *WebhookAction) Execute(ctx context.Context, execCtx protocol.ExecutionContext, logger *slog.Logger) (any, error) {
	event := a.params.Event
	if event == "" {
		event = string(execCtx.Event.TriggerType)
	}

	payload := map[string]any{
		"event":          event,
		"workflow_id":    execCtx.WorkflowID,
		"run_id":         execCtx.RunID,
		"entity_type":    execCtx.Event.EntityType,
		"entity_id":      execCtx.Event.EntityID,
		"entity_name":    execCtx.Event.EntityName,
		"previous_data":  execCtx.Event.PreviousData,
		"new_data":       execCtx.Event.NewData,
		"changed_fields": execCtx.Event.ChangedFields,
	}

	result := a.deliverer.Deliver(ctx, webhook.Delivery{
		URL:       a.params.URL,
		Secret:    a.params.Secret,
		Event:     event,
		WebhookID: execCtx.RunID,
		Payload:   payload,
		Timeout:   time.Duration(a.params.TimeoutMs) * time.Millisecond,
	})

	if !result.Success() {
		return nil, fmt.Errorf("webhook delivery to %s failed: %w", a.params.URL, result.Err)
	}

	logger.Info("Webhook delivered", "url", a.params.URL, "status", result.StatusCode, "duration_ms", result.Duration.Milliseconds())

	return map[string]any{"status_code": result.StatusCode, "duration_ms": result.Duration.Milliseconds()}, nil
}
