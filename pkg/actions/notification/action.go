// Package notification implements the send_notification and
// send_channel_message actions. Both hand a payload to the notifier
// collaborator; the channel variant additionally requires a target channel.
package notification

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/caldera-io/relay/pkg/models"
	"github.com/caldera-io/relay/pkg/protocol"
)

type NotificationAction struct {
	params         models.NotificationParams
	requireChannel bool
}

func NewNotificationAction(raw map[string]any, requireChannel bool) (*NotificationAction, error) {
	var params models.NotificationParams

	err := models.DecodeParams(raw, &params)
	if err != nil {
		return nil, err
	}

	if params.Message == "" {
		return nil, fmt.Errorf("notification action requires a message")
	}

	if requireChannel && params.Channel == "" {
		return nil, fmt.Errorf("channel message action requires a channel")
	}

	return &NotificationAction{params: params, requireChannel: requireChannel}, nil
}

func (a *NotificationAction) Execute(ctx context.Context, execCtx protocol.ExecutionContext, logger *slog.Logger) (any, error) {
	notification := protocol.Notification{
		Title:   a.params.Title,
		Message: a.params.Message,
		Channel: a.params.Channel,
		UserID:  a.params.UserID,
		Data: map[string]any{
			"workflow_id": execCtx.WorkflowID,
			"entity_type": execCtx.Event.EntityType,
			"entity_id":   execCtx.Event.EntityID,
			"entity_name": execCtx.Event.EntityName,
		},
	}

	err := execCtx.Notifier.Send(ctx, notification)
	if err != nil {
		return nil, fmt.Errorf("failed to send notification: %w", err)
	}

	logger.Info("Notification sent", "channel", a.params.Channel, "user_id", a.params.UserID)

	return map[string]any{"sent": true, "channel": a.params.Channel}, nil
}
