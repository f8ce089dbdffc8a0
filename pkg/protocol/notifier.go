package protocol

import (
	"context"
	"log/slog"
)

// Notification is the payload handed to the delivery collaborator. Push and
// email fan-out are owned by that collaborator, not by the engine.
type Notification struct {
	Title   string         `json:"title"`
	Message string         `json:"message"`
	Channel string         `json:"channel,omitempty"`
	UserID  string         `json:"user_id,omitempty"`
	Data    map[string]any `json:"data,omitempty"`
}

// Notifier sends a notification. From the engine's perspective the send is
// fire-and-forget; implementations may queue.
type Notifier interface {
	Send(ctx context.Context, notification Notification) error
}

// LogNotifier writes notifications to the log. Standalone deployments use it
// until a real delivery collaborator is wired in.
type LogNotifier struct {
	Logger *slog.Logger
}

func (n LogNotifier) Send(ctx context.Context, notification Notification) error {
	n.Logger.InfoContext(ctx, "Notification",
		"title", notification.Title,
		"message", notification.Message,
		"channel", notification.Channel,
		"user_id", notification.UserID)

	return nil
}
