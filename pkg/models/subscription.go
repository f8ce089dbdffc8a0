package models

import "time"

// WebhookSubscription is an outbound delivery target. Subscriptions are
// matched by scope and event name; an optional channel filter narrows
// channel-message events to one channel.
//
// MaxRetries is stored for forward compatibility but no automatic retry is
// performed; failed deliveries are logged and dropped.
type WebhookSubscription struct {
	ID            string     `json:"id"`
	Scope         string     `json:"scope"  validate:"required"`
	Name          string     `json:"name"   validate:"required"`
	URL           string     `json:"url"    validate:"required,url"`
	Secret        string     `json:"secret" validate:"required"`
	Events        []string   `json:"events" validate:"required,min=1"`
	ChannelFilter string     `json:"channel_filter,omitempty"`
	Active        bool       `json:"active"`
	TimeoutMs     int        `json:"timeout_ms"`
	MaxRetries    int        `json:"max_retries"`
	LastTriggered *time.Time `json:"last_triggered,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

// SubscribedTo reports whether the subscription listens for the event name.
func (s *WebhookSubscription) SubscribedTo(event string) bool {
	for _, e := range s.Events {
		if e == event || e == "*" {
			return true
		}
	}

	return false
}
