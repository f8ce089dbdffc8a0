package webhook

import (
	"context"
	"log/slog"
	"time"

	"github.com/caldera-io/relay/pkg/models"
	"github.com/caldera-io/relay/pkg/persistence"
)

// Broadcaster fans an ingested domain event out to the stored webhook
// subscriptions. It sits beside workflow dispatch: subscriptions receive
// every event they listen for whether or not any workflow matched it.
type Broadcaster struct {
	subscriptions persistence.SubscriptionRepository
	fanout        *Fanout
	logger        *slog.Logger
}

func NewBroadcaster(subscriptions persistence.SubscriptionRepository, deliverer *Deliverer, logger *slog.Logger) *Broadcaster {
	return &Broadcaster{
		subscriptions: subscriptions,
		fanout:        NewFanout(deliverer, subscriptions, logger),
		logger:        logger.With("module", "webhook_broadcaster"),
	}
}

// Broadcast delivers the event to every matching subscription and settles all
// attempts before returning. Delivery failures are logged, never surfaced.
func (b *Broadcaster) Broadcast(ctx context.Context, event models.Event) []Result {
	name := string(event.TriggerType)

	subscriptions, err := b.subscriptions.ListActiveForEvent(ctx, event.Scope, name)
	if err != nil {
		b.logger.Error("Failed to list subscriptions for event", "event", name, "error", err)

		return nil
	}

	if len(subscriptions) == 0 {
		return nil
	}

	payload := map[string]any{
		"event":          name,
		"scope":          event.Scope,
		"entity_type":    event.EntityType,
		"entity_id":      event.EntityID,
		"entity_name":    event.EntityName,
		"previous_data":  event.PreviousData,
		"new_data":       event.NewData,
		"changed_fields": event.ChangedFields,
		"timestamp":      time.Now().UTC(),
	}

	return b.fanout.Dispatch(ctx, subscriptions, name, "", payload)
}
