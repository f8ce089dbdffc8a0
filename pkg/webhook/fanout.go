package webhook

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/caldera-io/relay/pkg/models"
)

// SubscriptionToucher records that a subscription was triggered. Implemented
// by the subscription repository; updates are best-effort.
type SubscriptionToucher interface {
	TouchLastTriggered(ctx context.Context, id string, at time.Time) error
}

// Fanout delivers one event to every matching subscription concurrently and
// waits for all attempts to settle. A slow or failing endpoint never starves
// the others, and no outcome is surfaced to the triggering business
// operation; failures are logged and reflected in the returned results only.
type Fanout struct {
	deliverer *Deliverer
	toucher   SubscriptionToucher
	logger    *slog.Logger
}

func NewFanout(deliverer *Deliverer, toucher SubscriptionToucher, logger *slog.Logger) *Fanout {
	return &Fanout{
		deliverer: deliverer,
		toucher:   toucher,
		logger:    logger.With("module", "webhook_fanout"),
	}
}

// Dispatch posts the payload to every active subscription that listens for
// the event (honoring the optional channel filter) and settles all attempts
// before returning.
func (f *Fanout) Dispatch(ctx context.Context, subscriptions []*models.WebhookSubscription, event, channel string, payload any) []Result {
	targets := make([]*models.WebhookSubscription, 0, len(subscriptions))

	for _, sub := range subscriptions {
		if !sub.Active || !sub.SubscribedTo(event) {
			continue
		}

		if sub.ChannelFilter != "" && channel != "" && sub.ChannelFilter != channel {
			continue
		}

		targets = append(targets, sub)
	}

	if len(targets) == 0 {
		return nil
	}

	results := make([]Result, len(targets))

	var wg sync.WaitGroup

	for i, sub := range targets {
		wg.Add(1)

		go func(i int, sub *models.WebhookSubscription) {
			defer wg.Done()

			timeout := time.Duration(sub.TimeoutMs) * time.Millisecond

			results[i] = f.deliverer.Deliver(ctx, Delivery{
				URL:       sub.URL,
				Secret:    sub.Secret,
				Event:     event,
				WebhookID: sub.ID,
				Payload:   payload,
				Timeout:   timeout,
			})

			if f.toucher != nil {
				if err := f.toucher.TouchLastTriggered(ctx, sub.ID, time.Now().UTC()); err != nil {
					f.logger.Warn("Failed to update subscription last_triggered",
						"subscription_id", sub.ID, "error", err)
				}
			}

			if !results[i].Success() {
				f.logger.Warn("Webhook delivery failed",
					"subscription_id", sub.ID,
					"url", sub.URL,
					"event", event,
					"status", results[i].StatusCode,
					"error", results[i].Err)
			}
		}(i, sub)
	}

	wg.Wait()

	return results
}
