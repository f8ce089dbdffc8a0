package postgresql

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/caldera-io/relay/pkg/models"
	"github.com/caldera-io/relay/pkg/persistence"
)

// SubscriptionRepository handles webhook-subscription database operations.
type SubscriptionRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewSubscriptionRepository creates a new subscription repository.
func NewSubscriptionRepository(db *sql.DB, logger *slog.Logger) *SubscriptionRepository {
	return &SubscriptionRepository{db: db, logger: logger}
}

const subscriptionColumns = `
	id
  , scope
  , name
  , url
  , secret
  , events
  , channel_filter
  , active
  , timeout_ms
  , max_retries
  , last_triggered
  , created_at
  , updated_at
`

func scanSubscription(row rowScanner) (*models.WebhookSubscription, error) {
	var (
		subscription models.WebhookSubscription
		eventsJSON   []byte
	)

	err := row.Scan(
		&subscription.ID,
		&subscription.Scope,
		&subscription.Name,
		&subscription.URL,
		&subscription.Secret,
		&eventsJSON,
		&subscription.ChannelFilter,
		&subscription.Active,
		&subscription.TimeoutMs,
		&subscription.MaxRetries,
		&subscription.LastTriggered,
		&subscription.CreatedAt,
		&subscription.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	err = json.Unmarshal(eventsJSON, &subscription.Events)
	if err != nil {
		return nil, fmt.Errorf("failed to unmarshal subscription events: %w", err)
	}

	return &subscription, nil
}

func (sr *SubscriptionRepository) querySubscriptions(ctx context.Context, query string, args ...any) ([]*models.WebhookSubscription, error) {
	rows, err := sr.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query subscriptions: %w", err)
	}

	defer func() {
		err := rows.Close()
		if err != nil {
			sr.logger.ErrorContext(ctx, "failed to close rows", "error", err)
		}
	}()

	subscriptions := make([]*models.WebhookSubscription, 0)

	for rows.Next() {
		subscription, err := scanSubscription(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan subscription: %w", err)
		}

		subscriptions = append(subscriptions, subscription)
	}

	err = rows.Err()
	if err != nil {
		return nil, fmt.Errorf("error iterating subscriptions: %w", err)
	}

	return subscriptions, nil
}

// List returns every subscription.
func (sr *SubscriptionRepository) List(ctx context.Context) ([]*models.WebhookSubscription, error) {
	query := `
		SELECT ` + subscriptionColumns + `
		FROM webhook_subscriptions
		ORDER BY created_at DESC
	`

	return sr.querySubscriptions(ctx, query)
}

// ListActiveForEvent returns active subscriptions listening for the event
// within the scope. The wildcard "*" subscription matches every event; an
// empty scope matches every subscription.
func (sr *SubscriptionRepository) ListActiveForEvent(ctx context.Context, scope, event string) ([]*models.WebhookSubscription, error) {
	query := `
		SELECT ` + subscriptionColumns + `
		FROM webhook_subscriptions
		WHERE active = TRUE
		  AND (events @> to_jsonb($1::text) OR events @> to_jsonb('*'::text))
		  AND ($2 = '' OR scope = $2)
		ORDER BY created_at
	`

	return sr.querySubscriptions(ctx, query, event, scope)
}

// GetByID returns a subscription by its ID.
func (sr *SubscriptionRepository) GetByID(ctx context.Context, id string) (*models.WebhookSubscription, error) {
	query := `
		SELECT ` + subscriptionColumns + `
		FROM webhook_subscriptions
		WHERE id = $1
	`

	subscription, err := scanSubscription(sr.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, persistence.NewNotFoundError("GetByID", id, persistence.ErrSubscriptionNotFound)
		}

		return nil, fmt.Errorf("failed to scan subscription: %w", err)
	}

	return subscription, nil
}

// Save upserts a subscription. Missing IDs are generated here.
func (sr *SubscriptionRepository) Save(ctx context.Context, subscription *models.WebhookSubscription) error {
	now := time.Now().UTC()

	if subscription.CreatedAt.IsZero() {
		subscription.CreatedAt = now
	}

	subscription.UpdatedAt = now

	if subscription.ID == "" {
		id, err := uuid.NewV7()
		if err != nil {
			return fmt.Errorf("failed to generate subscription ID: %w", err)
		}

		subscription.ID = id.String()
	}

	eventsJSON, err := json.Marshal(subscription.Events)
	if err != nil {
		return fmt.Errorf("failed to marshal subscription events: %w", err)
	}

	query := `
		INSERT INTO webhook_subscriptions (id, scope, name, url, secret, events,
			channel_filter, active, timeout_ms, max_retries, last_triggered,
			created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		ON CONFLICT (id) DO UPDATE SET
			scope = EXCLUDED.scope,
			name = EXCLUDED.name,
			url = EXCLUDED.url,
			secret = EXCLUDED.secret,
			events = EXCLUDED.events,
			channel_filter = EXCLUDED.channel_filter,
			active = EXCLUDED.active,
			timeout_ms = EXCLUDED.timeout_ms,
			max_retries = EXCLUDED.max_retries,
			updated_at = EXCLUDED.updated_at
	`

	_, err = sr.db.ExecContext(ctx, query,
		subscription.ID,
		subscription.Scope,
		subscription.Name,
		subscription.URL,
		subscription.Secret,
		eventsJSON,
		subscription.ChannelFilter,
		subscription.Active,
		subscription.TimeoutMs,
		subscription.MaxRetries,
		subscription.LastTriggered,
		subscription.CreatedAt,
		subscription.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save subscription: %w", err)
	}

	return nil
}

// Delete removes a subscription.
func (sr *SubscriptionRepository) Delete(ctx context.Context, id string) error {
	result, err := sr.db.ExecContext(ctx, "DELETE FROM webhook_subscriptions WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("failed to delete subscription %s: %w", id, err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check delete result: %w", err)
	}

	if affected == 0 {
		return persistence.NewNotFoundError("Delete", id, persistence.ErrSubscriptionNotFound)
	}

	return nil
}

// TouchLastTriggered records the delivery attempt time.
func (sr *SubscriptionRepository) TouchLastTriggered(ctx context.Context, id string, at time.Time) error {
	_, err := sr.db.ExecContext(ctx,
		"UPDATE webhook_subscriptions SET last_triggered = $2 WHERE id = $1", id, at)
	if err != nil {
		return fmt.Errorf("failed to update subscription last_triggered: %w", err)
	}

	return nil
}
