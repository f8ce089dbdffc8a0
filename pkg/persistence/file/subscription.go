package file

import (
	"context"
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/caldera-io/relay/pkg/models"
	"github.com/caldera-io/relay/pkg/persistence"
)

// SubscriptionRepository stores webhook subscriptions as JSON files.
type SubscriptionRepository struct {
	root string
	mu   sync.Mutex
}

func NewSubscriptionRepository(root string) *SubscriptionRepository {
	return &SubscriptionRepository{root: root}
}

func (sr *SubscriptionRepository) dir() string {
	return path.Join(sr.root, "subscriptions")
}

// List returns every stored subscription.
func (sr *SubscriptionRepository) List(ctx context.Context) ([]*models.WebhookSubscription, error) {
	root := os.DirFS(sr.dir())

	jsonFiles, err := fs.Glob(root, "*.json")
	if err != nil {
		return nil, fmt.Errorf("failed to list subscription files: %w", err)
	}

	subscriptions := make([]*models.WebhookSubscription, 0, len(jsonFiles))

	for _, file := range jsonFiles {
		subscriptionID := file[:len(file)-5]

		subscription, err := sr.GetByID(ctx, subscriptionID)
		if err != nil {
			return nil, fmt.Errorf("failed to load subscription %s: %w", subscriptionID, err)
		}

		subscriptions = append(subscriptions, subscription)
	}

	return subscriptions, nil
}

// ListActiveForEvent returns active subscriptions listening for the event
// within the scope. An empty scope matches every subscription.
func (sr *SubscriptionRepository) ListActiveForEvent(ctx context.Context, scope, event string) ([]*models.WebhookSubscription, error) {
	all, err := sr.List(ctx)
	if err != nil {
		return nil, err
	}

	matched := make([]*models.WebhookSubscription, 0)

	for _, subscription := range all {
		if !subscription.Active || !subscription.SubscribedTo(event) {
			continue
		}

		if scope != "" && subscription.Scope != scope {
			continue
		}

		matched = append(matched, subscription)
	}

	return matched, nil
}

// GetByID retrieves a subscription by its ID.
func (sr *SubscriptionRepository) GetByID(_ context.Context, id string) (*models.WebhookSubscription, error) {
	filePath := filepath.Clean(path.Join(sr.dir(), id+".json"))

	body, err := os.ReadFile(filePath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, persistence.NewNotFoundError("GetByID", id, persistence.ErrSubscriptionNotFound)
		}

		return nil, fmt.Errorf("failed to fetch subscription %s: %w", id, err)
	}

	var subscription models.WebhookSubscription

	err = json.Unmarshal(body, &subscription)
	if err != nil {
		return nil, fmt.Errorf("failed to unmarshal subscription %s: %w", id, err)
	}

	return &subscription, nil
}

// Save writes a subscription, stamping timestamps.
func (sr *SubscriptionRepository) Save(_ context.Context, subscription *models.WebhookSubscription) error {
	sr.mu.Lock()
	defer sr.mu.Unlock()

	if subscription.ID == "" {
		id, err := uuid.NewV7()
		if err != nil {
			return fmt.Errorf("failed to generate subscription ID: %w", err)
		}

		subscription.ID = id.String()
	}

	now := time.Now().UTC()
	if subscription.CreatedAt.IsZero() {
		subscription.CreatedAt = now
	}

	subscription.UpdatedAt = now

	return sr.write(subscription)
}

func (sr *SubscriptionRepository) write(subscription *models.WebhookSubscription) error {
	err := os.MkdirAll(sr.dir(), 0750)
	if err != nil {
		return fmt.Errorf("failed to create subscriptions directory: %w", err)
	}

	data, err := json.MarshalIndent(subscription, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal subscription %s: %w", subscription.ID, err)
	}

	return os.WriteFile(path.Join(sr.dir(), subscription.ID+".json"), data, 0600)
}

// Delete removes a subscription by its ID. Missing subscriptions are a no-op.
func (sr *SubscriptionRepository) Delete(_ context.Context, id string) error {
	sr.mu.Lock()
	defer sr.mu.Unlock()

	err := os.Remove(path.Join(sr.dir(), id+".json"))
	if err != nil && os.IsNotExist(err) {
		return nil
	}

	if err != nil {
		return fmt.Errorf("failed to delete subscription %s: %w", id, err)
	}

	return nil
}

// TouchLastTriggered records the delivery attempt time, best-effort.
func (sr *SubscriptionRepository) TouchLastTriggered(ctx context.Context, id string, at time.Time) error {
	sr.mu.Lock()
	defer sr.mu.Unlock()

	subscription, err := sr.GetByID(ctx, id)
	if err != nil {
		return err
	}

	subscription.LastTriggered = &at

	return sr.write(subscription)
}
