// Package persistence provides the storage abstraction for workflows,
// execution runs, and webhook subscriptions.
package persistence

import (
	"context"
	"time"

	"github.com/caldera-io/relay/pkg/models"
)

// WorkflowRepository stores workflow rule definitions.
type WorkflowRepository interface {
	List(ctx context.Context) ([]*models.Workflow, error)
	GetByID(ctx context.Context, id string) (*models.Workflow, error)
	Save(ctx context.Context, workflow *models.Workflow) error
	Delete(ctx context.Context, id string) error

	// FindByTriggerType returns the active workflows listening for the
	// trigger, the dispatch-time fetch on the hot path.
	FindByTriggerType(ctx context.Context, triggerType models.TriggerType) ([]*models.Workflow, error)

	// IncrementUsage bumps the execution counter and last-executed stamp
	// atomically at the storage layer.
	IncrementUsage(ctx context.Context, id string, at time.Time) error
}

// RunRepository stores the execution ledger.
type RunRepository interface {
	Save(ctx context.Context, run *models.ExecutionRun) error
	Update(ctx context.Context, run *models.ExecutionRun) error
	GetByID(ctx context.Context, id string) (*models.ExecutionRun, error)
	ListByWorkflow(ctx context.Context, workflowID string, limit int) ([]*models.ExecutionRun, error)
	ListByStatus(ctx context.Context, status models.RunStatus, limit int) ([]*models.ExecutionRun, error)

	// PurgeBefore removes runs that started before the cutoff. Used by the
	// retention sweeper; returns the number of runs removed.
	PurgeBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

// SubscriptionRepository stores webhook subscription endpoints.
type SubscriptionRepository interface {
	List(ctx context.Context) ([]*models.WebhookSubscription, error)

	// ListActiveForEvent returns active subscriptions listening for the
	// event within the scope; an empty scope matches every subscription.
	ListActiveForEvent(ctx context.Context, scope, event string) ([]*models.WebhookSubscription, error)
	GetByID(ctx context.Context, id string) (*models.WebhookSubscription, error)
	Save(ctx context.Context, subscription *models.WebhookSubscription) error
	Delete(ctx context.Context, id string) error
	TouchLastTriggered(ctx context.Context, id string, at time.Time) error
}

type Persistence interface {
	WorkflowRepository() WorkflowRepository
	RunRepository() RunRepository
	SubscriptionRepository() SubscriptionRepository

	HealthCheck(ctx context.Context) error
	Close(ctx context.Context) error
}
