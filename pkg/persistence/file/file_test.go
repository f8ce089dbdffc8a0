package file_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/caldera-io/relay/pkg/models"
	"github.com/caldera-io/relay/pkg/persistence"
	"github.com/caldera-io/relay/pkg/persistence/file"
)

func sampleWorkflow(id string, triggerType models.TriggerType) *models.Workflow {
	return &models.Workflow{
		ID:     id,
		Name:   "Sample workflow",
		Status: models.WorkflowStatusActive,
		Trigger: models.Trigger{
			Type: triggerType,
		},
		Actions: []models.Action{
			{ID: "a-1", Type: models.ActionAddTag, Params: map[string]any{"tags": []string{"x"}}},
		},
	}
}

func TestWorkflowRepository_SaveAndGet(t *testing.T) {
	repo := file.NewWorkflowRepository(t.TempDir())

	workflow := sampleWorkflow("", models.TriggerDealCreated)
	require.NoError(t, repo.Save(t.Context(), workflow))

	assert.NotEmpty(t, workflow.ID)
	assert.False(t, workflow.CreatedAt.IsZero())

	loaded, err := repo.GetByID(t.Context(), workflow.ID)
	require.NoError(t, err)
	assert.Equal(t, workflow.Name, loaded.Name)
	assert.Equal(t, models.TriggerDealCreated, loaded.Trigger.Type)
	assert.Len(t, loaded.Actions, 1)
}

func TestWorkflowRepository_GetMissing(t *testing.T) {
	repo := file.NewWorkflowRepository(t.TempDir())

	_, err := repo.GetByID(t.Context(), "nope")
	require.Error(t, err)
	assert.True(t, persistence.IsWorkflowNotFound(err))
}

func TestWorkflowRepository_ListEmptyStore(t *testing.T) {
	repo := file.NewWorkflowRepository(t.TempDir())

	workflows, err := repo.List(t.Context())
	require.NoError(t, err)
	assert.Empty(t, workflows)
}

func TestWorkflowRepository_FindByTriggerType(t *testing.T) {
	repo := file.NewWorkflowRepository(t.TempDir())

	matching := sampleWorkflow("wf-deal", models.TriggerDealCreated)
	other := sampleWorkflow("wf-contact", models.TriggerContactCreated)
	inactive := sampleWorkflow("wf-off", models.TriggerDealCreated)
	inactive.Status = models.WorkflowStatusInactive

	for _, wf := range []*models.Workflow{matching, other, inactive} {
		require.NoError(t, repo.Save(t.Context(), wf))
	}

	found, err := repo.FindByTriggerType(t.Context(), models.TriggerDealCreated)
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, "wf-deal", found[0].ID)
}

func TestWorkflowRepository_IncrementUsage(t *testing.T) {
	repo := file.NewWorkflowRepository(t.TempDir())

	workflow := sampleWorkflow("wf-count", models.TriggerDealCreated)
	require.NoError(t, repo.Save(t.Context(), workflow))

	at := time.Now().UTC()
	require.NoError(t, repo.IncrementUsage(t.Context(), "wf-count", at))
	require.NoError(t, repo.IncrementUsage(t.Context(), "wf-count", at.Add(time.Minute)))

	loaded, err := repo.GetByID(t.Context(), "wf-count")
	require.NoError(t, err)
	assert.Equal(t, int64(2), loaded.ExecutionCount)
	require.NotNil(t, loaded.LastExecutedAt)
	assert.Equal(t, at.Add(time.Minute).Unix(), loaded.LastExecutedAt.Unix())
}

func TestWorkflowRepository_DeleteMissingIsNoop(t *testing.T) {
	repo := file.NewWorkflowRepository(t.TempDir())

	assert.NoError(t, repo.Delete(t.Context(), "never-existed"))
}

func TestRunRepository_UpdateRequiresExisting(t *testing.T) {
	repo := file.NewRunRepository(t.TempDir())

	err := repo.Update(t.Context(), &models.ExecutionRun{ID: "ghost"})
	require.Error(t, err)
	assert.True(t, persistence.IsRunNotFound(err))
}

func TestRunRepository_ListNewestFirst(t *testing.T) {
	repo := file.NewRunRepository(t.TempDir())
	now := time.Now().UTC()

	for i, id := range []string{"run-old", "run-mid", "run-new"} {
		require.NoError(t, repo.Save(t.Context(), &models.ExecutionRun{
			ID:         id,
			WorkflowID: "wf-1",
			Status:     models.RunStatusCompleted,
			StartedAt:  now.Add(time.Duration(i) * time.Minute),
		}))
	}

	runs, err := repo.ListByWorkflow(t.Context(), "wf-1", 0)
	require.NoError(t, err)
	require.Len(t, runs, 3)
	assert.Equal(t, "run-new", runs[0].ID)
	assert.Equal(t, "run-old", runs[2].ID)

	limited, err := repo.ListByWorkflow(t.Context(), "wf-1", 2)
	require.NoError(t, err)
	assert.Len(t, limited, 2)
}

func TestRunRepository_ListByStatus(t *testing.T) {
	repo := file.NewRunRepository(t.TempDir())
	now := time.Now().UTC()

	require.NoError(t, repo.Save(t.Context(), &models.ExecutionRun{
		ID: "run-ok", WorkflowID: "wf-1", Status: models.RunStatusCompleted, StartedAt: now,
	}))
	require.NoError(t, repo.Save(t.Context(), &models.ExecutionRun{
		ID: "run-bad", WorkflowID: "wf-1", Status: models.RunStatusFailed, StartedAt: now,
	}))

	failed, err := repo.ListByStatus(t.Context(), models.RunStatusFailed, 0)
	require.NoError(t, err)
	require.Len(t, failed, 1)
	assert.Equal(t, "run-bad", failed[0].ID)
}

func TestRunRepository_PurgeBefore(t *testing.T) {
	repo := file.NewRunRepository(t.TempDir())
	now := time.Now().UTC()

	require.NoError(t, repo.Save(t.Context(), &models.ExecutionRun{
		ID: "run-ancient", WorkflowID: "wf-1", Status: models.RunStatusCompleted,
		StartedAt: now.AddDate(0, 0, -120),
	}))
	require.NoError(t, repo.Save(t.Context(), &models.ExecutionRun{
		ID: "run-fresh", WorkflowID: "wf-1", Status: models.RunStatusCompleted,
		StartedAt: now,
	}))

	purged, err := repo.PurgeBefore(t.Context(), now.AddDate(0, 0, -90))
	require.NoError(t, err)
	assert.Equal(t, int64(1), purged)

	remaining, err := repo.ListByWorkflow(t.Context(), "wf-1", 0)
	require.NoError(t, err)
	require.Len(t, remaining, 1)
	assert.Equal(t, "run-fresh", remaining[0].ID)
}

func TestSubscriptionRepository_Lifecycle(t *testing.T) {
	repo := file.NewSubscriptionRepository(t.TempDir())

	subscription := &models.WebhookSubscription{
		Scope:  "tenant-1",
		Name:   "CI",
		URL:    "https://hooks.example.com/ci",
		Secret: "s3cret",
		Events: []string{"deal_created"},
		Active: true,
	}
	require.NoError(t, repo.Save(t.Context(), subscription))
	assert.NotEmpty(t, subscription.ID)

	at := time.Now().UTC()
	require.NoError(t, repo.TouchLastTriggered(t.Context(), subscription.ID, at))

	loaded, err := repo.GetByID(t.Context(), subscription.ID)
	require.NoError(t, err)
	require.NotNil(t, loaded.LastTriggered)
	assert.Equal(t, at.Unix(), loaded.LastTriggered.Unix())

	require.NoError(t, repo.Delete(t.Context(), subscription.ID))

	_, err = repo.GetByID(t.Context(), subscription.ID)
	assert.True(t, persistence.IsSubscriptionNotFound(err))
}

func TestSubscriptionRepository_ListActiveForEvent(t *testing.T) {
	repo := file.NewSubscriptionRepository(t.TempDir())

	save := func(id, scope string, events []string, active bool) {
		require.NoError(t, repo.Save(t.Context(), &models.WebhookSubscription{
			ID: id, Scope: scope, Name: id,
			URL: "https://hooks.example.com/" + id, Secret: "s",
			Events: events, Active: active,
		}))
	}

	save("sub-match", "tenant-1", []string{"deal_created"}, true)
	save("sub-wildcard", "tenant-1", []string{"*"}, true)
	save("sub-other", "tenant-1", []string{"contact_created"}, true)
	save("sub-off", "tenant-1", []string{"deal_created"}, false)
	save("sub-foreign", "tenant-2", []string{"deal_created"}, true)

	matched, err := repo.ListActiveForEvent(t.Context(), "tenant-1", "deal_created")
	require.NoError(t, err)
	require.Len(t, matched, 2)

	ids := []string{matched[0].ID, matched[1].ID}
	assert.Contains(t, ids, "sub-match")
	assert.Contains(t, ids, "sub-wildcard")

	// Unscoped events reach subscriptions of every scope.
	unscoped, err := repo.ListActiveForEvent(t.Context(), "", "deal_created")
	require.NoError(t, err)
	assert.Len(t, unscoped, 3)
}
