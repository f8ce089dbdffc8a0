package dispatcher

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/caldera-io/relay/pkg/actions"
	"github.com/caldera-io/relay/pkg/entity"
	"github.com/caldera-io/relay/pkg/models"
	"github.com/caldera-io/relay/pkg/persistence/file"
	"github.com/caldera-io/relay/pkg/protocol"
	"github.com/caldera-io/relay/pkg/registry"
	"github.com/caldera-io/relay/pkg/webhook"
)

type recordingNotifier struct {
	mu   sync.Mutex
	sent []protocol.Notification
}

func (n *recordingNotifier) Send(_ context.Context, notification protocol.Notification) error {
	n.mu.Lock()
	defer n.mu.Unlock()

	n.sent = append(n.sent, notification)

	return nil
}

func (n *recordingNotifier) Sent() []protocol.Notification {
	n.mu.Lock()
	defer n.mu.Unlock()

	return append([]protocol.Notification(nil), n.sent...)
}

type testHarness struct {
	dispatcher  *Dispatcher
	persistence *file.Persistence
	entities    *entity.MemoryStore
	notifier    *recordingNotifier
}

func newTestHarness(t *testing.T) *testHarness {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	store := file.NewPersistence(t.TempDir())
	entities := entity.NewMemoryStore()
	notifier := &recordingNotifier{}

	reg := registry.NewRegistry(logger)
	actions.RegisterDefaults(reg, webhook.NewDeliverer(logger))

	return &testHarness{
		dispatcher:  NewDispatcher(store, reg, entities, notifier, nil, nil, logger),
		persistence: store,
		entities:    entities,
		notifier:    notifier,
	}
}

func (h *testHarness) saveWorkflow(t *testing.T, workflow *models.Workflow) {
	t.Helper()
	require.NoError(t, h.persistence.WorkflowRepository().Save(t.Context(), workflow))
}

func (h *testHarness) runsFor(t *testing.T, workflowID string) []*models.ExecutionRun {
	t.Helper()

	runs, err := h.persistence.RunRepository().ListByWorkflow(t.Context(), workflowID, 0)
	require.NoError(t, err)

	return runs
}

func dealEvent(dealID string, data map[string]any) models.Event {
	return models.Event{
		TriggerType: models.TriggerDealStageChanged,
		EntityType:  models.EntityTypeDeal,
		EntityID:    dealID,
		EntityName:  "Acme renewal",
		NewData:     data,
	}
}

func TestDispatch_NoRunWithoutMatch(t *testing.T) {
	h := newTestHarness(t)

	h.saveWorkflow(t, &models.Workflow{
		ID:     "wf-big-deals",
		Name:   "Big deal alert",
		Status: models.WorkflowStatusActive,
		Trigger: models.Trigger{
			Type: models.TriggerDealCreated,
			Conditions: []models.ConditionNode{
				{ID: "c1", Field: "value", Operator: models.OperatorGreaterThan, Value: 1000},
			},
		},
		Actions: []models.Action{
			{ID: "a1", Type: models.ActionSendNotification, Order: 1, Params: map[string]any{"message": "big deal"}},
		},
	})

	runs, err := h.dispatcher.Dispatch(t.Context(), models.Event{
		TriggerType: models.TriggerDealCreated,
		EntityType:  models.EntityTypeDeal,
		EntityID:    "d1",
		NewData:     map[string]any{"value": 500},
	})

	require.NoError(t, err)
	assert.Empty(t, runs)
	assert.Empty(t, h.runsFor(t, "wf-big-deals"))
	assert.Empty(t, h.notifier.Sent())
}

func TestDispatch_EmptyConditionsAlwaysMatch(t *testing.T) {
	h := newTestHarness(t)

	h.saveWorkflow(t, &models.Workflow{
		ID:      "wf-any-deal",
		Name:    "Every new deal",
		Status:  models.WorkflowStatusActive,
		Trigger: models.Trigger{Type: models.TriggerDealCreated},
		Actions: []models.Action{
			{ID: "a1", Type: models.ActionSendNotification, Order: 1, Params: map[string]any{"message": "new deal"}},
		},
	})

	runs, err := h.dispatcher.Dispatch(t.Context(), models.Event{
		TriggerType: models.TriggerDealCreated,
		EntityType:  models.EntityTypeDeal,
		EntityID:    "d1",
		NewData:     map[string]any{"value": 1},
	})

	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, models.RunStatusCompleted, runs[0].Status)
	assert.Len(t, h.notifier.Sent(), 1)
}

func TestDispatch_InactiveWorkflowNeverFires(t *testing.T) {
	h := newTestHarness(t)

	h.saveWorkflow(t, &models.Workflow{
		ID:      "wf-disabled",
		Name:    "Disabled rule",
		Status:  models.WorkflowStatusInactive,
		Trigger: models.Trigger{Type: models.TriggerDealCreated},
		Actions: []models.Action{
			{ID: "a1", Type: models.ActionSendNotification, Order: 1, Params: map[string]any{"message": "x"}},
		},
	})

	runs, err := h.dispatcher.Dispatch(t.Context(), models.Event{
		TriggerType: models.TriggerDealCreated,
		EntityType:  models.EntityTypeDeal,
		EntityID:    "d1",
		NewData:     map[string]any{},
	})

	require.NoError(t, err)
	assert.Empty(t, runs)
}

func TestDispatch_ActionOrderPreserved(t *testing.T) {
	h := newTestHarness(t)
	h.entities.Put(models.EntityTypeDeal, "d1", map[string]any{"name": "Acme"})

	// The slow first action must not let the later, faster ones log first.
	h.saveWorkflow(t, &models.Workflow{
		ID:      "wf-ordered",
		Name:    "Ordered steps",
		Status:  models.WorkflowStatusActive,
		Trigger: models.Trigger{Type: models.TriggerDealStageChanged},
		Actions: []models.Action{
			{ID: "slow", Type: models.ActionDelay, Order: 1, Params: map[string]any{"duration_ms": 30}},
			{ID: "medium", Type: models.ActionDelay, Order: 2, Params: map[string]any{"duration_ms": 5}},
			{ID: "fast", Type: models.ActionAddTag, Order: 3, Params: map[string]any{"tags": []string{"done"}}},
		},
	})

	runs, err := h.dispatcher.Dispatch(t.Context(), dealEvent("d1", map[string]any{"stageId": "s2"}))

	require.NoError(t, err)
	require.Len(t, runs, 1)

	run := runs[0]
	require.Len(t, run.ActionLogs, 3)
	assert.Equal(t, "slow", run.ActionLogs[0].ActionID)
	assert.Equal(t, "medium", run.ActionLogs[1].ActionID)
	assert.Equal(t, "fast", run.ActionLogs[2].ActionID)

	for _, log := range run.ActionLogs {
		assert.Equal(t, models.ActionLogCompleted, log.Status)
	}
}

func TestDispatch_PartialFailureStillCompletes(t *testing.T) {
	h := newTestHarness(t)

	// update_field targets a deal that does not exist, so the first action
	// fails; the second must still run and the run must end completed.
	h.saveWorkflow(t, &models.Workflow{
		ID:      "wf-partial",
		Name:    "Partial failure",
		Status:  models.WorkflowStatusActive,
		Trigger: models.Trigger{Type: models.TriggerDealStageChanged},
		Actions: []models.Action{
			{ID: "broken", Type: models.ActionUpdateField, Order: 1, Params: map[string]any{"field": "priority", "value": "high"}},
			{ID: "notify", Type: models.ActionSendNotification, Order: 2, Params: map[string]any{"message": "stage changed"}},
		},
	})

	runs, err := h.dispatcher.Dispatch(t.Context(), dealEvent("missing-deal", map[string]any{"stageId": "s2"}))

	require.NoError(t, err)
	require.Len(t, runs, 1)

	run := runs[0]
	assert.Equal(t, models.RunStatusCompleted, run.Status)
	require.Len(t, run.ActionLogs, 2)

	assert.Equal(t, models.ActionLogFailed, run.ActionLogs[0].Status)
	assert.NotEmpty(t, run.ActionLogs[0].Error)

	assert.Equal(t, models.ActionLogCompleted, run.ActionLogs[1].Status)
	assert.Len(t, h.notifier.Sent(), 1)

	// The persisted ledger reflects the same outcome.
	stored, err := h.persistence.RunRepository().GetByID(t.Context(), run.ID)
	require.NoError(t, err)
	assert.Equal(t, models.RunStatusCompleted, stored.Status)
	assert.Equal(t, models.ActionLogFailed, stored.ActionLogs[0].Status)
}

func TestDispatch_WorkflowIsolation(t *testing.T) {
	h := newTestHarness(t)
	h.entities.Put(models.EntityTypeDeal, "d1", map[string]any{"name": "Acme"})

	// First workflow carries an unregistered action type; the second must
	// still run for the same event.
	h.saveWorkflow(t, &models.Workflow{
		ID:      "wf-a-bad",
		Name:    "Bad definition",
		Status:  models.WorkflowStatusActive,
		Trigger: models.Trigger{Type: models.TriggerDealStageChanged},
		Actions: []models.Action{
			{ID: "a1", Type: "no_such_action", Order: 1, Params: map[string]any{}},
		},
	})
	h.saveWorkflow(t, &models.Workflow{
		ID:      "wf-b-good",
		Name:    "Good rule",
		Status:  models.WorkflowStatusActive,
		Trigger: models.Trigger{Type: models.TriggerDealStageChanged},
		Actions: []models.Action{
			{ID: "a1", Type: models.ActionSendNotification, Order: 1, Params: map[string]any{"message": "ok"}},
		},
	})

	runs, err := h.dispatcher.Dispatch(t.Context(), dealEvent("d1", map[string]any{"stageId": "s2"}))

	// The unknown action type is an action failure, not a dispatch fault;
	// both workflows produce completed runs.
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Len(t, h.notifier.Sent(), 1)
}

func TestDispatchAsync_NeverSurfacesFailures(t *testing.T) {
	h := newTestHarness(t)

	h.saveWorkflow(t, &models.Workflow{
		ID:      "wf-async",
		Name:    "Async rule",
		Status:  models.WorkflowStatusActive,
		Trigger: models.Trigger{Type: models.TriggerContactCreated},
		Actions: []models.Action{
			{ID: "broken", Type: models.ActionMoveStage, Order: 1, Params: map[string]any{"stage_id": "s9"}},
		},
	})

	// Must return without blocking even though the action will fail.
	h.dispatcher.DispatchAsync(t.Context(), models.Event{
		TriggerType: models.TriggerContactCreated,
		EntityType:  models.EntityTypeContact,
		EntityID:    "missing",
		NewData:     map[string]any{},
	})

	require.Eventually(t, func() bool {
		runs, err := h.persistence.RunRepository().ListByWorkflow(context.Background(), "wf-async", 0)

		return err == nil && len(runs) == 1 && runs[0].Status.Terminal()
	}, 2*time.Second, 10*time.Millisecond)

	runs := h.runsFor(t, "wf-async")
	assert.Equal(t, models.RunStatusCompleted, runs[0].Status)
	assert.Equal(t, models.ActionLogFailed, runs[0].ActionLogs[0].Status)
}

func TestDispatch_ClosedWonEndToEnd(t *testing.T) {
	h := newTestHarness(t)
	h.entities.Put(models.EntityTypeDeal, "d1", map[string]any{
		"name": "Acme renewal", "value": 1500, "stageId": "negotiation",
	})

	var (
		mu           sync.Mutex
		gotSignature string
		gotTimestamp string
		gotBody      []byte
	)

	endpoint := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		defer mu.Unlock()
		gotSignature = r.Header.Get(webhook.HeaderSignature)
		gotTimestamp = r.Header.Get(webhook.HeaderTimestamp)
		gotBody, _ = io.ReadAll(r.Body)
		w.WriteHeader(http.StatusOK)
	}))
	defer endpoint.Close()

	h.saveWorkflow(t, &models.Workflow{
		ID:     "wf-closed-won",
		Name:   "Closed won celebration",
		Status: models.WorkflowStatusActive,
		Trigger: models.Trigger{
			Type: models.TriggerDealStageChanged,
			Conditions: []models.ConditionNode{
				{ID: "c1", Field: "stage.id", Operator: models.OperatorEquals, Value: "closed-won"},
				{ID: "c2", Field: "value", Operator: models.OperatorGreaterThan, Value: 1000},
			},
		},
		Actions: []models.Action{
			{ID: "tag", Type: models.ActionAddTag, Order: 1, Params: map[string]any{"tags": []string{"won"}}},
			{ID: "hook", Type: models.ActionWebhook, Order: 2, Params: map[string]any{
				"url": endpoint.URL, "secret": "hooksecret", "event": "deal.closed_won",
			}},
		},
	})

	runs, err := h.dispatcher.Dispatch(t.Context(), dealEvent("d1", map[string]any{
		"stage": map[string]any{"id": "closed-won"},
		"value": 1500,
	}))

	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, models.RunStatusCompleted, runs[0].Status)

	// Entity side effect landed.
	deal, err := h.entities.Get(t.Context(), models.EntityTypeDeal, "d1")
	require.NoError(t, err)
	assert.Contains(t, deal["tags"], "won")

	// The delivered payload verifies against the shared secret.
	mu.Lock()
	defer mu.Unlock()
	require.NotEmpty(t, gotSignature)
	assert.True(t, webhook.Verify("hooksecret", gotTimestamp, gotBody, gotSignature))

	// Usage counters were bumped.
	workflow, err := h.persistence.WorkflowRepository().GetByID(t.Context(), "wf-closed-won")
	require.NoError(t, err)
	assert.Equal(t, int64(1), workflow.ExecutionCount)
	assert.NotNil(t, workflow.LastExecutedAt)
}

func TestRunWorkflow_ManualRun(t *testing.T) {
	h := newTestHarness(t)
	h.entities.Put(models.EntityTypeDeal, "d1", map[string]any{
		"name": "Acme renewal", "value": 2000,
	})

	h.saveWorkflow(t, &models.Workflow{
		ID:     "wf-manual",
		Name:   "Manual rule",
		Status: models.WorkflowStatusActive,
		Trigger: models.Trigger{
			Type: models.TriggerDealUpdated,
			Conditions: []models.ConditionNode{
				{ID: "c1", Field: "value", Operator: models.OperatorGreaterThan, Value: 1000},
			},
		},
		Actions: []models.Action{
			{ID: "a1", Type: models.ActionAssignOwner, Order: 1, Params: map[string]any{"owner_id": "u-7"}},
			{ID: "a2", Type: models.ActionSendNotification, Order: 2, Params: map[string]any{"message": "reassigned"}},
		},
	})

	result := h.dispatcher.RunWorkflow(t.Context(), "wf-manual", "d1")

	assert.True(t, result.Success)
	assert.Equal(t, 2, result.ActionsExecuted)
	assert.Empty(t, result.Error)

	deal, err := h.entities.Get(t.Context(), models.EntityTypeDeal, "d1")
	require.NoError(t, err)
	assert.Equal(t, "u-7", deal["ownerId"])
}

func TestRunWorkflow_ConditionsStillApply(t *testing.T) {
	h := newTestHarness(t)
	h.entities.Put(models.EntityTypeDeal, "d1", map[string]any{"value": 100})

	h.saveWorkflow(t, &models.Workflow{
		ID:     "wf-guarded",
		Name:   "Guarded rule",
		Status: models.WorkflowStatusActive,
		Trigger: models.Trigger{
			Type: models.TriggerDealUpdated,
			Conditions: []models.ConditionNode{
				{ID: "c1", Field: "value", Operator: models.OperatorGreaterThan, Value: 1000},
			},
		},
		Actions: []models.Action{
			{ID: "a1", Type: models.ActionSendNotification, Order: 1, Params: map[string]any{"message": "x"}},
		},
	})

	result := h.dispatcher.RunWorkflow(t.Context(), "wf-guarded", "d1")

	assert.False(t, result.Success)
	assert.Zero(t, result.ActionsExecuted)
	assert.NotEmpty(t, result.Error)
	assert.Empty(t, h.runsFor(t, "wf-guarded"))
}

func TestRunWorkflow_UnknownWorkflow(t *testing.T) {
	h := newTestHarness(t)

	result := h.dispatcher.RunWorkflow(t.Context(), "nope", "d1")

	assert.False(t, result.Success)
	assert.NotEmpty(t, result.Error)
}

func TestDispatch_DelayRespectsCancellation(t *testing.T) {
	h := newTestHarness(t)

	h.saveWorkflow(t, &models.Workflow{
		ID:      "wf-delayed",
		Name:    "Long delay",
		Status:  models.WorkflowStatusActive,
		Trigger: models.Trigger{Type: models.TriggerDealCreated},
		Actions: []models.Action{
			{ID: "wait", Type: models.ActionDelay, Order: 1, Params: map[string]any{"duration_ms": 60000}},
			{ID: "after", Type: models.ActionSendNotification, Order: 2, Params: map[string]any{"message": "never"}},
		},
	})

	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan []*models.ExecutionRun, 1)

	go func() {
		runs, _ := h.dispatcher.Dispatch(ctx, models.Event{
			TriggerType: models.TriggerDealCreated,
			EntityType:  models.EntityTypeDeal,
			EntityID:    "d1",
			NewData:     map[string]any{},
		})
		done <- runs
	}()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case runs := <-done:
		require.Len(t, runs, 1)
		assert.Equal(t, models.RunStatusCancelled, runs[0].Status)
		require.Len(t, runs[0].ActionLogs, 1)
		assert.Equal(t, models.ActionLogCancelled, runs[0].ActionLogs[0].Status)
		assert.Empty(t, h.notifier.Sent())
	case <-time.After(5 * time.Second):
		t.Fatal("dispatch did not return after cancellation")
	}
}

func TestDispatch_BroadcastsToSubscriptions(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	store := file.NewPersistence(t.TempDir())
	entities := entity.NewMemoryStore()
	deliverer := webhook.NewDeliverer(logger)

	reg := registry.NewRegistry(logger)
	actions.RegisterDefaults(reg, deliverer)

	type capture struct {
		signature string
		timestamp string
		body      []byte
	}

	received := make(chan capture, 1)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		received <- capture{
			signature: r.Header.Get(webhook.HeaderSignature),
			timestamp: r.Header.Get(webhook.HeaderTimestamp),
			body:      body,
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	subscription := &models.WebhookSubscription{
		ID:     "sub-1",
		Scope:  "tenant-1",
		Name:   "Deal feed",
		URL:    server.URL,
		Secret: "topsecret",
		Events: []string{"deal_stage_changed"},
		Active: true,
	}
	require.NoError(t, store.SubscriptionRepository().Save(t.Context(), subscription))

	broadcaster := webhook.NewBroadcaster(store.SubscriptionRepository(), deliverer, logger)
	d := NewDispatcher(store, reg, entities, &recordingNotifier{}, broadcaster, nil, logger)

	// No workflow listens for this event; the subscription still receives it.
	runs, err := d.Dispatch(t.Context(), dealEvent("d1", map[string]any{"stageId": "s-2"}))
	require.NoError(t, err)
	assert.Empty(t, runs)

	select {
	case got := <-received:
		assert.True(t, webhook.Verify("topsecret", got.timestamp, got.body, got.signature))
	case <-time.After(2 * time.Second):
		t.Fatal("subscription did not receive the event")
	}

	updated, err := store.SubscriptionRepository().GetByID(t.Context(), "sub-1")
	require.NoError(t, err)
	assert.NotNil(t, updated.LastTriggered)
}
