// Package dispatcher matches incoming lifecycle events against workflow
// rules and drives the action pipeline, writing the execution ledger as it
// goes.
package dispatcher

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"
	"time"

	"github.com/google/uuid"

	"github.com/caldera-io/relay/pkg/conditions"
	"github.com/caldera-io/relay/pkg/entity"
	"github.com/caldera-io/relay/pkg/eventbus"
	"github.com/caldera-io/relay/pkg/events"
	"github.com/caldera-io/relay/pkg/models"
	"github.com/caldera-io/relay/pkg/persistence"
	"github.com/caldera-io/relay/pkg/protocol"
	"github.com/caldera-io/relay/pkg/registry"
	"github.com/caldera-io/relay/pkg/webhook"
)

// Dispatcher is the engine core. It is safe for concurrent use; runs for
// different workflows or events proceed independently.
type Dispatcher struct {
	persistence persistence.Persistence
	registry    *registry.Registry
	entities    entity.Service
	notifier    protocol.Notifier
	broadcaster *webhook.Broadcaster
	eventBus    eventbus.EventBus
	logger      *slog.Logger
}

// RunResult is the manual-run contract returned to a caller who explicitly
// asked to run one workflow against one entity.
type RunResult struct {
	Success         bool   `json:"success"`
	RunID           string `json:"run_id,omitempty"`
	ActionsExecuted int    `json:"actions_executed"`
	Error           string `json:"error,omitempty"`
}

func NewDispatcher(
	persistence persistence.Persistence,
	registry *registry.Registry,
	entities entity.Service,
	notifier protocol.Notifier,
	broadcaster *webhook.Broadcaster,
	eventBus eventbus.EventBus,
	logger *slog.Logger,
) *Dispatcher {
	return &Dispatcher{
		persistence: persistence,
		registry:    registry,
		entities:    entities,
		notifier:    notifier,
		broadcaster: broadcaster,
		eventBus:    eventBus,
		logger:      logger.With("module", "dispatcher"),
	}
}

// Dispatch runs every matching workflow for the event and blocks until all
// of them finish. Workflows are processed independently; a fault in one never
// prevents the others from running, and the joined error reports every fault.
func (d *Dispatcher) Dispatch(ctx context.Context, event models.Event) ([]*models.ExecutionRun, error) {
	if !event.TriggerType.Valid() {
		return nil, fmt.Errorf("unknown trigger type %q", event.TriggerType)
	}

	workflows, err := d.persistence.WorkflowRepository().FindByTriggerType(ctx, event.TriggerType)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch workflows for trigger %s: %w", event.TriggerType, err)
	}

	var (
		runs   []*models.ExecutionRun
		faults []error
	)

	for _, workflow := range workflows {
		if !conditions.Evaluate(event.Snapshot(), workflow.Trigger.Conditions) {
			continue
		}

		run, err := d.execute(ctx, workflow, event)
		if run != nil {
			runs = append(runs, run)
		}

		if err != nil {
			d.logger.Error("Workflow dispatch failed",
				"workflow_id", workflow.ID, "trigger_type", event.TriggerType, "error", err)
			faults = append(faults, fmt.Errorf("workflow %s: %w", workflow.ID, err))
		}
	}

	// Subscriptions listen at the event level, independent of workflow
	// matches. Delivery outcomes are never part of the dispatch error.
	if d.broadcaster != nil {
		d.broadcaster.Broadcast(ctx, event)
	}

	return runs, errors.Join(faults...)
}

// DispatchAsync fires the dispatch on its own goroutine and returns
// immediately. Failures are logged and discoverable through the ledger only;
// nothing is ever surfaced to the triggering business operation.
func (d *Dispatcher) DispatchAsync(ctx context.Context, event models.Event) {
	// Detached from the caller's (typically request-scoped) context so the
	// mutation response never cancels a run mid-flight.
	detached := context.WithoutCancel(ctx)

	go func() {
		defer func() {
			if r := recover(); r != nil {
				d.logger.Error("Async dispatch panicked",
					"trigger_type", event.TriggerType, "entity_id", event.EntityID, "panic", r)
			}
		}()

		_, err := d.Dispatch(detached, event)
		if err != nil {
			d.logger.Error("Async dispatch finished with errors",
				"trigger_type", event.TriggerType, "entity_id", event.EntityID, "error", err)
		}
	}()
}

// RunWorkflow executes one workflow against one entity on request. The
// entity's current state stands in for the trigger payload and the workflow's
// conditions still apply, so a manual run behaves exactly like an organic
// firing of the same rule.
func (d *Dispatcher) RunWorkflow(ctx context.Context, workflowID, entityID string) RunResult {
	workflow, err := d.persistence.WorkflowRepository().GetByID(ctx, workflowID)
	if err != nil {
		return RunResult{Error: err.Error()}
	}

	if !workflow.IsActive() {
		return RunResult{Error: fmt.Sprintf("workflow %s is not active", workflowID)}
	}

	entityType, ok := workflow.Trigger.Type.EntityType()
	if !ok {
		return RunResult{Error: fmt.Sprintf("trigger type %q has no entity type", workflow.Trigger.Type)}
	}

	snapshot, err := d.entities.Get(ctx, entityType, entityID)
	if err != nil {
		return RunResult{Error: fmt.Sprintf("failed to load %s %s: %v", entityType, entityID, err)}
	}

	event := models.Event{
		TriggerType: workflow.Trigger.Type,
		EntityType:  entityType,
		EntityID:    entityID,
		EntityName:  stringField(snapshot, "name"),
		NewData:     snapshot,
	}

	if !conditions.Evaluate(event.Snapshot(), workflow.Trigger.Conditions) {
		return RunResult{Error: "workflow conditions do not match the entity"}
	}

	run, err := d.execute(ctx, workflow, event)

	result := RunResult{}
	if run != nil {
		result.RunID = run.ID
		result.ActionsExecuted = len(run.ActionLogs)
		result.Success = run.Status == models.RunStatusCompleted
	}

	if err != nil {
		result.Error = err.Error()
	}

	return result
}

// execute drives one run end to end. The returned error reports dispatch
// faults (persistence failures, panics); individual action failures are
// recorded on the run's action logs and do not surface here.
func (d *Dispatcher) execute(ctx context.Context, workflow *models.Workflow, event models.Event) (run *models.ExecutionRun, err error) {
	runID, err := uuid.NewV7()
	if err != nil {
		return nil, fmt.Errorf("failed to generate run ID: %w", err)
	}

	run = &models.ExecutionRun{
		ID:           runID.String(),
		WorkflowID:   workflow.ID,
		WorkflowName: workflow.Name,
		TriggerType:  event.TriggerType,
		TriggerData:  event.TriggerSnapshot(),
		Status:       models.RunStatusPending,
		StartedAt:    time.Now().UTC(),
		ActionLogs:   make([]models.ActionLog, 0, len(workflow.Actions)),
	}

	defer func() {
		if r := recover(); r != nil {
			run.Error = fmt.Sprintf("panic: %v", r)
			run.ErrorStack = string(debug.Stack())
			run.Finish(models.RunStatusFailed, time.Now().UTC())
			d.persistRun(ctx, run)
			d.publishRunFailed(ctx, run)

			err = fmt.Errorf("run %s panicked: %v", run.ID, r)
		}
	}()

	err = d.persistence.RunRepository().Save(ctx, run)
	if err != nil {
		return nil, fmt.Errorf("failed to create run record: %w", err)
	}

	run.Status = models.RunStatusRunning
	d.persistRun(ctx, run)

	d.publish(ctx, workflow.ID, events.RunStarted{
		BaseEvent:    events.NewBaseEvent(events.RunStartedEvent, workflow.ID),
		RunID:        run.ID,
		WorkflowName: workflow.Name,
		TriggerType:  event.TriggerType,
		EntityType:   event.EntityType,
		EntityID:     event.EntityID,
	})

	execCtx := protocol.ExecutionContext{
		RunID:      run.ID,
		WorkflowID: workflow.ID,
		Event:      event,
		Entities:   d.entities,
		Notifier:   d.notifier,
	}

	logger := d.logger.With("workflow_id", workflow.ID, "run_id", run.ID)

	for _, action := range workflow.SortedActions() {
		startedAt := time.Now().UTC()
		run.ActionLogs = append(run.ActionLogs, models.ActionLog{
			ActionID:   action.ID,
			ActionType: action.Type,
			Status:     models.ActionLogRunning,
			StartedAt:  &startedAt,
		})
		d.persistRun(ctx, run)

		log := &run.ActionLogs[len(run.ActionLogs)-1]

		result, actionErr := d.runAction(ctx, action, execCtx, logger)
		completedAt := time.Now().UTC()
		log.CompletedAt = &completedAt

		switch {
		case actionErr != nil && ctx.Err() != nil && errors.Is(actionErr, ctx.Err()):
			// The dispatch context was cancelled mid-action; the whole run
			// ends as cancelled and remaining actions never start.
			log.Status = models.ActionLogCancelled
			log.Error = actionErr.Error()
			run.Finish(models.RunStatusCancelled, completedAt)
			d.persistRun(ctx, run)
			d.publish(ctx, workflow.ID, events.RunCancelled{
				BaseEvent:  events.NewBaseEvent(events.RunCancelledEvent, workflow.ID),
				RunID:      run.ID,
				DurationMs: run.DurationMs,
			})

			return run, actionErr
		case actionErr != nil:
			// Best-effort sequence: the failure is logged on the run and the
			// remaining actions still execute.
			log.Status = models.ActionLogFailed
			log.Error = actionErr.Error()
			logger.Warn("Action failed", "action_id", action.ID, "action_type", action.Type, "error", actionErr)
		default:
			log.Status = models.ActionLogCompleted
			log.Result = result
		}

		d.persistRun(ctx, run)
	}

	run.Finish(models.RunStatusCompleted, time.Now().UTC())
	d.persistRun(ctx, run)

	d.incrementUsage(ctx, workflow.ID)

	failed := 0

	for _, log := range run.ActionLogs {
		if log.Status == models.ActionLogFailed {
			failed++
		}
	}

	d.publish(ctx, workflow.ID, events.RunCompleted{
		BaseEvent:       events.NewBaseEvent(events.RunCompletedEvent, workflow.ID),
		RunID:           run.ID,
		DurationMs:      run.DurationMs,
		ActionsExecuted: len(run.ActionLogs),
		ActionsFailed:   failed,
	})

	return run, nil
}

// runAction builds and executes one action, converting panics into errors so
// a misbehaving executor degrades to a failed action log.
func (d *Dispatcher) runAction(ctx context.Context, action models.Action, execCtx protocol.ExecutionContext, logger *slog.Logger) (result any, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("action panicked: %v", r)
		}
	}()

	executor, err := d.registry.CreateAction(string(action.Type), action.Params)
	if err != nil {
		return nil, fmt.Errorf("failed to build action executor: %w", err)
	}

	return executor.Execute(ctx, execCtx, logger)
}

// persistRun writes the run's current state. Ledger writes are best-effort on
// the hot path; a storage hiccup must not abort the action sequence.
func (d *Dispatcher) persistRun(ctx context.Context, run *models.ExecutionRun) {
	err := d.persistence.RunRepository().Update(ctx, run)
	if err != nil {
		d.logger.Warn("Failed to persist run state", "run_id", run.ID, "error", err)
	}
}

func (d *Dispatcher) incrementUsage(ctx context.Context, workflowID string) {
	err := d.persistence.WorkflowRepository().IncrementUsage(ctx, workflowID, time.Now().UTC())
	if err != nil {
		d.logger.Warn("Failed to increment workflow usage", "workflow_id", workflowID, "error", err)
	}
}

func (d *Dispatcher) publish(ctx context.Context, key string, event eventbus.Event) {
	if d.eventBus == nil {
		return
	}

	err := d.eventBus.Publish(ctx, key, event)
	if err != nil {
		d.logger.Warn("Failed to publish lifecycle event", "event_type", event.GetType(), "error", err)
	}
}

func (d *Dispatcher) publishRunFailed(ctx context.Context, run *models.ExecutionRun) {
	d.publish(ctx, run.WorkflowID, events.RunFailed{
		BaseEvent:  events.NewBaseEvent(events.RunFailedEvent, run.WorkflowID),
		RunID:      run.ID,
		DurationMs: run.DurationMs,
		Error:      run.Error,
	})
}

func stringField(snapshot map[string]any, field string) string {
	if snapshot == nil {
		return ""
	}

	if v, ok := snapshot[field].(string); ok {
		return v
	}

	return ""
}
