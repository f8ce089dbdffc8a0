// Package web implements the HTTP API: workflow CRUD, manual runs, the
// execution ledger, webhook subscriptions and signed inbound hooks.
package web

import (
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"

	"github.com/caldera-io/relay/pkg/dispatcher"
	"github.com/caldera-io/relay/pkg/eventbus"
	"github.com/caldera-io/relay/pkg/events"
	"github.com/caldera-io/relay/pkg/models"
	"github.com/caldera-io/relay/pkg/persistence"
	"github.com/caldera-io/relay/pkg/registry"
	"github.com/caldera-io/relay/pkg/webhook"
)

type APIHandlers struct {
	logger      *slog.Logger
	persistence persistence.Persistence
	dispatcher  *dispatcher.Dispatcher
	registry    *registry.Registry
	eventBus    eventbus.EventBus
	validator   *validator.Validate
}

func NewAPIHandlers(
	logger *slog.Logger,
	persistence persistence.Persistence,
	dispatcher *dispatcher.Dispatcher,
	registry *registry.Registry,
	eventBus eventbus.EventBus,
) *APIHandlers {
	return &APIHandlers{
		logger:      logger.With("module", "api_handlers"),
		persistence: persistence,
		dispatcher:  dispatcher,
		registry:    registry,
		eventBus:    eventBus,
		validator:   validator.New(validator.WithRequiredStructEnabled()),
	}
}

func (h *APIHandlers) ListWorkflows(c fiber.Ctx) error {
	workflows, err := h.persistence.WorkflowRepository().List(c.Context())
	if err != nil {
		return internalError(c, err)
	}

	return c.JSON(workflows)
}

func (h *APIHandlers) GetWorkflow(c fiber.Ctx) error {
	workflow, err := h.persistence.WorkflowRepository().GetByID(c.Context(), c.Params("id"))
	if err != nil {
		return handleRepositoryError(c, err)
	}

	return c.JSON(workflow)
}

func (h *APIHandlers) CreateWorkflow(c fiber.Ctx) error {
	var req CreateWorkflowRequest

	err := c.Bind().JSON(&req)
	if err != nil {
		return badRequest(c, "Invalid request body: "+err.Error())
	}

	err = h.validator.Struct(req)
	if err != nil {
		return badRequest(c, err.Error())
	}

	status := models.WorkflowStatusActive
	if req.Active != nil && !*req.Active {
		status = models.WorkflowStatusInactive
	}

	workflow := &models.Workflow{
		Name:        req.Name,
		Description: req.Description,
		Status:      status,
		Trigger:     req.Trigger,
		Actions:     req.Actions,
		Owner:       req.Owner,
	}

	err = h.prepareWorkflow(workflow)
	if err != nil {
		return badRequest(c, err.Error())
	}

	err = h.persistence.WorkflowRepository().Save(c.Context(), workflow)
	if err != nil {
		return internalError(c, err)
	}

	h.publishWorkflowSaved(c, workflow)

	return c.Status(fiber.StatusCreated).JSON(workflow)
}

func (h *APIHandlers) UpdateWorkflow(c fiber.Ctx) error {
	workflow, err := h.persistence.WorkflowRepository().GetByID(c.Context(), c.Params("id"))
	if err != nil {
		return handleRepositoryError(c, err)
	}

	var req UpdateWorkflowRequest

	err = c.Bind().JSON(&req)
	if err != nil {
		return badRequest(c, "Invalid request body: "+err.Error())
	}

	err = h.validator.Struct(req)
	if err != nil {
		return badRequest(c, err.Error())
	}

	if req.Name != nil {
		workflow.Name = *req.Name
	}

	if req.Description != nil {
		workflow.Description = *req.Description
	}

	if req.Trigger != nil {
		workflow.Trigger = *req.Trigger
	}

	if req.Actions != nil {
		workflow.Actions = *req.Actions
	}

	if req.Owner != nil {
		workflow.Owner = *req.Owner
	}

	err = h.prepareWorkflow(workflow)
	if err != nil {
		return badRequest(c, err.Error())
	}

	err = h.persistence.WorkflowRepository().Save(c.Context(), workflow)
	if err != nil {
		return internalError(c, err)
	}

	h.publishWorkflowSaved(c, workflow)

	return c.JSON(workflow)
}

func (h *APIHandlers) DeleteWorkflow(c fiber.Ctx) error {
	id := c.Params("id")

	err := h.persistence.WorkflowRepository().Delete(c.Context(), id)
	if err != nil {
		return handleRepositoryError(c, err)
	}

	h.publishEvent(c, id, events.WorkflowDeleted{
		BaseEvent: events.NewBaseEvent(events.WorkflowDeletedEvent, id),
	})

	return c.SendStatus(fiber.StatusNoContent)
}

func (h *APIHandlers) ActivateWorkflow(c fiber.Ctx) error {
	return h.setWorkflowStatus(c, models.WorkflowStatusActive)
}

func (h *APIHandlers) DeactivateWorkflow(c fiber.Ctx) error {
	return h.setWorkflowStatus(c, models.WorkflowStatusInactive)
}

func (h *APIHandlers) setWorkflowStatus(c fiber.Ctx, status models.WorkflowStatus) error {
	workflow, err := h.persistence.WorkflowRepository().GetByID(c.Context(), c.Params("id"))
	if err != nil {
		return handleRepositoryError(c, err)
	}

	workflow.Status = status

	err = h.persistence.WorkflowRepository().Save(c.Context(), workflow)
	if err != nil {
		return internalError(c, err)
	}

	h.publishWorkflowSaved(c, workflow)

	return c.JSON(workflow)
}

// RunWorkflow fires one workflow against one entity on demand. Conditions
// still apply; the response always carries the manual-run result shape.
func (h *APIHandlers) RunWorkflow(c fiber.Ctx) error {
	id := c.Params("id")

	_, err := h.persistence.WorkflowRepository().GetByID(c.Context(), id)
	if err != nil {
		return handleRepositoryError(c, err)
	}

	var req RunWorkflowRequest

	err = c.Bind().JSON(&req)
	if err != nil {
		return badRequest(c, "Invalid request body: "+err.Error())
	}

	err = h.validator.Struct(req)
	if err != nil {
		return badRequest(c, err.Error())
	}

	result := h.dispatcher.RunWorkflow(c.Context(), id, req.EntityID)

	return c.JSON(result)
}

func (h *APIHandlers) ListWorkflowRuns(c fiber.Ctx) error {
	limit := queryInt(c, "limit", 0)

	runs, err := h.persistence.RunRepository().ListByWorkflow(c.Context(), c.Params("id"), limit)
	if err != nil {
		return internalError(c, err)
	}

	return c.JSON(runs)
}

func (h *APIHandlers) ListRuns(c fiber.Ctx) error {
	status := c.Query("status")
	if status == "" {
		return badRequest(c, "Query parameter 'status' is required")
	}

	runs, err := h.persistence.RunRepository().ListByStatus(c.Context(), models.RunStatus(status), queryInt(c, "limit", 0))
	if err != nil {
		return internalError(c, err)
	}

	return c.JSON(runs)
}

func (h *APIHandlers) GetRun(c fiber.Ctx) error {
	run, err := h.persistence.RunRepository().GetByID(c.Context(), c.Params("id"))
	if err != nil {
		return handleRepositoryError(c, err)
	}

	return c.JSON(run)
}

// IngestEvent accepts a lifecycle event from a business service. The default
// mode is fire-and-forget; ?mode=sync awaits the matched runs and returns
// them.
func (h *APIHandlers) IngestEvent(c fiber.Ctx) error {
	var event models.Event

	err := c.Bind().JSON(&event)
	if err != nil {
		return badRequest(c, "Invalid request body: "+err.Error())
	}

	err = h.validator.Struct(event)
	if err != nil {
		return badRequest(c, err.Error())
	}

	if !event.TriggerType.Valid() {
		return badRequest(c, "Unknown trigger type: "+string(event.TriggerType))
	}

	if c.Query("mode") == "sync" {
		runs, err := h.dispatcher.Dispatch(c.Context(), event)
		if err != nil {
			return internalError(c, err)
		}

		return c.JSON(fiber.Map{"runs": runs})
	}

	h.dispatcher.DispatchAsync(c.Context(), event)

	return c.Status(fiber.StatusAccepted).JSON(fiber.Map{"accepted": true})
}

func (h *APIHandlers) ListSubscriptions(c fiber.Ctx) error {
	subscriptions, err := h.persistence.SubscriptionRepository().List(c.Context())
	if err != nil {
		return internalError(c, err)
	}

	return c.JSON(subscriptions)
}

func (h *APIHandlers) GetSubscription(c fiber.Ctx) error {
	subscription, err := h.persistence.SubscriptionRepository().GetByID(c.Context(), c.Params("id"))
	if err != nil {
		return handleRepositoryError(c, err)
	}

	return c.JSON(subscription)
}

func (h *APIHandlers) CreateSubscription(c fiber.Ctx) error {
	var req CreateSubscriptionRequest

	err := c.Bind().JSON(&req)
	if err != nil {
		return badRequest(c, "Invalid request body: "+err.Error())
	}

	err = h.validator.Struct(req)
	if err != nil {
		return badRequest(c, err.Error())
	}

	subscription := &models.WebhookSubscription{
		Scope:         req.Scope,
		Name:          req.Name,
		URL:           req.URL,
		Secret:        req.Secret,
		Events:        req.Events,
		ChannelFilter: req.ChannelFilter,
		TimeoutMs:     req.TimeoutMs,
		Active:        true,
	}

	if req.Active != nil {
		subscription.Active = *req.Active
	}

	err = h.persistence.SubscriptionRepository().Save(c.Context(), subscription)
	if err != nil {
		return internalError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(subscription)
}

func (h *APIHandlers) UpdateSubscription(c fiber.Ctx) error {
	subscription, err := h.persistence.SubscriptionRepository().GetByID(c.Context(), c.Params("id"))
	if err != nil {
		return handleRepositoryError(c, err)
	}

	var req UpdateSubscriptionRequest

	err = c.Bind().JSON(&req)
	if err != nil {
		return badRequest(c, "Invalid request body: "+err.Error())
	}

	err = h.validator.Struct(req)
	if err != nil {
		return badRequest(c, err.Error())
	}

	if req.Name != nil {
		subscription.Name = *req.Name
	}

	if req.URL != nil {
		subscription.URL = *req.URL
	}

	if req.Secret != nil {
		subscription.Secret = *req.Secret
	}

	if req.Events != nil {
		subscription.Events = *req.Events
	}

	if req.ChannelFilter != nil {
		subscription.ChannelFilter = *req.ChannelFilter
	}

	if req.TimeoutMs != nil {
		subscription.TimeoutMs = *req.TimeoutMs
	}

	if req.Active != nil {
		subscription.Active = *req.Active
	}

	err = h.persistence.SubscriptionRepository().Save(c.Context(), subscription)
	if err != nil {
		return internalError(c, err)
	}

	return c.JSON(subscription)
}

func (h *APIHandlers) DeleteSubscription(c fiber.Ctx) error {
	err := h.persistence.SubscriptionRepository().Delete(c.Context(), c.Params("id"))
	if err != nil {
		return handleRepositoryError(c, err)
	}

	return c.SendStatus(fiber.StatusNoContent)
}

// ReceiveHook verifies an inbound signed payload against the subscription's
// secret before any side effect. Verification is constant-time; a missing or
// stale signature is rejected identically to a wrong one.
func (h *APIHandlers) ReceiveHook(c fiber.Ctx) error {
	subscription, err := h.persistence.SubscriptionRepository().GetByID(c.Context(), c.Params("id"))
	if err != nil {
		return handleRepositoryError(c, err)
	}

	signature := c.Get(webhook.HeaderSignature)
	timestamp := c.Get(webhook.HeaderTimestamp)
	body := c.Body()

	if !webhook.Verify(subscription.Secret, timestamp, body, signature) {
		h.logger.Warn("Rejected inbound hook with bad signature",
			"subscription_id", subscription.ID)

		return unauthorized(c, "Signature verification failed")
	}

	var event models.Event

	err = c.Bind().JSON(&event)
	if err != nil {
		return badRequest(c, "Invalid request body: "+err.Error())
	}

	err = h.validator.Struct(event)
	if err != nil {
		return badRequest(c, err.Error())
	}

	h.dispatcher.DispatchAsync(c.Context(), event)

	return c.Status(fiber.StatusAccepted).JSON(fiber.Map{"accepted": true})
}

func (h *APIHandlers) ListAvailableActions(c fiber.Ctx) error {
	return c.JSON(fiber.Map{"actions": h.registry.AvailableActions()})
}

func (h *APIHandlers) HealthCheck(c fiber.Ctx) error {
	healthy := true
	checkers := fiber.Map{}

	message, ok := h.registry.HealthCheck()
	checkers["registry"] = fiber.Map{"healthy": ok, "message": message}
	healthy = healthy && ok

	err := h.persistence.HealthCheck(c.Context())
	if err != nil {
		checkers["persistence"] = fiber.Map{"healthy": false, "message": err.Error()}
		healthy = false
	} else {
		checkers["persistence"] = fiber.Map{"healthy": true, "message": "ok"}
	}

	status := fiber.StatusOK
	if !healthy {
		status = fiber.StatusServiceUnavailable
	}

	return c.Status(status).JSON(fiber.Map{
		"healthy":   healthy,
		"checkers":  checkers,
		"timestamp": time.Now().UTC(),
	})
}

// prepareWorkflow validates the trigger and actions and assigns IDs to new
// actions and conditions. Action IDs are stable across edits so ledger
// entries remain resolvable.
func (h *APIHandlers) prepareWorkflow(workflow *models.Workflow) error {
	if !workflow.Trigger.Type.Valid() {
		return fmt.Errorf("unknown trigger type %q", workflow.Trigger.Type)
	}

	for i := range workflow.Trigger.Conditions {
		condition := &workflow.Trigger.Conditions[i]

		if !condition.Operator.Valid() {
			return fmt.Errorf("unknown condition operator %q", condition.Operator)
		}

		if condition.ID == "" {
			condition.ID = uuid.New().String()
		}
	}

	// Orders are backfilled from listing position only when the client
	// supplied none at all. A single non-zero order means the given
	// sequence is authoritative, including an explicit 0.
	backfillOrders := true

	for _, action := range workflow.Actions {
		if action.Order != 0 {
			backfillOrders = false

			break
		}
	}

	for i := range workflow.Actions {
		action := &workflow.Actions[i]

		if action.ID == "" {
			action.ID = uuid.New().String()
		}

		if backfillOrders {
			action.Order = i
		}

		err := h.registry.ValidateAction(*action)
		if err != nil {
			return err
		}
	}

	return nil
}

func (h *APIHandlers) publishWorkflowSaved(c fiber.Ctx, workflow *models.Workflow) {
	h.publishEvent(c, workflow.ID, events.WorkflowSaved{
		BaseEvent: events.NewBaseEvent(events.WorkflowSavedEvent, workflow.ID),
		Name:      workflow.Name,
		Status:    workflow.Status,
	})
}

func (h *APIHandlers) publishEvent(c fiber.Ctx, key string, event eventbus.Event) {
	if h.eventBus == nil {
		return
	}

	err := h.eventBus.Publish(c.Context(), key, event)
	if err != nil {
		h.logger.Warn("Failed to publish lifecycle event",
			"event_type", event.GetType(), "error", err)
	}
}

func queryInt(c fiber.Ctx, key string, fallback int) int {
	raw := c.Query(key)
	if raw == "" {
		return fallback
	}

	value, err := strconv.Atoi(raw)
	if err != nil || value < 0 {
		return fallback
	}

	return value
}
