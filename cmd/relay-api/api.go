// Package main provides the Relay API server implementation.
package main

import (
	"context"
	"log/slog"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/cors"
	"github.com/gofiber/fiber/v3/middleware/healthcheck"
	"github.com/gofiber/fiber/v3/middleware/logger"

	"github.com/caldera-io/relay/pkg/cmd"
	"github.com/caldera-io/relay/pkg/config"
	"github.com/caldera-io/relay/pkg/dispatcher"
	"github.com/caldera-io/relay/pkg/entity"
	"github.com/caldera-io/relay/pkg/eventbus"
	"github.com/caldera-io/relay/pkg/persistence"
	"github.com/caldera-io/relay/pkg/protocol"
	"github.com/caldera-io/relay/pkg/registry"
	"github.com/caldera-io/relay/pkg/sources/overdue"
	"github.com/caldera-io/relay/pkg/sources/queue"
	"github.com/caldera-io/relay/pkg/web"
	"github.com/caldera-io/relay/pkg/webhook"
)

// Options carries the wiring knobs resolved from flags and the config file.
type Options struct {
	DatabaseURL      string
	EventBusProvider string
	RedisAddr        string
	Config           config.Config
}

type API struct {
	logger      *slog.Logger
	persistence persistence.Persistence
	registry    *registry.Registry
	dispatcher  *dispatcher.Dispatcher
	eventBus    eventbus.EventBus
	queueSource *queue.Source
	jobs        *overdue.Source
}

func NewAPI(ctx context.Context, logger *slog.Logger, opts Options) (*API, error) {
	store, err := cmd.NewPersistence(ctx, logger, opts.DatabaseURL)
	if err != nil {
		return nil, err
	}

	eventBus, err := cmd.NewEventBus(opts.EventBusProvider, "relay-api", logger)
	if err != nil {
		return nil, err
	}

	deliverer := webhook.NewDelivererWithTimeout(logger,
		time.Duration(opts.Config.Webhooks.TimeoutMs)*time.Millisecond)
	reg := cmd.NewRegistry(logger, deliverer)
	broadcaster := webhook.NewBroadcaster(store.SubscriptionRepository(), deliverer, logger)

	// Standalone deployments run against the in-memory entity store; embedded
	// deployments swap in the CRM's own entity service.
	entities := entity.NewMemoryStore()
	notifier := protocol.LogNotifier{Logger: logger}

	disp := dispatcher.NewDispatcher(store, reg, entities, notifier, broadcaster, eventBus, logger)

	api := &API{
		logger:      logger,
		persistence: store,
		registry:    reg,
		dispatcher:  disp,
		eventBus:    eventBus,
		jobs: overdue.NewSource(overdue.Config{
			SweepSchedule: opts.Config.Jobs.SweepSchedule,
			PurgeSchedule: opts.Config.Jobs.PurgeSchedule,
			RetentionDays: opts.Config.Jobs.RetentionDays,
		}, entities, store.RunRepository(), disp, logger),
	}

	// The --redis-url flag wins over the config file's queue.addr.
	redisAddr := opts.RedisAddr
	if redisAddr == "" {
		redisAddr = opts.Config.Queue.Addr
	}

	if redisAddr != "" {
		api.queueSource = queue.NewSource(queue.Config{
			Addr:     redisAddr,
			Password: opts.Config.Queue.Password,
			DB:       opts.Config.Queue.DB,
			Queue:    opts.Config.Queue.Key,
		}, disp, logger)
	}

	return api, nil
}

func (a *API) App() *fiber.App {
	handlers := web.NewAPIHandlers(a.logger, a.persistence, a.dispatcher, a.registry, a.eventBus)

	app := fiber.New()
	app.Use(cors.New())
	app.Use(logger.New(logger.Config{
		DisableColors: true,
	}))

	app.Get(healthcheck.DefaultLivenessEndpoint, healthcheck.NewHealthChecker())
	app.Get(healthcheck.DefaultReadinessEndpoint, healthcheck.NewHealthChecker())

	app.Get("/", func(c fiber.Ctx) error {
		return c.SendString("Relay API")
	})

	w := app.Group("/workflows")
	w.Get("/", handlers.ListWorkflows)
	w.Post("/", handlers.CreateWorkflow)
	w.Get("/:id", handlers.GetWorkflow)
	w.Patch("/:id", handlers.UpdateWorkflow)
	w.Delete("/:id", handlers.DeleteWorkflow)
	w.Post("/:id/activate", handlers.ActivateWorkflow)
	w.Post("/:id/deactivate", handlers.DeactivateWorkflow)
	w.Post("/:id/run", handlers.RunWorkflow)
	w.Get("/:id/runs", handlers.ListWorkflowRuns)

	r := app.Group("/runs")
	r.Get("/", handlers.ListRuns)
	r.Get("/:id", handlers.GetRun)

	s := app.Group("/subscriptions")
	s.Get("/", handlers.ListSubscriptions)
	s.Post("/", handlers.CreateSubscription)
	s.Get("/:id", handlers.GetSubscription)
	s.Patch("/:id", handlers.UpdateSubscription)
	s.Delete("/:id", handlers.DeleteSubscription)

	app.Post("/events", handlers.IngestEvent)
	app.Post("/hooks/:id", handlers.ReceiveHook)

	app.Get("/actions", handlers.ListAvailableActions)
	app.Get("/health", handlers.HealthCheck)

	return app
}

func (a *API) Start(ctx context.Context, port int) error {
	err := a.jobs.Start(ctx)
	if err != nil {
		return err
	}

	if a.queueSource != nil {
		err = a.queueSource.Start(ctx)
		if err != nil {
			return err
		}
	}

	app := a.App()

	return app.Listen(":" + strconv.Itoa(port))
}

func (a *API) Shutdown(ctx context.Context) {
	if a.queueSource != nil {
		err := a.queueSource.Stop(ctx)
		if err != nil {
			a.logger.ErrorContext(ctx, "Failed to stop queue source", "error", err)
		}
	}

	err := a.jobs.Stop(ctx)
	if err != nil {
		a.logger.ErrorContext(ctx, "Failed to stop scheduled jobs", "error", err)
	}

	if a.eventBus != nil {
		err = a.eventBus.Close()
		if err != nil {
			a.logger.ErrorContext(ctx, "Failed to close event bus", "error", err)
		}
	}

	err = a.persistence.Close(ctx)
	if err != nil {
		a.logger.ErrorContext(ctx, "Failed to close persistence", "error", err)
	}
}
