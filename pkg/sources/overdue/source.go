// Package overdue runs the scheduled jobs: a sweeper that emits task_overdue
// events for tasks past their due date, and the nightly ledger retention
// purge.
package overdue

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/caldera-io/relay/pkg/entity"
	"github.com/caldera-io/relay/pkg/models"
	"github.com/caldera-io/relay/pkg/persistence"
)

const (
	// DefaultRetentionDays is how long ledger runs are kept.
	DefaultRetentionDays = 90

	defaultSweepSchedule = "*/15 * * * *"
	defaultPurgeSchedule = "30 3 * * *"
)

// Ingestor is the dispatch entry point the sweeper feeds.
type Ingestor interface {
	DispatchAsync(ctx context.Context, event models.Event)
}

type Config struct {
	SweepSchedule string
	PurgeSchedule string
	RetentionDays int
}

type Source struct {
	config   Config
	entities entity.Service
	runs     persistence.RunRepository
	ingestor Ingestor
	logger   *slog.Logger
	cron     *cron.Cron

	mu      sync.Mutex
	emitted map[string]struct{}
}

func NewSource(config Config, entities entity.Service, runs persistence.RunRepository, ingestor Ingestor, logger *slog.Logger) *Source {
	if config.SweepSchedule == "" {
		config.SweepSchedule = defaultSweepSchedule
	}

	if config.PurgeSchedule == "" {
		config.PurgeSchedule = defaultPurgeSchedule
	}

	if config.RetentionDays <= 0 {
		config.RetentionDays = DefaultRetentionDays
	}

	return &Source{
		config:   config,
		entities: entities,
		runs:     runs,
		ingestor: ingestor,
		emitted:  make(map[string]struct{}),
		logger:   logger.With("module", "overdue_source"),
	}
}

func (s *Source) Start(ctx context.Context) error {
	s.cron = cron.New()

	_, err := s.cron.AddFunc(s.config.SweepSchedule, func() {
		s.Sweep(ctx, time.Now().UTC())
	})
	if err != nil {
		return fmt.Errorf("failed to schedule overdue sweep: %w", err)
	}

	_, err = s.cron.AddFunc(s.config.PurgeSchedule, func() {
		s.Purge(ctx, time.Now().UTC())
	})
	if err != nil {
		return fmt.Errorf("failed to schedule retention purge: %w", err)
	}

	s.cron.Start()
	s.logger.InfoContext(ctx, "Scheduled jobs started",
		"sweep", s.config.SweepSchedule, "purge", s.config.PurgeSchedule,
		"retention_days", s.config.RetentionDays)

	return nil
}

// Sweep emits one task_overdue event per newly overdue task. Each task fires
// at most once per process lifetime; restarts may re-emit, which downstream
// workflows must tolerate.
func (s *Source) Sweep(ctx context.Context, now time.Time) {
	tasks, err := s.entities.OverdueTasks(ctx, now)
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to list overdue tasks", "error", err)

		return
	}

	for _, task := range tasks {
		if !s.markEmitted(task.ID) {
			continue
		}

		s.logger.InfoContext(ctx, "Task overdue", "task_id", task.ID, "due_at", task.DueAt)

		s.ingestor.DispatchAsync(ctx, models.Event{
			TriggerType: models.TriggerTaskOverdue,
			EntityType:  models.EntityTypeTask,
			EntityID:    task.ID,
			EntityName:  task.Title,
			NewData: map[string]any{
				"id":          task.ID,
				"title":       task.Title,
				"description": task.Description,
				"assigneeId":  task.AssigneeID,
				"entityType":  task.EntityType,
				"entityId":    task.EntityID,
				"dueAt":       task.DueAt,
			},
		})
	}
}

// Purge evicts ledger runs older than the retention window.
func (s *Source) Purge(ctx context.Context, now time.Time) {
	cutoff := now.AddDate(0, 0, -s.config.RetentionDays)

	purged, err := s.runs.PurgeBefore(ctx, cutoff)
	if err != nil {
		s.logger.ErrorContext(ctx, "Retention purge failed", "error", err)

		return
	}

	s.logger.InfoContext(ctx, "Retention purge completed", "purged", purged, "cutoff", cutoff)
}

func (s *Source) markEmitted(taskID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, seen := s.emitted[taskID]; seen {
		return false
	}

	s.emitted[taskID] = struct{}{}

	return true
}

func (s *Source) Stop(_ context.Context) error {
	if s.cron != nil {
		<-s.cron.Stop().Done()
	}

	return nil
}
