// Package queue consumes lifecycle events that business services push onto a
// Redis list and feeds them into the dispatcher. The list decouples the
// mutation write path from automation entirely: producers LPUSH one JSON
// event and move on.
package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	redis "github.com/redis/go-redis/v9"

	"github.com/caldera-io/relay/pkg/models"
)

// DefaultQueue is the list key producers push events to.
const DefaultQueue = "relay:events"

// Ingestor is the dispatch entry point the source feeds. Satisfied by
// the dispatcher's async mode.
type Ingestor interface {
	DispatchAsync(ctx context.Context, event models.Event)
}

type Config struct {
	Addr     string
	Password string
	DB       int
	Queue    string
}

type Source struct {
	config   Config
	client   redis.UniversalClient
	ingestor Ingestor
	logger   *slog.Logger
	validate *validator.Validate
	stopCh   chan struct{}
	wg       sync.WaitGroup
}

func NewSource(config Config, ingestor Ingestor, logger *slog.Logger) *Source {
	if config.Addr == "" {
		config.Addr = "localhost:6379"
	}

	if config.Queue == "" {
		config.Queue = DefaultQueue
	}

	return &Source{
		config:   config,
		ingestor: ingestor,
		validate: validator.New(),
		stopCh:   make(chan struct{}),
		logger: logger.With(
			"module", "queue_source",
			"queue", config.Queue,
		),
	}
}

func (s *Source) Start(ctx context.Context) error {
	s.logger.InfoContext(ctx, "Starting queue source")

	s.client = redis.NewClient(&redis.Options{
		Addr:     s.config.Addr,
		Password: s.config.Password,
		DB:       s.config.DB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	err := s.client.Ping(pingCtx).Err()
	if err != nil {
		return fmt.Errorf("failed to connect to Redis: %w", err)
	}

	s.logger.InfoContext(ctx, "Connected to Redis", "addr", s.config.Addr, "db", s.config.DB)

	s.wg.Add(1)

	go s.consume(ctx)

	return nil
}

func (s *Source) consume(ctx context.Context) {
	defer s.wg.Done()

	for {
		select {
		case <-s.stopCh:
			s.logger.InfoContext(ctx, "Queue consumer stopped")

			return
		case <-ctx.Done():
			s.logger.InfoContext(ctx, "Context cancelled, stopping queue consumer")

			return
		default:
			err := s.processMessage(ctx)
			if err != nil {
				s.logger.ErrorContext(ctx, "Error processing message", "error", err)
				time.Sleep(1 * time.Second)
			}
		}
	}
}

func (s *Source) processMessage(ctx context.Context) error {
	result, err := s.client.BLPop(ctx, 1*time.Second, s.config.Queue).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil
		}

		return fmt.Errorf("failed to pop message from queue: %w", err)
	}

	if len(result) < 2 {
		return nil
	}

	var event models.Event

	err = json.Unmarshal([]byte(result[1]), &event)
	if err != nil {
		// Malformed producer payloads are dropped, not retried; a bad
		// message would otherwise wedge the queue forever.
		s.logger.WarnContext(ctx, "Dropping malformed queue message", "error", err)

		return nil
	}

	err = s.validate.Struct(event)
	if err != nil {
		s.logger.WarnContext(ctx, "Dropping invalid queue event", "error", err)

		return nil
	}

	s.logger.InfoContext(ctx, "Received event from queue",
		"trigger_type", event.TriggerType, "entity_id", event.EntityID)

	s.ingestor.DispatchAsync(ctx, event)

	return nil
}

func (s *Source) Stop(ctx context.Context) error {
	s.logger.InfoContext(ctx, "Stopping queue source")

	close(s.stopCh)
	s.wg.Wait()

	if s.client != nil {
		err := s.client.Close()
		if err != nil {
			s.logger.ErrorContext(ctx, "Error closing Redis client", "error", err)
		}
	}

	return nil
}
