package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"text/tabwriter"

	redis "github.com/redis/go-redis/v9"
	cli "github.com/urfave/cli/v3"

	"github.com/caldera-io/relay/pkg/models"
)

func emitEvent(ctx context.Context, command *cli.Command, logger *slog.Logger) error {
	triggerType := models.TriggerType(command.String("trigger-type"))

	entityType, ok := triggerType.EntityType()
	if !ok {
		return fmt.Errorf("unknown trigger type %q, run 'relay-trigger list'", triggerType)
	}

	event := models.Event{
		TriggerType:   triggerType,
		EntityType:    entityType,
		EntityID:      command.String("entity-id"),
		EntityName:    command.String("entity-name"),
		ChangedFields: command.StringSlice("changed"),
	}

	err := json.Unmarshal([]byte(command.String("data")), &event.NewData)
	if err != nil {
		return fmt.Errorf("failed to parse --data: %w", err)
	}

	if previous := command.String("previous"); previous != "" {
		err = json.Unmarshal([]byte(previous), &event.PreviousData)
		if err != nil {
			return fmt.Errorf("failed to parse --previous: %w", err)
		}
	}

	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	client := redis.NewClient(&redis.Options{Addr: command.String("redis-url")})

	defer func() {
		if err := client.Close(); err != nil {
			logger.Error("Failed to close Redis client", "error", err)
		}
	}()

	queueKey := command.String("queue")

	err = client.LPush(ctx, queueKey, payload).Err()
	if err != nil {
		return fmt.Errorf("failed to push event to queue %s: %w", queueKey, err)
	}

	logger.InfoContext(ctx, "Event queued",
		"trigger_type", triggerType, "entity_id", event.EntityID, "queue", queueKey)

	return nil
}

func listTriggerTypes() error {
	writer := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)

	fmt.Fprintln(writer, "TRIGGER TYPE\tENTITY")

	for _, triggerType := range models.TriggerTypes() {
		entityType, _ := triggerType.EntityType()
		fmt.Fprintf(writer, "%s\t%s\n", triggerType, entityType)
	}

	return writer.Flush()
}
