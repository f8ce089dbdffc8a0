// Package main provides a CLI for pushing lifecycle events onto the engine's
// Redis queue, mirroring what a business service does after a mutation.
package main

import (
	"context"
	"os"

	cli "github.com/urfave/cli/v3"

	"github.com/caldera-io/relay/pkg/log"
	"github.com/caldera-io/relay/pkg/sources/queue"
)

func main() {
	logger := log.WithModule("trigger")

	command := &cli.Command{
		Name:                  "relay-trigger",
		Usage:                 "Emit lifecycle events into the automation engine",
		EnableShellCompletion: true,
		Commands: []*cli.Command{
			{
				Name:    "emit",
				Aliases: []string{"e"},
				Usage:   "Push one event onto the Redis queue",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "trigger-type",
						Aliases:  []string{"t"},
						Usage:    "Lifecycle event name (e.g. deal_created)",
						Required: true,
					},
					&cli.StringFlag{
						Name:     "entity-id",
						Usage:    "ID of the business record the event refers to",
						Required: true,
					},
					&cli.StringFlag{
						Name:  "entity-name",
						Usage: "Display name of the record",
					},
					&cli.StringFlag{
						Name:  "data",
						Usage: "New entity state as a JSON object",
						Value: "{}",
					},
					&cli.StringFlag{
						Name:  "previous",
						Usage: "Previous entity state as a JSON object",
					},
					&cli.StringSliceFlag{
						Name:  "changed",
						Usage: "Changed field names",
					},
					&cli.StringFlag{
						Name:    "redis-url",
						Usage:   "Redis address",
						Value:   "localhost:6379",
						Sources: cli.EnvVars("REDIS_URL"),
					},
					&cli.StringFlag{
						Name:  "queue",
						Usage: "Queue list key",
						Value: queue.DefaultQueue,
					},
				},
				Action: func(ctx context.Context, command *cli.Command) error {
					return emitEvent(ctx, command, logger)
				},
			},
			{
				Name:    "list",
				Aliases: []string{"ls"},
				Usage:   "List the supported trigger types",
				Action: func(ctx context.Context, command *cli.Command) error {
					return listTriggerTypes()
				},
			},
		},
	}

	err := command.Run(context.Background(), os.Args)
	if err != nil {
		logger.Error("relay-trigger failed", "error", err)
		os.Exit(1)
	}
}
