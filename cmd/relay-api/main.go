package main

import (
	"context"
	"os"

	cli "github.com/urfave/cli/v3"

	"github.com/caldera-io/relay/pkg/config"
	"github.com/caldera-io/relay/pkg/log"
)

const defaultPort = 9080

func main() {
	logger := log.WithModule("api")

	command := &cli.Command{
		Name:                  "relay-api",
		Usage:                 "Run the automation engine API server",
		EnableShellCompletion: true,
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:    "port",
				Aliases: []string{"p"},
				Usage:   "Port to run the API server on",
				Value:   defaultPort,
				Sources: cli.EnvVars("PORT"),
			},
			&cli.StringFlag{
				Name:     "database-url",
				Usage:    "Storage URL (file://<dir> or postgres://...)",
				Required: true,
				Sources:  cli.EnvVars("DATABASE_URL"),
			},
			&cli.StringFlag{
				Name:    "event-bus",
				Usage:   "Lifecycle event bus provider (kafka, gochannel, empty to disable)",
				Value:   "",
				Sources: cli.EnvVars("EVENT_BUS"),
			},
			&cli.StringFlag{
				Name:    "config",
				Usage:   "Path to the YAML config file",
				Value:   "relay.yaml",
				Sources: cli.EnvVars("RELAY_CONFIG"),
			},
			&cli.StringFlag{
				Name:    "redis-url",
				Usage:   "Redis address for the event queue consumer (empty to disable)",
				Value:   "",
				Sources: cli.EnvVars("REDIS_URL"),
			},
			&cli.StringFlag{
				Name:    "log-level",
				Usage:   "Log level (debug, info, warn, error)",
				Value:   "info",
				Sources: cli.EnvVars("LOG_LEVEL"),
			},
		},
		Action: func(ctx context.Context, command *cli.Command) error {
			log.Setup(command.String("log-level"))

			logger.InfoContext(ctx, "Initializing Relay API")

			fileConfig := config.LoadOrDefault(command.String("config"))

			api, err := NewAPI(ctx, logger, Options{
				DatabaseURL:      command.String("database-url"),
				EventBusProvider: command.String("event-bus"),
				RedisAddr:        command.String("redis-url"),
				Config:           fileConfig,
			})
			if err != nil {
				return err
			}

			defer api.Shutdown(ctx)

			return api.Start(ctx, command.Int("port"))
		},
	}

	err := command.Run(context.Background(), os.Args)
	if err != nil {
		logger.Error("Relay API exited with error", "error", err)
		os.Exit(1)
	}
}
