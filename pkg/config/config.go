// Package config loads engine settings from a YAML file. Flags and
// environment variables on the binaries override file values.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config is the structure of the relay.yaml file.
type Config struct {
	Queue    QueueConfig   `yaml:"queue"`
	Jobs     JobsConfig    `yaml:"jobs"`
	Webhooks WebhookConfig `yaml:"webhooks"`
}

// QueueConfig configures the Redis event queue consumer.
type QueueConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	Key      string `yaml:"key"`
}

// JobsConfig configures the scheduled overdue sweep and retention purge.
type JobsConfig struct {
	SweepSchedule string `yaml:"sweep_schedule"`
	PurgeSchedule string `yaml:"purge_schedule"`
	RetentionDays int    `yaml:"retention_days"`
}

// WebhookConfig configures outbound delivery defaults.
type WebhookConfig struct {
	TimeoutMs int `yaml:"timeout_ms"`
}

// Load reads and parses a YAML config file.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	var config Config

	err = yaml.Unmarshal(data, &config)
	if err != nil {
		return Config{}, fmt.Errorf("failed to parse YAML config: %w", err)
	}

	err = Validate(config)
	if err != nil {
		return Config{}, err
	}

	return config, nil
}

// LoadOrDefault loads the config file, falling back to zero-value defaults
// when the file does not exist.
func LoadOrDefault(path string) Config {
	config, err := Load(path)
	if err != nil {
		return Config{}
	}

	return config
}

// Validate rejects settings the engine cannot run with.
func Validate(config Config) error {
	if config.Jobs.RetentionDays < 0 {
		return fmt.Errorf("jobs.retention_days must not be negative")
	}

	if config.Webhooks.TimeoutMs < 0 {
		return fmt.Errorf("webhooks.timeout_ms must not be negative")
	}

	if config.Queue.DB < 0 {
		return fmt.Errorf("queue.db must not be negative")
	}

	return nil
}
