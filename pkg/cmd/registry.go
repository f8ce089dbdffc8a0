package cmd

import (
	"log/slog"

	"github.com/caldera-io/relay/pkg/actions"
	"github.com/caldera-io/relay/pkg/registry"
	"github.com/caldera-io/relay/pkg/webhook"
)

// NewRegistry builds the action registry with the built-in set loaded.
func NewRegistry(logger *slog.Logger, deliverer *webhook.Deliverer) *registry.Registry {
	reg := registry.NewRegistry(logger)
	actions.RegisterDefaults(reg, deliverer)

	return reg
}
