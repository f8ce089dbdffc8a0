// Package actions registers the built-in action set.
package actions

import (
	"github.com/caldera-io/relay/pkg/actions/assignowner"
	"github.com/caldera-io/relay/pkg/actions/createactivity"
	"github.com/caldera-io/relay/pkg/actions/createtask"
	"github.com/caldera-io/relay/pkg/actions/delay"
	"github.com/caldera-io/relay/pkg/actions/movestage"
	"github.com/caldera-io/relay/pkg/actions/notification"
	"github.com/caldera-io/relay/pkg/actions/tag"
	"github.com/caldera-io/relay/pkg/actions/updatefield"
	webhookaction "github.com/caldera-io/relay/pkg/actions/webhook"
	"github.com/caldera-io/relay/pkg/registry"
	"github.com/caldera-io/relay/pkg/webhook"
)

// RegisterDefaults wires every built-in action factory into the registry.
// The webhook action shares one deliverer so outbound HTTP reuses a single
// connection pool.
func RegisterDefaults(reg *registry.Registry, deliverer *webhook.Deliverer) {
	reg.RegisterAction(notification.NewSendNotificationFactory())
	reg.RegisterAction(notification.NewChannelMessageFactory())
	reg.RegisterAction(createtask.NewCreateTaskFactory())
	reg.RegisterAction(createactivity.NewCreateActivityFactory())
	reg.RegisterAction(updatefield.NewUpdateFieldFactory())
	reg.RegisterAction(movestage.NewMoveStageFactory())
	reg.RegisterAction(assignowner.NewAssignOwnerFactory())
	reg.RegisterAction(tag.NewAddTagFactory())
	reg.RegisterAction(tag.NewRemoveTagFactory())
	reg.RegisterAction(webhookaction.NewWebhookActionFactory(deliverer))
	reg.RegisterAction(delay.NewDelayActionFactory())
}
