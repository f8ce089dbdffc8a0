package registry_test

import (
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/caldera-io/relay/pkg/actions"
	"github.com/caldera-io/relay/pkg/models"
	"github.com/caldera-io/relay/pkg/registry"
	"github.com/caldera-io/relay/pkg/webhook"
)

func testRegistry(t *testing.T) *registry.Registry {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	reg := registry.NewRegistry(logger)
	actions.RegisterDefaults(reg, webhook.NewDeliverer(logger))

	return reg
}

func TestRegisterDefaults_AllActionKinds(t *testing.T) {
	reg := testRegistry(t)

	available := reg.AvailableActions()

	for _, kind := range []models.ActionType{
		models.ActionSendNotification,
		models.ActionSendChannelMessage,
		models.ActionCreateTask,
		models.ActionCreateActivity,
		models.ActionUpdateField,
		models.ActionMoveStage,
		models.ActionAssignOwner,
		models.ActionAddTag,
		models.ActionRemoveTag,
		models.ActionWebhook,
		models.ActionDelay,
	} {
		assert.Contains(t, available, string(kind))
	}
}

func TestCreateAction_UnknownType(t *testing.T) {
	reg := testRegistry(t)

	_, err := reg.CreateAction("launch_rocket", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not registered")
}

func TestValidateAction(t *testing.T) {
	reg := testRegistry(t)

	tests := []struct {
		name    string
		action  models.Action
		wantErr bool
	}{
		{
			name: "valid notification",
			action: models.Action{
				ID:   "a-1",
				Type: models.ActionSendNotification,
				Params: map[string]any{
					"message": "Deal closed",
				},
			},
		},
		{
			name: "notification missing message",
			action: models.Action{
				ID:     "a-2",
				Type:   models.ActionSendNotification,
				Params: map[string]any{"title": "hi"},
			},
			wantErr: true,
		},
		{
			name: "valid webhook",
			action: models.Action{
				ID:   "a-3",
				Type: models.ActionWebhook,
				Params: map[string]any{
					"url":    "https://example.com/hook",
					"secret": "s3cret",
				},
			},
		},
		{
			name: "webhook missing secret",
			action: models.Action{
				ID:     "a-4",
				Type:   models.ActionWebhook,
				Params: map[string]any{"url": "https://example.com/hook"},
			},
			wantErr: true,
		},
		{
			name: "delay requires positive duration",
			action: models.Action{
				ID:     "a-5",
				Type:   models.ActionDelay,
				Params: map[string]any{"duration_ms": 0},
			},
			wantErr: true,
		},
		{
			name: "tag list must not be empty",
			action: models.Action{
				ID:     "a-6",
				Type:   models.ActionAddTag,
				Params: map[string]any{"tags": []string{}},
			},
			wantErr: true,
		},
		{
			name: "unknown type",
			action: models.Action{
				ID:   "a-7",
				Type: "launch_rocket",
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := reg.ValidateAction(tt.action)

			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestHealthCheck(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	empty := registry.NewRegistry(logger)
	message, ok := empty.HealthCheck()
	assert.False(t, ok)
	assert.Contains(t, message, "no action factories")

	loaded := testRegistry(t)
	_, ok = loaded.HealthCheck()
	assert.True(t, ok)
}
