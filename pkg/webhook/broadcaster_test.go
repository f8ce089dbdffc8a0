package webhook

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/caldera-io/relay/pkg/models"
	"github.com/caldera-io/relay/pkg/persistence/file"
)

func TestBroadcast_ScopedEventOnlyReachesItsTenant(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	repo := file.NewSubscriptionRepository(t.TempDir())

	for _, sub := range []*models.WebhookSubscription{
		{ID: "sub-own", Scope: "tenant-1", Name: "own", URL: server.URL, Secret: "s", Events: []string{"deal_created"}, Active: true},
		{ID: "sub-foreign", Scope: "tenant-2", Name: "foreign", URL: server.URL, Secret: "s", Events: []string{"deal_created"}, Active: true},
	} {
		require.NoError(t, repo.Save(t.Context(), sub))
	}

	broadcaster := NewBroadcaster(repo, NewDeliverer(testLogger()), testLogger())

	results := broadcaster.Broadcast(t.Context(), models.Event{
		TriggerType: models.TriggerDealCreated,
		EntityType:  models.EntityTypeDeal,
		EntityID:    "d-1",
		Scope:       "tenant-1",
		NewData:     map[string]any{"value": 5000},
	})

	require.Len(t, results, 1)
	assert.Equal(t, "sub-own", results[0].WebhookID)
}
