package entity

import (
	"testing"
	"time"

	"github.com/caldera-io/relay/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStore_GetReturnsCopy(t *testing.T) {
	store := NewMemoryStore()
	store.Put(models.EntityTypeDeal, "d1", map[string]any{"title": "Acme"})

	snapshot, err := store.Get(t.Context(), models.EntityTypeDeal, "d1")
	require.NoError(t, err)

	snapshot["title"] = "mutated"

	again, err := store.Get(t.Context(), models.EntityTypeDeal, "d1")
	require.NoError(t, err)
	assert.Equal(t, "Acme", again["title"])
}

func TestMemoryStore_Get_NotFound(t *testing.T) {
	store := NewMemoryStore()

	_, err := store.Get(t.Context(), models.EntityTypeDeal, "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryStore_TagSetSemantics(t *testing.T) {
	store := NewMemoryStore()
	store.Put(models.EntityTypeContact, "c1", map[string]any{
		"tags": []any{"vip"},
	})

	// Union: duplicates are not added twice.
	err := store.AddTags(t.Context(), models.EntityTypeContact, "c1", []string{"vip", "newsletter"})
	require.NoError(t, err)

	record, err := store.Get(t.Context(), models.EntityTypeContact, "c1")
	require.NoError(t, err)
	assert.Equal(t, []string{"vip", "newsletter"}, record["tags"])

	// Difference: removing an absent tag is a no-op.
	err = store.RemoveTags(t.Context(), models.EntityTypeContact, "c1", []string{"vip", "absent"})
	require.NoError(t, err)

	record, err = store.Get(t.Context(), models.EntityTypeContact, "c1")
	require.NoError(t, err)
	assert.Equal(t, []string{"newsletter"}, record["tags"])
}

func TestMemoryStore_StageAndOwner(t *testing.T) {
	store := NewMemoryStore()
	store.Put(models.EntityTypeDeal, "d1", map[string]any{"stageId": "open"})

	require.NoError(t, store.MoveStage(t.Context(), models.EntityTypeDeal, "d1", "closed-won"))
	require.NoError(t, store.AssignOwner(t.Context(), models.EntityTypeDeal, "d1", "user-2"))

	record, err := store.Get(t.Context(), models.EntityTypeDeal, "d1")
	require.NoError(t, err)
	assert.Equal(t, "closed-won", record["stageId"])
	assert.Equal(t, "user-2", record["ownerId"])
}

func TestMemoryStore_OverdueTasks(t *testing.T) {
	store := NewMemoryStore()
	now := time.Now().UTC()

	past := now.Add(-time.Hour)
	future := now.Add(time.Hour)

	require.NoError(t, store.CreateTask(t.Context(), &Task{Title: "late", DueAt: &past}))
	require.NoError(t, store.CreateTask(t.Context(), &Task{Title: "on time", DueAt: &future}))
	require.NoError(t, store.CreateTask(t.Context(), &Task{Title: "done", DueAt: &past, Completed: true}))

	overdue, err := store.OverdueTasks(t.Context(), now)
	require.NoError(t, err)
	require.Len(t, overdue, 1)
	assert.Equal(t, "late", overdue[0].Title)
}
