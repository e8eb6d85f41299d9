package redis

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/target/bhajan-library/internal/domain/model"
	"github.com/target/bhajan-library/internal/ports"
	"github.com/target/bhajan-library/internal/testutil"
)

func queued(entityID string) ports.QueuedAudit {
	return ports.QueuedAudit{
		Entry: model.AuditEntry{
			UserID:     "user-1",
			Action:     model.AuditCreate,
			EntityType: model.EntityBhajan,
			EntityID:   entityID,
			Changes:    []byte(`{"title":"Om"}`),
		},
		Attempts: 1,
		QueuedAt: testutil.TestTime(),
	}
}

func TestAuditQueue_FIFO(t *testing.T) {
	client, _ := testutil.NewMiniRedis(t)
	q := NewAuditQueue(client, "", nil)
	ctx := context.Background()

	for _, id := range []string{"b1", "b2", "b3"} {
		require.NoError(t, q.Push(ctx, queued(id)))
	}
	n, err := q.Len(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)

	items, err := q.Pop(ctx, 2)
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "b1", items[0].Entry.EntityID)
	assert.Equal(t, "b2", items[1].Entry.EntityID)
	assert.JSONEq(t, `{"title":"Om"}`, string(items[0].Entry.Changes))
	assert.Equal(t, 1, items[0].Attempts)
	assert.True(t, items[0].QueuedAt.Equal(testutil.TestTime()))

	items, err = q.Pop(ctx, 10)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "b3", items[0].Entry.EntityID)
}

func TestAuditQueue_PopEmpty(t *testing.T) {
	client, _ := testutil.NewMiniRedis(t)
	q := NewAuditQueue(client, "audit:test", nil)

	items, err := q.Pop(context.Background(), 5)
	require.NoError(t, err)
	assert.Empty(t, items)

	items, err = q.Pop(context.Background(), 0)
	require.NoError(t, err)
	assert.Nil(t, items)
}

func TestAuditQueue_DropsUndecodable(t *testing.T) {
	client, _ := testutil.NewMiniRedis(t)
	q := NewAuditQueue(client, "audit:test", nil)
	ctx := context.Background()

	require.NoError(t, client.RPush(ctx, "audit:test", "not-json").Err())
	require.NoError(t, q.Push(ctx, queued("b1")))

	items, err := q.Pop(ctx, 5)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "b1", items[0].Entry.EntityID)
}

func TestPreferencesStore_LoadSave(t *testing.T) {
	client, mr := testutil.NewMiniRedis(t)
	store := NewPreferencesStore(client)
	ctx := context.Background()

	_, ok, err := store.Load(ctx, "client-1")
	require.NoError(t, err)
	assert.False(t, ok)

	prefs := model.Preferences{ShowMeaning: true, EnabledScripts: []model.Script{model.ScriptKannada}}
	require.NoError(t, store.Save(ctx, "client-1", prefs))
	assert.Equal(t, preferencesTTL, mr.TTL("prefs:client-1"))

	got, ok, err := store.Load(ctx, "client-1")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, prefs, got)

	assert.Error(t, store.Save(ctx, "", prefs))
}
