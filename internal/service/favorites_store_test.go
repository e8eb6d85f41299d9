package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainauth "github.com/target/bhajan-library/internal/domain/auth"
	"github.com/target/bhajan-library/internal/domain/model"
	apperrors "github.com/target/bhajan-library/internal/errors"
)

func newFavoritesFixture(t *testing.T, actor ActorSource) (*FavoritesStore, *memFavorites, *memBhajans, *memAudit) {
	t.Helper()
	bhajans, audit := newMemBhajans(), &memAudit{}
	favs := newMemFavorites(bhajans)
	s, err := NewFavoritesStore(FavoritesStoreOptions{Repo: favs, Deps: storeDeps(t, actor, audit, nil)})
	require.NoError(t, err)
	return s, favs, bhajans, audit
}

func TestFavoritesStore_ToggleAndFetch(t *testing.T) {
	store, _, bhajans, audit := newFavoritesFixture(t, actorAs("u1", domainauth.RoleUser))
	b := bhajans.Put(model.Bhajan{Title: "Fav", Status: model.BhajanStatusApproved})
	ctx := context.Background()

	on := store.Toggle(ctx, b.ID)
	require.True(t, on.Success)
	assert.True(t, on.Data.(FavoriteToggle).Favorited)
	assert.Equal(t, b.ID, on.Data.(FavoriteToggle).BhajanID)
	assert.Equal(t, PhasePrimaryDone, on.Phase)

	require.True(t, store.Fetch(ctx, 20, 0).Success)
	require.True(t, store.FetchCount(ctx).Success)
	snap := store.Snapshot()
	require.Len(t, snap.Favorites, 1)
	assert.Equal(t, 1, snap.Count)
	assert.Equal(t, true, store.IsFavorited(ctx, b.ID).Data)

	off := store.Toggle(ctx, b.ID)
	require.True(t, off.Success)
	assert.False(t, off.Data.(FavoriteToggle).Favorited)
	snap = store.Snapshot()
	assert.Empty(t, snap.Favorites)
	assert.Zero(t, snap.Count)
	assert.Equal(t, false, store.IsFavorited(ctx, b.ID).Data)

	assert.Empty(t, audit.Entries())
}

func TestFavoritesStore_AddTwiceIsHarmless(t *testing.T) {
	store, favs, _, _ := newFavoritesFixture(t, actorAs("u1", domainauth.RoleUser))

	require.True(t, store.Add(context.Background(), "b-1").Success)
	require.True(t, store.Add(context.Background(), "b-1").Success)

	n, err := favs.Count(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestFavoritesStore_RequiresUser(t *testing.T) {
	store, _, _, _ := newFavoritesFixture(t, actorAs("", ""))

	assert.True(t, apperrors.IsNotAuthenticated(store.Add(context.Background(), "b-1").Err()))
	assert.True(t, apperrors.IsNotAuthenticated(store.Fetch(context.Background(), 10, 0).Err()))
}

func TestFavoritesStore_RemoveFailureKeepsMirror(t *testing.T) {
	store, favs, bhajans, _ := newFavoritesFixture(t, actorAs("u1", domainauth.RoleUser))
	b := bhajans.Put(model.Bhajan{Title: "Fav"})
	require.True(t, store.Add(context.Background(), b.ID).Success)
	require.True(t, store.Fetch(context.Background(), 10, 0).Success)
	favs.Err = errors.New("unavailable")

	res := store.Remove(context.Background(), b.ID)

	assert.False(t, res.Success)
	assert.Len(t, store.Snapshot().Favorites, 1)
	assert.Equal(t, "unavailable", store.Snapshot().Error)
}

func TestFavoritesStore_AddKeepsCountInStep(t *testing.T) {
	store, favs, bhajans, _ := newFavoritesFixture(t, actorAs("u1", domainauth.RoleUser))
	first := bhajans.Put(model.Bhajan{Title: "First"})
	second := bhajans.Put(model.Bhajan{Title: "Second"})
	ctx := context.Background()
	require.NoError(t, favs.Add(ctx, "u1", first.ID))
	require.True(t, store.FetchCount(ctx).Success)
	require.Equal(t, 1, store.Snapshot().Count)

	require.True(t, store.Add(ctx, second.ID).Success)
	assert.Equal(t, 2, store.Snapshot().Count)

	require.True(t, store.Add(ctx, second.ID).Success)
	assert.Equal(t, 2, store.Snapshot().Count)

	require.True(t, store.Toggle(ctx, first.ID).Success)
	assert.Equal(t, 1, store.Snapshot().Count)

	require.True(t, store.Remove(ctx, first.ID).Success)
	assert.Equal(t, 1, store.Snapshot().Count)

	n, err := favs.Count(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, n, store.Snapshot().Count)
}
