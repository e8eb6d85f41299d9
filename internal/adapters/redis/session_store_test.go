package redis

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainauth "github.com/target/bhajan-library/internal/domain/auth"
	"github.com/target/bhajan-library/internal/testutil"
)

func testSession() domainauth.Session {
	return domainauth.Session{
		User:         domainauth.User{ID: "user-123", Email: "user@example.com"},
		AccessToken:  "access",
		RefreshToken: "refresh",
		ExpiresAt:    time.Now().Add(30 * time.Minute).UTC().Truncate(time.Second),
	}
}

func TestSessionStore_SaveAndGet(t *testing.T) {
	client, _ := testutil.NewMiniRedis(t)
	store := NewSessionStore(client, time.Hour)
	ctx := context.Background()

	sess := testSession()
	require.NoError(t, store.Save(ctx, "client-1", sess))

	got, err := store.Get(ctx, "client-1")
	require.NoError(t, err)
	assert.Equal(t, sess.User, got.User)
	assert.Equal(t, sess.AccessToken, got.AccessToken)
	assert.Equal(t, sess.RefreshToken, got.RefreshToken)
	assert.True(t, sess.ExpiresAt.Equal(got.ExpiresAt))
}

func TestSessionStore_GetNonExistent(t *testing.T) {
	client, _ := testutil.NewMiniRedis(t)
	store := NewSessionStore(client, time.Hour)

	_, err := store.Get(context.Background(), "missing")
	assert.Equal(t, ErrNotFound, err)

	_, err = store.Get(context.Background(), "")
	assert.Equal(t, ErrNotFound, err)
}

func TestSessionStore_Delete(t *testing.T) {
	client, _ := testutil.NewMiniRedis(t)
	store := NewSessionStore(client, time.Hour)
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, "client-1", testSession()))
	require.NoError(t, store.Delete(ctx, "client-1"))

	_, err := store.Get(ctx, "client-1")
	assert.Equal(t, ErrNotFound, err)
	assert.NoError(t, store.Delete(ctx, ""))
}

func TestSessionStore_KeyExpiresAfterTTL(t *testing.T) {
	client, mr := testutil.NewMiniRedis(t)
	store := NewSessionStore(client, time.Minute)
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, "client-1", testSession()))
	assert.True(t, mr.Exists("session:client-1"))
	assert.Equal(t, time.Minute, mr.TTL("session:client-1"))

	mr.FastForward(2 * time.Minute)
	_, err := store.Get(ctx, "client-1")
	assert.Equal(t, ErrNotFound, err)
}

func TestSessionStore_SaveRejectsInvalid(t *testing.T) {
	client, _ := testutil.NewMiniRedis(t)
	store := NewSessionStore(client, time.Hour)

	assert.Error(t, store.Save(context.Background(), "", testSession()))
	assert.Error(t, store.Save(context.Background(), "client-1", domainauth.Session{}))
}

func TestSessionStore_CustomPrefix(t *testing.T) {
	client, mr := testutil.NewMiniRedis(t)
	store := NewSessionStoreWithPrefix(client, "bl:sess:", 0)

	require.NoError(t, store.Save(context.Background(), "c", testSession()))
	assert.True(t, mr.Exists("bl:sess:c"))
	assert.Equal(t, DefaultSessionTTL, mr.TTL("bl:sess:c"))
}
