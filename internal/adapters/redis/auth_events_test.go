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

func nextEvent(t *testing.T, ch <-chan domainauth.Event) domainauth.Event {
	t.Helper()
	select {
	case ev, ok := <-ch:
		require.True(t, ok, "subscription closed")
		return ev
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for auth event")
		return domainauth.Event{}
	}
}

func TestAuthEventBus_DeliversInOrder(t *testing.T) {
	client, _ := testutil.NewMiniRedis(t)
	bus := NewAuthEventBus(client, nil)
	ctx := context.Background()

	sub, err := bus.Subscribe(ctx, "client-1")
	require.NoError(t, err)
	defer sub.Close()

	sess := testSession()
	require.NoError(t, bus.Publish(ctx, "client-1", domainauth.Event{Kind: domainauth.EventSignedIn, Session: &sess}))
	require.NoError(t, bus.Publish(ctx, "client-1", domainauth.Event{Kind: domainauth.EventSignedOut}))

	first := nextEvent(t, sub.Events())
	assert.Equal(t, domainauth.EventSignedIn, first.Kind)
	require.NotNil(t, first.Session)
	assert.Equal(t, sess.User, first.Session.User)

	second := nextEvent(t, sub.Events())
	assert.Equal(t, domainauth.EventSignedOut, second.Kind)
	assert.Nil(t, second.Session)
}

func TestAuthEventBus_IsolatesKeys(t *testing.T) {
	client, _ := testutil.NewMiniRedis(t)
	bus := NewAuthEventBus(client, nil)
	ctx := context.Background()

	a, err := bus.Subscribe(ctx, "a")
	require.NoError(t, err)
	defer a.Close()
	b, err := bus.Subscribe(ctx, "b")
	require.NoError(t, err)
	defer b.Close()

	require.NoError(t, bus.Publish(ctx, "b", domainauth.Event{Kind: domainauth.EventUserUpdated}))
	assert.Equal(t, domainauth.EventUserUpdated, nextEvent(t, b.Events()).Kind)

	select {
	case ev := <-a.Events():
		t.Fatalf("unexpected event on other key: %+v", ev)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestAuthEventBus_CloseEndsChannel(t *testing.T) {
	client, _ := testutil.NewMiniRedis(t)
	bus := NewAuthEventBus(client, nil)

	sub, err := bus.Subscribe(context.Background(), "client-1")
	require.NoError(t, err)
	require.NoError(t, sub.Close())
	assert.NoError(t, sub.Close())

	_, ok := <-sub.Events()
	assert.False(t, ok)
}

func TestAuthEventBus_RejectsEmptyKey(t *testing.T) {
	client, _ := testutil.NewMiniRedis(t)
	bus := NewAuthEventBus(client, nil)

	_, err := bus.Subscribe(context.Background(), "")
	assert.Error(t, err)
	assert.Error(t, bus.Publish(context.Background(), "", domainauth.Event{Kind: domainauth.EventSignedOut}))
}
