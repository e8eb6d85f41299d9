package devauth

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainauth "github.com/target/bhajan-library/internal/domain/auth"
	mockauth "github.com/target/bhajan-library/internal/mocks/auth"
	"github.com/target/bhajan-library/internal/ports"
)

func TestProvision_CreatesThenPromotes(t *testing.T) {
	accounts := mockauth.NewMemoryAccounts()
	ctx := context.Background()

	p, err := Provision(ctx, accounts, accounts, Config{Email: "Dev@Example.com", Password: "devpassword"})
	require.NoError(t, err)
	assert.Equal(t, "dev@example.com", p.Email)
	assert.Equal(t, domainauth.RoleAdmin, p.Role)

	p2, err := Provision(ctx, accounts, accounts, Config{
		Email:    "dev@example.com",
		Password: "devpassword",
		Role:     domainauth.RoleEditor,
	})
	require.NoError(t, err)
	assert.Equal(t, p.ID, p2.ID)
	assert.Equal(t, domainauth.RoleEditor, p2.Role)
	assert.Equal(t, 1, accounts.Created())
}

func TestProvision_Validation(t *testing.T) {
	accounts := mockauth.NewMemoryAccounts()
	ctx := context.Background()

	_, err := Provision(ctx, accounts, accounts, Config{Password: "devpassword"})
	assert.Error(t, err)
	_, err = Provision(ctx, accounts, accounts, Config{Email: "dev@example.com", Password: "short"})
	assert.Error(t, err)
	_, err = Provision(ctx, accounts, accounts, Config{Email: "dev@example.com", Password: "devpassword", Role: "root"})
	assert.Error(t, err)
}

func TestSessionStore(t *testing.T) {
	s := NewSessionStore()
	ctx := context.Background()

	_, err := s.Get(ctx, "k")
	assert.ErrorIs(t, err, ports.ErrSessionNotFound)

	sess := domainauth.Session{User: domainauth.User{ID: "u"}}
	require.NoError(t, s.Save(ctx, "k", sess))
	got, err := s.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, sess, got)

	require.NoError(t, s.Delete(ctx, "k"))
	_, err = s.Get(ctx, "k")
	assert.ErrorIs(t, err, ports.ErrSessionNotFound)
	assert.Error(t, s.Save(ctx, "", sess))
}

func TestHub_PublishSubscribeClose(t *testing.T) {
	h := NewHub(nil)
	ctx := context.Background()

	a, err := h.Subscribe(ctx, "k")
	require.NoError(t, err)
	b, err := h.Subscribe(ctx, "k")
	require.NoError(t, err)
	other, err := h.Subscribe(ctx, "other")
	require.NoError(t, err)
	assert.Equal(t, 2, h.Subscribers("k"))

	require.NoError(t, h.Publish(ctx, "k", domainauth.Event{Kind: domainauth.EventSignedIn}))
	require.NoError(t, h.Publish(ctx, "k", domainauth.Event{Kind: domainauth.EventSignedOut}))

	for _, sub := range []ports.AuthSubscription{a, b} {
		assert.Equal(t, domainauth.EventSignedIn, (<-sub.Events()).Kind)
		assert.Equal(t, domainauth.EventSignedOut, (<-sub.Events()).Kind)
	}
	assert.Empty(t, other.Events())

	require.NoError(t, a.Close())
	require.NoError(t, a.Close())
	_, ok := <-a.Events()
	assert.False(t, ok)
	assert.Equal(t, 1, h.Subscribers("k"))

	require.NoError(t, b.Close())
	require.NoError(t, other.Close())
	assert.Equal(t, 0, h.Subscribers("k"))
	assert.NoError(t, h.Publish(ctx, "k", domainauth.Event{Kind: domainauth.EventSignedIn}))
}
