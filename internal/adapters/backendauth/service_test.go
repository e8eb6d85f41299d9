package backendauth

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/target/bhajan-library/internal/adapters/devauth"
	domainauth "github.com/target/bhajan-library/internal/domain/auth"
	apperrors "github.com/target/bhajan-library/internal/errors"
	mockauth "github.com/target/bhajan-library/internal/mocks/auth"
	"github.com/target/bhajan-library/internal/ports"
)

type fixture struct {
	svc      *Service
	accounts *mockauth.MemoryAccounts
	sessions *devauth.SessionStore
	hub      *devauth.Hub
	mailer   *mockauth.RecordingMailer
	tokens   *TokenIssuer
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	tokens, err := NewTokenIssuer(testSecret, "bhajan-library", time.Hour)
	require.NoError(t, err)

	f := &fixture{
		accounts: mockauth.NewMemoryAccounts(),
		sessions: devauth.NewSessionStore(),
		hub:      devauth.NewHub(nil),
		mailer:   &mockauth.RecordingMailer{},
		tokens:   tokens,
	}
	f.svc, err = NewService(Options{
		Accounts: f.accounts,
		Sessions: f.sessions,
		Events:   f.hub,
		Roles:    mockauth.StaticRoleMapper{Overrides: map[string]domainauth.Role{"admin@example.com": domainauth.RoleAdmin}},
		Mailer:   f.mailer,
		Tokens:   tokens,
		ResetURL: "http://localhost:8080/reset-password",
	})
	require.NoError(t, err)
	return f
}

func subscribe(t *testing.T, b ports.AuthBackend) ports.AuthSubscription {
	t.Helper()
	sub, err := b.SubscribeAuthChanges(context.Background())
	require.NoError(t, err)
	t.Cleanup(func() { _ = sub.Close() })
	return sub
}

func nextKind(t *testing.T, sub ports.AuthSubscription) domainauth.EventKind {
	t.Helper()
	select {
	case ev := <-sub.Events():
		return ev.Kind
	case <-time.After(time.Second):
		t.Fatal("no auth event")
		return ""
	}
}

func TestNewService_RequiresDependencies(t *testing.T) {
	_, err := NewService(Options{})
	assert.Error(t, err)
}

func TestSignUp_CreatesAccountAndSession(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	b := f.svc.For("client-1")
	sub := subscribe(t, b)

	sess, err := b.SignUp(ctx, "  Admin@Example.com ", "password123")
	require.NoError(t, err)
	assert.Equal(t, "admin@example.com", sess.User.Email)
	assert.Equal(t, domainauth.EventSignedIn, nextKind(t, sub))

	profile, err := f.accounts.GetByID(ctx, sess.User.ID)
	require.NoError(t, err)
	assert.Equal(t, domainauth.RoleAdmin, profile.Role)

	restored, err := b.GetPersistedSession(ctx)
	require.NoError(t, err)
	require.NotNil(t, restored)
	assert.Equal(t, sess.AccessToken, restored.AccessToken)
}

func TestSignUp_Validation(t *testing.T) {
	f := newFixture(t)
	b := f.svc.For("client-1")

	_, err := b.SignUp(context.Background(), "not-an-email", "password123")
	assert.True(t, apperrors.IsValidation(err))

	_, err = b.SignUp(context.Background(), "a@example.com", "short")
	assert.True(t, apperrors.IsValidation(err))
	assert.Equal(t, 0, f.accounts.Created())
}

func TestSignIn(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, err := f.svc.For("signup-client").SignUp(ctx, "user@example.com", "password123")
	require.NoError(t, err)

	b := f.svc.For("client-2")
	_, err = b.SignIn(ctx, "user@example.com", "wrong-password")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = b.SignIn(ctx, "nobody@example.com", "password123")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	sess, err := b.SignIn(ctx, "USER@example.com", "password123")
	require.NoError(t, err)
	assert.Equal(t, "user@example.com", sess.User.Email)

	stored, err := f.sessions.Get(ctx, "client-2")
	require.NoError(t, err)
	assert.Equal(t, sess.AccessToken, stored.AccessToken)
}

func TestSignOut_DeletesSessionAndPublishes(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	b := f.svc.For("client-1")
	_, err := b.SignUp(ctx, "user@example.com", "password123")
	require.NoError(t, err)
	sub := subscribe(t, b)

	require.NoError(t, b.SignOut(ctx))
	assert.Equal(t, domainauth.EventSignedOut, nextKind(t, sub))

	sess, err := b.GetPersistedSession(ctx)
	require.NoError(t, err)
	assert.Nil(t, sess)
}

func TestGetPersistedSession_RefreshesExpiredToken(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	b := f.svc.For("client-1")

	f.tokens.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	old, err := b.SignUp(ctx, "user@example.com", "password123")
	require.NoError(t, err)
	f.tokens.now = time.Now

	sub := subscribe(t, b)
	sess, err := b.GetPersistedSession(ctx)
	require.NoError(t, err)
	require.NotNil(t, sess)
	assert.NotEqual(t, old.AccessToken, sess.AccessToken)
	assert.Equal(t, old.User, sess.User)
	assert.Equal(t, domainauth.EventTokenRefreshed, nextKind(t, sub))
}

func TestGetPersistedSession_DiscardsForeignToken(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	require.NoError(t, f.sessions.Save(ctx, "client-1", domainauth.Session{
		User:        domainauth.User{ID: "u-1"},
		AccessToken: "garbage",
	}))

	sess, err := f.svc.For("client-1").GetPersistedSession(ctx)
	require.NoError(t, err)
	assert.Nil(t, sess)
	_, err = f.sessions.Get(ctx, "client-1")
	assert.ErrorIs(t, err, ports.ErrSessionNotFound)
}

func TestRefreshAndUpdatePassword_RequireSession(t *testing.T) {
	f := newFixture(t)
	b := f.svc.For("anonymous")

	_, err := b.RefreshSession(context.Background())
	assert.True(t, apperrors.IsNotAuthenticated(err))
	_, err = b.UpdatePassword(context.Background(), "password456")
	assert.True(t, apperrors.IsNotAuthenticated(err))
}

func TestUpdatePassword_PublishesUserUpdated(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	b := f.svc.For("client-1")
	_, err := b.SignUp(ctx, "user@example.com", "password123")
	require.NoError(t, err)
	sub := subscribe(t, b)

	_, err = b.UpdatePassword(ctx, "password456")
	require.NoError(t, err)
	assert.Equal(t, domainauth.EventUserUpdated, nextKind(t, sub))

	_, err = f.svc.For("other").SignIn(ctx, "user@example.com", "password456")
	assert.NoError(t, err)
}

func TestPasswordResetFlow(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, err := f.svc.For("c").SignUp(ctx, "user@example.com", "password123")
	require.NoError(t, err)

	b := f.svc.For("reset-client")
	require.NoError(t, b.SendPasswordReset(ctx, "unknown@example.com"))
	assert.Empty(t, f.mailer.Sent())

	require.NoError(t, b.SendPasswordReset(ctx, "user@example.com"))
	sent := f.mailer.Sent()
	require.Len(t, sent, 1)
	assert.Equal(t, "user@example.com", sent[0].To)

	_, after, found := strings.Cut(sent[0].Body, "?token=")
	require.True(t, found)
	token := strings.TrimSpace(after)

	require.NoError(t, b.ResetPassword(ctx, token, "brand-new-pass"))
	assert.Error(t, b.ResetPassword(ctx, token, "another-pass"), "tokens are single use")

	_, err = b.SignIn(ctx, "user@example.com", "brand-new-pass")
	assert.NoError(t, err)
}

func TestSendPasswordReset_BackendErrorSurfaces(t *testing.T) {
	f := newFixture(t)
	f.accounts.Err = errors.New("db down")

	err := f.svc.For("c").SendPasswordReset(context.Background(), "user@example.com")
	assert.EqualError(t, err, "db down")
}
