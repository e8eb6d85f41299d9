package service

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"

	domainauth "github.com/target/bhajan-library/internal/domain/auth"
	mockauth "github.com/target/bhajan-library/internal/mocks/auth"
	"github.com/target/bhajan-library/internal/mocks/memory"
)

// In-memory ports shared with the HTTP tests.
type (
	memBhajans   = memory.Bhajans
	memTags      = memory.Tags
	memReports   = memory.Reports
	memFavorites = memory.Favorites
	memAudit     = memory.Audit
	memQueue     = memory.Queue
	memCache     = memory.Cache
	memPrefs     = memory.Preferences
	memStats     = memory.Stats
)

var (
	newMemBhajans   = memory.NewBhajans
	newMemFavorites = memory.NewFavorites
	newMemCache     = memory.NewCache
)

// staticActor is an ActorSource with a fixed user.
type staticActor struct{ state domainauth.State }

func (a staticActor) State() domainauth.State { return a.state }

func actorAs(id string, role domainauth.Role) staticActor {
	if id == "" {
		return staticActor{}
	}
	email := id + "@example.com"
	return staticActor{state: domainauth.State{
		User:    &domainauth.User{ID: id, Email: email},
		Profile: &domainauth.Profile{ID: id, Email: email, Role: role},
	}}
}

// sessionFixture is a SessionManager over in-memory auth fakes.
type sessionFixture struct {
	backend  *mockauth.MockAuthBackend
	accounts *mockauth.MemoryAccounts
	audit    *memAudit
	manager  *SessionManager
}

func newSessionFixture(t *testing.T) *sessionFixture {
	t.Helper()
	f := &sessionFixture{
		backend:  &mockauth.MockAuthBackend{},
		accounts: mockauth.NewMemoryAccounts(),
		audit:    &memAudit{},
	}
	recorder, err := NewAuditRecorder(AuditRecorderOptions{Repo: f.audit})
	require.NoError(t, err)
	f.manager, err = NewSessionManager(SessionManagerOptions{
		Backend:  f.backend,
		Profiles: f.accounts,
		Audit:    recorder,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = f.manager.Close() })
	return f
}

// account creates a user with role and returns a session for it.
func (f *sessionFixture) account(t *testing.T, email string, role domainauth.Role) *domainauth.Session {
	t.Helper()
	p, err := f.accounts.CreateAccount(context.Background(), email, "hash", role)
	require.NoError(t, err)
	return mockauth.NewSession(p.ID, email)
}

// persisted makes GetPersistedSession return sess.
func (f *sessionFixture) persisted(sess *domainauth.Session) {
	f.backend.GetPersistedSessionFunc = func(context.Context) (*domainauth.Session, error) { return sess, nil }
}

// signedIn bootstraps the manager with sess already persisted.
func (f *sessionFixture) signedIn(t *testing.T, sess *domainauth.Session) {
	t.Helper()
	f.persisted(sess)
	res := f.manager.InitializeAuth(context.Background())
	require.True(t, res.Success, res.Error)
	require.True(t, f.manager.State().IsAuthenticated())
}

func discardLogger() *slog.Logger { return slog.New(slog.NewTextHandler(io.Discard, nil)) }
