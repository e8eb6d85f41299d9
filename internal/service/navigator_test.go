package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainauth "github.com/target/bhajan-library/internal/domain/auth"
	"github.com/target/bhajan-library/internal/domain/route"
)

func newTestNavigator(t *testing.T, f *sessionFixture) *Navigator {
	t.Helper()
	nav, err := NewNavigator(NavigatorOptions{Sessions: f.manager})
	require.NoError(t, err)
	return nav
}

func TestNewNavigator_RequiresSessions(t *testing.T) {
	_, err := NewNavigator(NavigatorOptions{})
	require.Error(t, err)
}

// Scenario A: an anonymous visitor opening the create page is sent to login with a return path.
func TestNavigate_AnonymousCreateRedirectsToLogin(t *testing.T) {
	f := newSessionFixture(t)
	nav := newTestNavigator(t, f)

	got := nav.Navigate(context.Background(), "/bhajan/create")

	assert.Equal(t, route.RedirectedToLogin, got.Outcome)
	assert.Equal(t, "/login?redirect=/bhajan/create", got.Location)
	assert.Equal(t, route.NameBhajanCreate, got.Route)
	assert.True(t, got.Known)
	// With no user loaded the guard waits for the session bootstrap.
	assert.Equal(t, 1, f.backend.Calls("GetPersistedSession"))
}

// Scenario B: a plain user opening the admin dashboard is sent home.
func TestNavigate_UserOnAdminRedirectsHome(t *testing.T) {
	f := newSessionFixture(t)
	f.signedIn(t, f.account(t, "user@example.com", domainauth.RoleUser))
	nav := newTestNavigator(t, f)

	got := nav.Navigate(context.Background(), "/admin")

	assert.Equal(t, route.RedirectedToHome, got.Outcome)
	assert.Equal(t, "/", got.Location)
}

// Scenario E: an admin on the login page goes home without any backend call.
func TestNavigate_AdminOnGuestPageMakesNoBackendCall(t *testing.T) {
	f := newSessionFixture(t)
	f.signedIn(t, f.account(t, "admin@example.com", domainauth.RoleAdmin))
	nav := newTestNavigator(t, f)
	calls := f.backend.TotalCalls()
	reads := f.accounts.ProfileReads()

	got := nav.Navigate(context.Background(), "/login")

	assert.Equal(t, route.RedirectedToHome, got.Outcome)
	assert.Equal(t, "/", got.Location)
	assert.Equal(t, calls, f.backend.TotalCalls())
	assert.Equal(t, reads, f.accounts.ProfileReads())
}

func TestNavigate_RestoresPersistedSessionBeforeDeciding(t *testing.T) {
	f := newSessionFixture(t)
	f.persisted(f.account(t, "editor@example.com", domainauth.RoleEditor))
	nav := newTestNavigator(t, f)

	got := nav.Navigate(context.Background(), "/bhajan/abc/edit")

	assert.Equal(t, route.Allowed, got.Outcome)
	assert.Empty(t, got.Location)
	assert.Equal(t, map[string]string{"id": "abc"}, got.Params)
}

func TestNavigate_Table(t *testing.T) {
	tests := []struct {
		name    string
		role    domainauth.Role
		path    string
		outcome route.Outcome
	}{
		{"anonymous home", "", "/", route.Allowed},
		{"anonymous detail", "", "/bhajan/42", route.Allowed},
		{"anonymous login", "", "/login", route.Allowed},
		{"anonymous admin", "", "/admin/reports", route.RedirectedToLogin},
		{"user my-bhajans", domainauth.RoleUser, "/my-bhajans", route.RedirectedToHome},
		{"user signup", domainauth.RoleUser, "/signup", route.RedirectedToHome},
		{"editor create", domainauth.RoleEditor, "/bhajan/create", route.Allowed},
		{"editor review queue", domainauth.RoleEditor, "/admin/review-queue", route.RedirectedToHome},
		{"admin review queue", domainauth.RoleAdmin, "/admin/review-queue", route.Allowed},
		{"admin create", domainauth.RoleAdmin, "/bhajan/create", route.Allowed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newSessionFixture(t)
			if tt.role != "" {
				f.signedIn(t, f.account(t, "someone@example.com", tt.role))
			}
			got := newTestNavigator(t, f).Navigate(context.Background(), tt.path)
			assert.Equal(t, tt.outcome, got.Outcome)
		})
	}
}

func TestNavigate_UnknownPathAllowed(t *testing.T) {
	f := newSessionFixture(t)
	got := newTestNavigator(t, f).Navigate(context.Background(), "/no/such/page")

	assert.Equal(t, route.Allowed, got.Outcome)
	assert.False(t, got.Known)
	assert.Empty(t, got.Route)
}

func TestNavigate_BootstrapFailureStillDecides(t *testing.T) {
	f := newSessionFixture(t)
	f.backend.GetPersistedSessionFunc = func(context.Context) (*domainauth.Session, error) {
		return nil, assert.AnError
	}

	got := newTestNavigator(t, f).Navigate(context.Background(), "/my-bhajans")

	assert.Equal(t, route.RedirectedToLogin, got.Outcome)
	assert.Equal(t, "/login?redirect=/my-bhajans", got.Location)
}

func TestFlagsOf(t *testing.T) {
	assert.Equal(t, route.Flags{}, FlagsOf(domainauth.State{}))

	st := actorAs("u1", domainauth.RoleAdmin).State()
	assert.Equal(t, route.Flags{Authenticated: true, Editor: true, Admin: true}, FlagsOf(st))
}
