package httpx

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	domainauth "github.com/target/bhajan-library/internal/domain/auth"
	apperrors "github.com/target/bhajan-library/internal/errors"
	mockauth "github.com/target/bhajan-library/internal/mocks/auth"
	"github.com/target/bhajan-library/internal/mocks/memory"
	"github.com/target/bhajan-library/internal/ports"
	"github.com/target/bhajan-library/internal/service"
)

const testPassword = "correct horse"

// testApp is the full router over in-memory ports. Each client key gets its own auth
// backend whose SignIn accepts any known account with testPassword.
type testApp struct {
	accounts *mockauth.MemoryAccounts
	bhajans  *memory.Bhajans
	reports  *memory.Reports
	audit    *memory.Audit
	stats    *memory.Stats
	registry *service.ClientRegistry
	handler  http.Handler

	mu       sync.Mutex
	backends map[string]*mockauth.MockAuthBackend
}

func newTestApp(t *testing.T, health ...HealthCheck) *testApp {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	a := &testApp{
		accounts: mockauth.NewMemoryAccounts(),
		bhajans:  memory.NewBhajans(),
		reports:  &memory.Reports{},
		audit:    &memory.Audit{},
		stats:    &memory.Stats{},
		backends: make(map[string]*mockauth.MockAuthBackend),
	}

	recorder, err := service.NewAuditRecorder(service.AuditRecorderOptions{Repo: a.audit, Logger: logger})
	require.NoError(t, err)
	analytics, err := service.NewAnalyticsService(service.AnalyticsServiceOptions{
		Repo:   a.stats,
		Cache:  service.SiteStatsCacheOptions{Repo: memory.NewCache()},
		Logger: logger,
	})
	require.NoError(t, err)

	deps := service.ClientDeps{
		Auth:        a.backend,
		Profiles:    a.accounts,
		Bhajans:     a.bhajans,
		Tags:        &memory.Tags{},
		Reports:     a.reports,
		Favorites:   memory.NewFavorites(a.bhajans),
		Stats:       a.stats,
		Preferences: &memory.Preferences{},
		Cache:       memory.NewCache(),
		Audit:       recorder,
		Analytics:   analytics,
		Logger:      logger,
	}
	a.registry, err = service.NewClientRegistry(service.ClientRegistryOptions{
		Factory: func(key string) (*service.Client, error) { return service.NewClient(key, deps) },
		IdleTTL: time.Hour,
		Logger:  logger,
	})
	require.NoError(t, err)
	t.Cleanup(a.registry.CloseAll)

	a.handler = NewRouter(RouterServices{
		Clients:   a.registry,
		Analytics: analytics,
		Health:    health,
		Logger:    logger,
	})
	return a
}

func (a *testApp) backend(key string) ports.AuthBackend {
	a.mu.Lock()
	defer a.mu.Unlock()
	if b, ok := a.backends[key]; ok {
		return b
	}
	var current *domainauth.Session
	b := &mockauth.MockAuthBackend{
		SignInFunc: func(ctx context.Context, email, password string) (*domainauth.Session, error) {
			p, err := a.accounts.GetByEmail(ctx, email)
			if err != nil || password != testPassword {
				return nil, apperrors.NotAuthenticated("Invalid login credentials")
			}
			current = mockauth.NewSession(p.ID, email)
			return current, nil
		},
		RefreshSessionFunc: func(context.Context) (*domainauth.Session, error) {
			if current == nil {
				return nil, apperrors.NotAuthenticated("Session expired")
			}
			rotated := *current
			rotated.AccessToken += "-refreshed"
			current = &rotated
			return current, nil
		},
	}
	a.backends[key] = b
	return b
}

// account creates a profile with role.
func (a *testApp) account(t *testing.T, email string, role domainauth.Role) *domainauth.Profile {
	t.Helper()
	p, err := a.accounts.CreateAccount(context.Background(), email, "hash", role)
	require.NoError(t, err)
	return p
}

// browser is a cookie-carrying client of a testApp.
type browser struct {
	t      *testing.T
	app    *testApp
	cookie *http.Cookie
}

func (a *testApp) browser(t *testing.T) *browser {
	return &browser{t: t, app: a}
}

func (b *browser) do(method, target, body string) *httptest.ResponseRecorder {
	b.t.Helper()
	var rdr io.Reader
	if body != "" {
		rdr = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, rdr)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if b.cookie != nil {
		req.AddCookie(b.cookie)
	}
	rec := httptest.NewRecorder()
	b.app.handler.ServeHTTP(rec, req)
	for _, c := range rec.Result().Cookies() {
		if c.Name == ClientCookieName {
			b.cookie = c
		}
	}
	return rec
}

// signIn creates an account with role and signs this browser in as it.
func (b *browser) signIn(email string, role domainauth.Role) *domainauth.Profile {
	b.t.Helper()
	p := b.app.account(b.t, email, role)
	rec := b.do(http.MethodPost, "/api/auth/signin", `{"email":"`+email+`","password":"`+testPassword+`"}`)
	require.Equal(b.t, http.StatusOK, rec.Code, rec.Body.String())
	return p
}

// envelope is the decoded body of a Result or error response.
type envelope struct {
	Success bool            `json:"success"`
	Error   string          `json:"error"`
	Code    string          `json:"code"`
	Phase   string          `json:"phase"`
	Data    json.RawMessage `json:"data"`
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env), rec.Body.String())
	return env
}
