package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainauth "github.com/target/bhajan-library/internal/domain/auth"
	"github.com/target/bhajan-library/internal/domain/model"
	mockauth "github.com/target/bhajan-library/internal/mocks/auth"
	"github.com/target/bhajan-library/internal/ports"
)

type clientFixture struct {
	mu       sync.Mutex
	backends map[string]*mockauth.MockAuthBackend
	accounts *mockauth.MemoryAccounts
	prefs    *memPrefs
	deps     ClientDeps
}

func newClientFixture(t *testing.T) *clientFixture {
	t.Helper()
	f := &clientFixture{
		backends: make(map[string]*mockauth.MockAuthBackend),
		accounts: mockauth.NewMemoryAccounts(),
		prefs:    &memPrefs{},
	}
	bhajans := newMemBhajans()
	recorder, err := NewAuditRecorder(AuditRecorderOptions{Repo: &memAudit{}})
	require.NoError(t, err)
	f.deps = ClientDeps{
		Auth:        f.backend,
		Profiles:    f.accounts,
		Bhajans:     bhajans,
		Tags:        &memTags{},
		Reports:     &memReports{},
		Favorites:   newMemFavorites(bhajans),
		Stats:       &memStats{},
		Preferences: f.prefs,
		Audit:       recorder,
		Logger:      discardLogger(),
	}
	return f
}

func (f *clientFixture) backend(key string) ports.AuthBackend {
	f.mu.Lock()
	defer f.mu.Unlock()
	b, ok := f.backends[key]
	if !ok {
		b = &mockauth.MockAuthBackend{}
		f.backends[key] = b
	}
	return b
}

func (f *clientFixture) backendFor(key string) *mockauth.MockAuthBackend {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.backends[key]
}

type gaugeRecorder struct {
	mu   sync.Mutex
	last int
}

func (g *gaugeRecorder) SetActiveClients(n int) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.last = n
}

func (g *gaugeRecorder) value() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.last
}

func TestNewClient(t *testing.T) {
	f := newClientFixture(t)

	t.Run("requires key", func(t *testing.T) {
		_, err := NewClient("", f.deps)
		require.Error(t, err)
	})

	t.Run("requires repositories", func(t *testing.T) {
		deps := f.deps
		deps.Stats = nil
		_, err := NewClient("k1", deps)
		require.Error(t, err)
	})

	t.Run("wires every store", func(t *testing.T) {
		c, err := NewClient("k1", f.deps)
		require.NoError(t, err)
		t.Cleanup(func() { _ = c.Close() })

		assert.Equal(t, "k1", c.Key)
		assert.NotNil(t, c.Sessions)
		assert.NotNil(t, c.Navigator)
		assert.NotNil(t, c.Bhajans)
		assert.NotNil(t, c.Reports)
		assert.NotNil(t, c.Tags)
		assert.NotNil(t, c.Favorites)
		assert.NotNil(t, c.Preferences)
		assert.NotNil(t, c.Admin)
		// Construction performs no backend I/O.
		assert.Zero(t, f.backendFor("k1").TotalCalls())
	})
}

func TestNewClientRegistry_Validation(t *testing.T) {
	_, err := NewClientRegistry(ClientRegistryOptions{IdleTTL: time.Minute})
	require.Error(t, err)
	_, err = NewClientRegistry(ClientRegistryOptions{Factory: func(string) (*Client, error) { return nil, nil }})
	require.Error(t, err)
}

func TestClientRegistry_GetBootstrapsOnce(t *testing.T) {
	f := newClientFixture(t)
	p, err := f.accounts.CreateAccount(context.Background(), "admin@example.com", "hash", domainauth.RoleAdmin)
	require.NoError(t, err)
	f.backend("k1").(*mockauth.MockAuthBackend).GetPersistedSessionFunc = func(context.Context) (*domainauth.Session, error) {
		return mockauth.NewSession(p.ID, p.Email), nil
	}
	prefs := model.DefaultPreferences()
	prefs.ShowMeaning = !prefs.ShowMeaning
	require.NoError(t, f.prefs.Save(context.Background(), "k1", prefs))
	gauge := &gaugeRecorder{}

	reg, err := NewClientRegistry(ClientRegistryOptions{
		Factory: func(key string) (*Client, error) { return NewClient(key, f.deps) },
		IdleTTL: time.Minute,
		Metrics: gauge,
		Logger:  discardLogger(),
	})
	require.NoError(t, err)
	t.Cleanup(reg.CloseAll)

	c1, err := reg.Get(context.Background(), "k1")
	require.NoError(t, err)
	c2, err := reg.Get(context.Background(), "k1")
	require.NoError(t, err)

	assert.Same(t, c1, c2)
	assert.Equal(t, 1, reg.Len())
	assert.Equal(t, 1, gauge.value())
	assert.Equal(t, 1, f.backendFor("k1").Calls("GetPersistedSession"))
	assert.True(t, c1.Sessions.State().IsAuthenticated())
	assert.Equal(t, prefs.ShowMeaning, c1.Preferences.Preferences().ShowMeaning)
}

func TestClientRegistry_FactoryError(t *testing.T) {
	reg, err := NewClientRegistry(ClientRegistryOptions{
		Factory: func(string) (*Client, error) { return nil, errors.New("boom") },
		IdleTTL: time.Minute,
	})
	require.NoError(t, err)

	_, err = reg.Get(context.Background(), "k1")
	require.Error(t, err)
	assert.Zero(t, reg.Len())
}

func TestClientRegistry_SweepEvictsIdleClients(t *testing.T) {
	f := newClientFixture(t)
	var (
		mu  sync.Mutex
		now = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	)
	clock := func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		return now
	}
	advance := func(d time.Duration) {
		mu.Lock()
		defer mu.Unlock()
		now = now.Add(d)
	}
	gauge := &gaugeRecorder{}
	reg, err := NewClientRegistry(ClientRegistryOptions{
		Factory: func(key string) (*Client, error) { return NewClient(key, f.deps) },
		IdleTTL: 10 * time.Minute,
		Metrics: gauge,
		Logger:  discardLogger(),
		Now:     clock,
	})
	require.NoError(t, err)
	ctx := context.Background()

	_, err = reg.Get(ctx, "idle")
	require.NoError(t, err)
	_, err = reg.Get(ctx, "busy")
	require.NoError(t, err)
	advance(8 * time.Minute)
	_, err = reg.Get(ctx, "busy")
	require.NoError(t, err)
	advance(5 * time.Minute)

	assert.Equal(t, 1, reg.Sweep(ctx))
	assert.Equal(t, 1, reg.Len())
	assert.Equal(t, 1, gauge.value())
	for _, sub := range f.backendFor("idle").Subscriptions() {
		assert.True(t, sub.Closed())
	}
	for _, sub := range f.backendFor("busy").Subscriptions() {
		assert.False(t, sub.Closed())
	}

	reg.CloseAll()
	assert.Zero(t, reg.Len())
	assert.Zero(t, gauge.value())
}

func TestClientSweeper_Run(t *testing.T) {
	f := newClientFixture(t)
	var (
		mu  sync.Mutex
		now = time.Now()
	)
	reg, err := NewClientRegistry(ClientRegistryOptions{
		Factory: func(key string) (*Client, error) { return NewClient(key, f.deps) },
		IdleTTL: time.Minute,
		Logger:  discardLogger(),
		Now: func() time.Time {
			mu.Lock()
			defer mu.Unlock()
			return now
		},
	})
	require.NoError(t, err)
	_, err = reg.Get(context.Background(), "k1")
	require.NoError(t, err)
	mu.Lock()
	now = now.Add(time.Hour)
	mu.Unlock()

	sweeper, err := NewClientSweeper(ClientSweeperOptions{Registry: reg, Interval: 5 * time.Millisecond, Logger: discardLogger()})
	require.NoError(t, err)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- sweeper.Run(ctx) }()

	assert.Eventually(t, func() bool { return reg.Len() == 0 }, time.Second, 5*time.Millisecond)
	cancel()
	require.NoError(t, <-done)
}
