package service

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/target/bhajan-library/internal/domain/route"
	"github.com/target/bhajan-library/internal/ports"
)

// ClientDeps are the shared collaborators every Client is built from.
type ClientDeps struct {
	Auth        func(clientKey string) ports.AuthBackend // Required: binds the auth backend to a client
	Profiles    ports.ProfileRepository                  // Required
	Bhajans     ports.BhajanRepository                   // Required
	Tags        ports.TagRepository                      // Required
	Reports     ports.ReportRepository                   // Required
	Favorites   ports.FavoriteRepository                 // Required
	Stats       ports.StatsRepository                    // Required
	Preferences ports.PreferencesRepository              // Optional
	Cache       ports.CacheRepository                    // Optional
	PopularTTL  time.Duration
	Audit       *AuditRecorder
	Analytics   *AnalyticsService
	Routes      *route.Table
	Metrics     Metrics
	Logger      *slog.Logger
}

func (d ClientDeps) validate() error {
	switch {
	case d.Auth == nil:
		return errors.New("auth backend factory is required")
	case d.Profiles == nil, d.Bhajans == nil, d.Tags == nil, d.Reports == nil, d.Favorites == nil, d.Stats == nil:
		return errors.New("profile, bhajan, tag, report, favorite and stats repositories are required")
	}
	return nil
}

// Client is the state one browser owns: a Session Manager, the navigator bound to it and one
// set of domain stores attributed to its user.
type Client struct {
	Key         string
	Sessions    *SessionManager
	Navigator   *Navigator
	Bhajans     *BhajanStore
	Reports     *ReportStore
	Tags        *TagStore
	Favorites   *FavoritesStore
	Preferences *PreferencesStore
	Admin       *AdminStore
	Analytics   *AnalyticsService
}

// NewClient wires a Client for key. It performs no I/O.
func NewClient(key string, deps ClientDeps) (*Client, error) {
	if key == "" {
		return nil, errors.New("client key is required")
	}
	if err := deps.validate(); err != nil {
		return nil, err
	}
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("client_id", key)

	sessions, err := NewSessionManager(SessionManagerOptions{
		Backend:  deps.Auth(key),
		Profiles: deps.Profiles,
		Audit:    deps.Audit,
		Logger:   logger,
		Metrics:  deps.Metrics,
	})
	if err != nil {
		return nil, err
	}
	nav, err := NewNavigator(NavigatorOptions{
		Sessions: sessions,
		Routes:   deps.Routes,
		Metrics:  deps.Metrics,
		Logger:   logger,
	})
	if err != nil {
		return nil, err
	}

	storeDeps := StoreDeps{Actors: sessions, Audit: deps.Audit, Metrics: deps.Metrics, Logger: logger}
	c := &Client{Key: key, Sessions: sessions, Navigator: nav, Analytics: deps.Analytics}

	if c.Bhajans, err = NewBhajanStore(BhajanStoreOptions{Repo: deps.Bhajans, Deps: storeDeps}); err != nil {
		return nil, err
	}
	if c.Reports, err = NewReportStore(ReportStoreOptions{Repo: deps.Reports, Deps: storeDeps}); err != nil {
		return nil, err
	}
	if c.Tags, err = NewTagStore(TagStoreOptions{
		Repo:  deps.Tags,
		Cache: TagCacheOptions{Repo: deps.Cache, TTL: deps.PopularTTL},
		Deps:  storeDeps,
	}); err != nil {
		return nil, err
	}
	if c.Favorites, err = NewFavoritesStore(FavoritesStoreOptions{Repo: deps.Favorites, Deps: storeDeps}); err != nil {
		return nil, err
	}
	if c.Preferences, err = NewPreferencesStore(PreferencesStoreOptions{
		Repo: deps.Preferences,
		Key:  key,
		Deps: storeDeps,
	}); err != nil {
		return nil, err
	}
	if c.Admin, err = NewAdminStore(AdminStoreOptions{
		Repos: AdminRepos{Stats: deps.Stats, Bhajans: deps.Bhajans, Reports: deps.Reports, Profiles: deps.Profiles},
		Roles: sessions,
		Deps:  storeDeps,
	}); err != nil {
		return nil, err
	}
	return c, nil
}

// Close releases the client's auth-change subscription.
func (c *Client) Close() error {
	return c.Sessions.Close()
}

// ClientFactory builds the Client for a key.
type ClientFactory func(key string) (*Client, error)

// ClientRegistryOptions groups dependencies for ClientRegistry.
type ClientRegistryOptions struct {
	Factory ClientFactory // Required
	IdleTTL time.Duration // Clients idle longer than this are evicted by Sweep
	Logger  *slog.Logger
	Metrics ClientMetrics
	Now     func() time.Time
}

// ClientMetrics reports the number of live clients. *metrics.Metrics satisfies it.
type ClientMetrics interface {
	SetActiveClients(n int)
}

type clientEntry struct {
	client   *Client
	lastSeen time.Time
}

// ClientRegistry keeps one Client per browser in memory.
type ClientRegistry struct {
	factory ClientFactory
	idleTTL time.Duration
	logger  *slog.Logger
	metrics ClientMetrics
	now     func() time.Time

	mu      sync.Mutex
	clients map[string]*clientEntry
}

// NewClientRegistry constructs a ClientRegistry.
func NewClientRegistry(opts ClientRegistryOptions) (*ClientRegistry, error) {
	if opts.Factory == nil {
		return nil, errors.New("ClientFactory is required")
	}
	if opts.IdleTTL <= 0 {
		return nil, errors.New("idle TTL must be positive")
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	return &ClientRegistry{
		factory: opts.Factory,
		idleTTL: opts.IdleTTL,
		logger:  logger.With("component", "client_registry"),
		metrics: opts.Metrics,
		now:     now,
		clients: make(map[string]*clientEntry),
	}, nil
}

// Get returns the Client for key, creating and bootstrapping it on first use.
func (r *ClientRegistry) Get(ctx context.Context, key string) (*Client, error) {
	r.mu.Lock()
	if e, ok := r.clients[key]; ok {
		e.lastSeen = r.now()
		r.mu.Unlock()
		return e.client, nil
	}
	r.mu.Unlock()

	c, err := r.factory(key)
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	if e, ok := r.clients[key]; ok {
		// Another request created it first.
		e.lastSeen = r.now()
		r.mu.Unlock()
		_ = c.Close()
		return e.client, nil
	}
	r.clients[key] = &clientEntry{client: c, lastSeen: r.now()}
	n := len(r.clients)
	r.mu.Unlock()
	r.reportSize(n)

	if res := c.Sessions.InitializeAuth(ctx); !res.Success {
		r.logger.WarnContext(ctx, "client session bootstrap failed", "client_id", key, "error", res.Error)
	}
	if res := c.Preferences.Load(ctx); !res.Success {
		r.logger.WarnContext(ctx, "client preferences load failed", "client_id", key, "error", res.Error)
	}
	return c, nil
}

// Len returns the number of live clients.
func (r *ClientRegistry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.clients)
}

// Sweep evicts clients idle longer than the TTL and closes them. It returns the eviction count.
func (r *ClientRegistry) Sweep(ctx context.Context) int {
	cutoff := r.now().Add(-r.idleTTL)

	r.mu.Lock()
	var evicted []*Client
	for key, e := range r.clients {
		if e.lastSeen.Before(cutoff) {
			evicted = append(evicted, e.client)
			delete(r.clients, key)
		}
	}
	n := len(r.clients)
	r.mu.Unlock()

	for _, c := range evicted {
		if err := c.Close(); err != nil {
			r.logger.WarnContext(ctx, "close evicted client", "client_id", c.Key, "error", err)
		}
	}
	if len(evicted) > 0 {
		r.logger.InfoContext(ctx, "evicted idle clients", "count", len(evicted), "remaining", n)
		r.reportSize(n)
	}
	return len(evicted)
}

// CloseAll closes every client. Used on shutdown.
func (r *ClientRegistry) CloseAll() {
	r.mu.Lock()
	clients := r.clients
	r.clients = make(map[string]*clientEntry)
	r.mu.Unlock()

	for _, e := range clients {
		if err := e.client.Close(); err != nil {
			r.logger.Warn("close client", "client_id", e.client.Key, "error", err)
		}
	}
	r.reportSize(0)
}

func (r *ClientRegistry) reportSize(n int) {
	if r.metrics != nil {
		r.metrics.SetActiveClients(n)
	}
}

// ClientSweeperOptions groups dependencies for ClientSweeper.
type ClientSweeperOptions struct {
	Registry *ClientRegistry // Required
	Interval time.Duration
	Logger   *slog.Logger
}

// ClientSweeper evicts idle clients on an interval.
type ClientSweeper struct {
	registry *ClientRegistry
	task     periodicTask
}

// NewClientSweeper constructs a ClientSweeper.
func NewClientSweeper(opts ClientSweeperOptions) (*ClientSweeper, error) {
	if opts.Registry == nil {
		return nil, errors.New("ClientRegistry is required")
	}
	interval := opts.Interval
	if interval <= 0 {
		interval = time.Minute
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	s := &ClientSweeper{registry: opts.Registry}
	s.task = periodicTask{
		name:     "client sweeper",
		interval: interval,
		logger:   logger.With("component", "client_sweeper"),
		tick: func(ctx context.Context) error {
			opts.Registry.Sweep(ctx)
			return nil
		},
	}
	return s, nil
}

// Run sweeps until ctx is canceled.
func (s *ClientSweeper) Run(ctx context.Context) error {
	return s.task.run(ctx)
}
