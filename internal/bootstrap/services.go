package bootstrap

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"

	"github.com/target/bhajan-library/config"
	"github.com/target/bhajan-library/internal/adapters/backendauth"
	redisadapter "github.com/target/bhajan-library/internal/adapters/redis"
	"github.com/target/bhajan-library/internal/data"
	"github.com/target/bhajan-library/internal/observability/metrics"
	"github.com/target/bhajan-library/internal/observability/statsd"
	"github.com/target/bhajan-library/internal/ports"
	"github.com/target/bhajan-library/internal/service"
)

// ServiceContainer holds all application services.
type ServiceContainer struct {
	Clients       *service.ClientRegistry
	Auth          *backendauth.Service
	Analytics     *service.AnalyticsService
	Audit         *service.AuditRecorder
	Lock          ports.CacheRepository
	Observability ObservabilityContainer
}

// ObservabilityContainer groups shared observability dependencies.
type ObservabilityContainer struct {
	Metrics       *metrics.Metrics
	Registry      *prometheus.Registry
	MetricsSink   *statsd.Client
	MetricsConfig config.ObservabilityMetricsConfig
}

// ServiceDeps groups dependencies for service initialization.
type ServiceDeps struct {
	Config      *config.AppConfig
	DB          *sql.DB
	RedisClient redis.UniversalClient
	Logger      *slog.Logger
}

// serviceRepositories groups data adapters backing service ports.
// Redis-backed ports stay nil when no Redis client is configured.
type serviceRepositories struct {
	Users       *data.UserRepo
	Bhajans     *data.BhajanRepo
	Tags        *data.TagRepo
	Reports     *data.ReportRepo
	Favorites   *data.FavoriteRepo
	Stats       *data.StatsRepo
	Audit       *data.AuditRepo
	Cache       ports.CacheRepository
	Preferences ports.PreferencesRepository
	AuditQueue  ports.AuditQueue
}

// buildObservability configures the Prometheus registry and the optional StatsD sink.
func buildObservability(logger *slog.Logger, cfg config.ObservabilityConfig) ObservabilityContainer {
	obsLogger := logger
	if obsLogger == nil {
		obsLogger = slog.Default()
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	var (
		metricsSink *statsd.Client
		sink        statsd.Sink
	)
	if cfg.Metrics.IsEnabled() {
		client, err := statsd.NewClient(statsd.Config{
			Enabled: true,
			Address: cfg.Metrics.StatsdAddress,
			Prefix:  cfg.Metrics.StatsdPrefix,
			Logger:  obsLogger,
		})
		if err != nil {
			obsLogger.Error("failed to initialise statsd client", "error", err)
		} else {
			metricsSink = client
			sink = client
		}
	}

	return ObservabilityContainer{
		Metrics:       metrics.New(registry, sink),
		Registry:      registry,
		MetricsSink:   metricsSink,
		MetricsConfig: cfg.Metrics,
	}
}

// buildRepositories builds repositories backing service ports; no business rules here.
func buildRepositories(db *sql.DB, rdb redis.UniversalClient, cfg *config.AppConfig, logger *slog.Logger) *serviceRepositories {
	repos := &serviceRepositories{
		Users:     data.NewUserRepo(db),
		Bhajans:   data.NewBhajanRepo(db),
		Tags:      data.NewTagRepo(db),
		Reports:   data.NewReportRepo(db),
		Favorites: data.NewFavoriteRepo(db),
		Stats:     data.NewStatsRepo(db),
		Audit:     data.NewAuditRepo(db),
	}
	if rdb != nil {
		repos.Cache = data.NewRedisCacheRepo(rdb)
		repos.Preferences = redisadapter.NewPreferencesStore(rdb)
		repos.AuditQueue = redisadapter.NewAuditQueue(rdb, cfg.Audit.RetryQueue, logger)
	}
	return repos
}

func newAuditRecorder(repos *serviceRepositories, cfg config.AuditConfig, obs ObservabilityContainer, logger *slog.Logger) (*service.AuditRecorder, error) {
	return service.NewAuditRecorder(service.AuditRecorderOptions{
		Repo:  repos.Audit,
		Queue: repos.AuditQueue,
		Config: service.AuditRecorderConfig{
			MaxAttempts: cfg.MaxAttempts,
			FlushBatch:  cfg.FlushBatch,
		},
		Logger:  logger,
		Metrics: obs.Metrics,
	})
}

func newAnalyticsService(repos *serviceRepositories, cfg config.CacheConfig, logger *slog.Logger) (*service.AnalyticsService, error) {
	return service.NewAnalyticsService(service.AnalyticsServiceOptions{
		Repo:   repos.Stats,
		Cache:  service.SiteStatsCacheOptions{Repo: repos.Cache, TTL: cfg.SiteStatsTTL},
		Logger: logger,
	})
}

// DomainServicesOptions groups dependencies for wiring the per-browser clients.
type DomainServicesOptions struct {
	Repos         *serviceRepositories
	Auth          *backendauth.Service
	Observability ObservabilityContainer
	Config        *config.AppConfig
	Logger        *slog.Logger
}

// buildDomainServices wires the audit recorder, analytics and the client registry.
func buildDomainServices(opts *DomainServicesOptions) (ServiceContainer, error) {
	if opts == nil || opts.Repos == nil || opts.Auth == nil {
		return ServiceContainer{}, errors.New("repositories and auth service are required")
	}
	svcLogger := opts.Logger
	if svcLogger == nil {
		svcLogger = slog.Default()
	}
	appCfg := opts.Config
	if appCfg == nil {
		appCfg = &config.AppConfig{}
	}

	recorder, err := newAuditRecorder(opts.Repos, appCfg.Audit, opts.Observability, svcLogger)
	if err != nil {
		return ServiceContainer{}, fmt.Errorf("audit recorder: %w", err)
	}
	analytics, err := newAnalyticsService(opts.Repos, appCfg.Cache, svcLogger)
	if err != nil {
		return ServiceContainer{}, fmt.Errorf("analytics: %w", err)
	}

	deps := service.ClientDeps{
		Auth:        opts.Auth.For,
		Profiles:    opts.Repos.Users,
		Bhajans:     opts.Repos.Bhajans,
		Tags:        opts.Repos.Tags,
		Reports:     opts.Repos.Reports,
		Favorites:   opts.Repos.Favorites,
		Stats:       opts.Repos.Stats,
		Preferences: opts.Repos.Preferences,
		Cache:       opts.Repos.Cache,
		PopularTTL:  appCfg.Cache.PopularTagsTTL,
		Audit:       recorder,
		Analytics:   analytics,
		Metrics:     opts.Observability.Metrics,
		Logger:      svcLogger,
	}
	registry, err := service.NewClientRegistry(service.ClientRegistryOptions{
		Factory: func(key string) (*service.Client, error) { return service.NewClient(key, deps) },
		IdleTTL: appCfg.Clients.IdleTTL,
		Logger:  svcLogger,
		Metrics: opts.Observability.Metrics,
	})
	if err != nil {
		return ServiceContainer{}, fmt.Errorf("client registry: %w", err)
	}

	return ServiceContainer{
		Clients:       registry,
		Auth:          opts.Auth,
		Analytics:     analytics,
		Audit:         recorder,
		Lock:          opts.Repos.Cache,
		Observability: opts.Observability,
	}, nil
}

// NewServices builds repositories, the auth backend and every domain service.
func NewServices(ctx context.Context, deps *ServiceDeps) (ServiceContainer, error) {
	if deps == nil || deps.Config == nil {
		return ServiceContainer{}, errors.New("service deps with config are required")
	}
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}

	observability := buildObservability(logger, deps.Config.Observability)
	repos := buildRepositories(deps.DB, deps.RedisClient, deps.Config, logger)

	auth, err := BuildAuthService(ctx, AuthConfig{
		Auth:        deps.Config.Auth,
		Accounts:    repos.Users,
		Profiles:    repos.Users,
		RedisClient: deps.RedisClient,
		Logger:      logger,
	})
	if err != nil {
		return ServiceContainer{}, err
	}

	return buildDomainServices(&DomainServicesOptions{
		Repos:         repos,
		Auth:          auth,
		Observability: observability,
		Config:        deps.Config,
		Logger:        logger,
	})
}

// ServiceOrchestrationConfig contains configuration for service orchestration.
type ServiceOrchestrationConfig struct {
	Config      *config.AppConfig
	Services    ServiceContainer
	DB          *sql.DB
	RedisClient redis.UniversalClient
	Logger      *slog.Logger
}

const (
	// shutdownWaitTimeout is the maximum time to wait for services to stop gracefully.
	shutdownWaitTimeout = 15 * time.Second
)

// serviceStartupDeps groups dependencies for service startup.
type serviceStartupDeps struct {
	ctx             context.Context
	cfg             *ServiceOrchestrationConfig
	logger          *slog.Logger
	enabledServices map[config.ServiceMode]bool
	errCh           chan error
}

// backgroundService describes a startable background component.
type backgroundService struct {
	mode  config.ServiceMode
	name  string
	start func(context.Context) error
}

// backgroundServiceHandle tracks a running background service.
type backgroundServiceHandle struct {
	mode config.ServiceMode
	name string
	done <-chan struct{}
}

// startHTTPServerIfEnabled starts the HTTP server if enabled.
func startHTTPServerIfEnabled(deps *serviceStartupDeps) *http.Server {
	if deps == nil || deps.cfg == nil || !deps.enabledServices[config.ServiceModeHTTP] {
		return nil
	}
	return StartHTTPServer(&HTTPServerConfig{
		Config:      deps.cfg.Config,
		Services:    deps.cfg.Services,
		DB:          deps.cfg.DB,
		RedisClient: deps.cfg.RedisClient,
		Logger:      deps.logger,
	})
}

func launchBackground(ctx context.Context, deps *serviceStartupDeps, descriptor backgroundService) <-chan struct{} {
	if deps == nil || !deps.enabledServices[descriptor.mode] {
		return nil
	}
	logger := deps.logger
	if logger == nil {
		logger = slog.Default()
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		if err := descriptor.start(ctx); err != nil {
			errMsg := fmt.Errorf("%s failed: %w", descriptor.name, err)
			select {
			case deps.errCh <- errMsg:
			case <-ctx.Done():
			default:
				logger.WarnContext(ctx, "dropping background service error", "service", descriptor.name, "error", errMsg)
			}
		}
	}()

	logger.InfoContext(ctx, "background service started", "service", descriptor.name, "mode", descriptor.mode)
	return done
}

func startBackgroundServices(deps *serviceStartupDeps, services []backgroundService) []backgroundServiceHandle {
	if deps == nil {
		return nil
	}
	handles := make([]backgroundServiceHandle, 0, len(services))

	for _, svc := range services {
		done := launchBackground(deps.ctx, deps, svc)
		if done == nil {
			continue
		}

		handles = append(handles, backgroundServiceHandle{
			mode: svc.mode,
			name: svc.name,
			done: done,
		})
	}

	return handles
}

func newAuditFlusherBackgroundService(deps *serviceStartupDeps) backgroundService {
	return backgroundService{
		mode: config.ServiceModeAuditFlusher,
		name: "audit flusher",
		start: func(ctx context.Context) error {
			if deps == nil || deps.cfg == nil || deps.cfg.Services.Audit == nil {
				return errors.New("audit recorder not configured")
			}
			var interval time.Duration
			if deps.cfg.Config != nil {
				interval = deps.cfg.Config.Audit.FlushInterval
			}
			flusher, err := service.NewAuditFlusher(service.AuditFlusherOptions{
				Recorder: deps.cfg.Services.Audit,
				Lock:     deps.cfg.Services.Lock,
				Interval: interval,
				Logger:   deps.logger,
			})
			if err != nil {
				return err
			}
			return flusher.Run(ctx)
		},
	}
}

func newClientSweeperBackgroundService(deps *serviceStartupDeps) backgroundService {
	return backgroundService{
		mode: config.ServiceModeClientSweeper,
		name: "client sweeper",
		start: func(ctx context.Context) error {
			if deps == nil || deps.cfg == nil || deps.cfg.Services.Clients == nil {
				return errors.New("client registry not configured")
			}
			var interval time.Duration
			if deps.cfg.Config != nil {
				interval = deps.cfg.Config.Clients.SweepInterval
			}
			sweeper, err := service.NewClientSweeper(service.ClientSweeperOptions{
				Registry: deps.cfg.Services.Clients,
				Interval: interval,
				Logger:   deps.logger,
			})
			if err != nil {
				return err
			}
			return sweeper.Run(ctx)
		},
	}
}

func buildBackgroundServices(deps *serviceStartupDeps) []backgroundService {
	if deps == nil {
		return nil
	}
	return []backgroundService{
		newAuditFlusherBackgroundService(deps),
		newClientSweeperBackgroundService(deps),
	}
}

// ServiceStartupResult holds the results of starting all services.
type ServiceStartupResult struct {
	HTTPServer *http.Server
	Background []backgroundServiceHandle
}

// startServices starts all enabled services and returns their completion channels.
func startServices(deps *serviceStartupDeps) ServiceStartupResult {
	return ServiceStartupResult{
		HTTPServer: startHTTPServerIfEnabled(deps),
		Background: startBackgroundServices(deps, buildBackgroundServices(deps)),
	}
}

// RunServicesWithShutdown starts all enabled services and manages their lifecycle.
// This function blocks until a shutdown signal is received or a service fails.
func RunServicesWithShutdown(cfg *ServiceOrchestrationConfig) error {
	if cfg == nil {
		return errors.New("service orchestration config is required")
	}
	ctx := context.Background()
	serviceCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	if cfg.Config == nil {
		return errors.New("service orchestration config missing AppConfig")
	}

	// Determine which services are enabled
	enabledServices, err := cfg.Config.GetEnabledServices()
	if err != nil {
		return fmt.Errorf("determine enabled services: %w", err)
	}
	errCh := make(chan error, errorChannelBufferSize(enabledServices))

	// Start all enabled services
	result := startServices(&serviceStartupDeps{
		ctx:             serviceCtx,
		cfg:             cfg,
		logger:          logger,
		enabledServices: enabledServices,
		errCh:           errCh,
	})

	// Wait for shutdown signal or error
	return waitForShutdown(shutdownConfig{
		ctx:         serviceCtx,
		cancel:      cancel,
		errCh:       errCh,
		httpServer:  result.HTTPServer,
		clients:     cfg.Services.Clients,
		logger:      logger,
		backgrounds: result.Background,
	})
}

func errorChannelCapacity(enabled map[config.ServiceMode]bool) int {
	count := 0
	for _, mode := range config.ValidServiceModes() {
		if enabled[mode] {
			count++
		}
	}
	return count
}

func errorChannelBufferSize(enabled map[config.ServiceMode]bool) int {
	size := errorChannelCapacity(enabled) + 1
	if size < 1 {
		return 1
	}
	return size
}

// shutdownConfig contains dependencies for graceful shutdown.
type shutdownConfig struct {
	ctx         context.Context
	cancel      context.CancelFunc
	errCh       <-chan error
	httpServer  *http.Server
	clients     *service.ClientRegistry
	logger      *slog.Logger
	backgrounds []backgroundServiceHandle
}

// waitForShutdown waits for shutdown signal or service error.
func waitForShutdown(cfg shutdownConfig) error {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	select {
	case <-quit:
		cfg.logger.Info("shutting down services...")
		cfg.cancel() // Cancel service context before waiting
		return gracefulStop(cfg)
	case err := <-cfg.errCh:
		cfg.logger.Error("service error", "error", err)
		cfg.cancel() // Cancel service context before waiting
		if stopErr := gracefulStop(cfg); stopErr != nil {
			cfg.logger.Error("graceful stop failed", "error", stopErr)
		}
		return err
	}
}

// gracefulStop attempts to gracefully stop all services.
func gracefulStop(cfg shutdownConfig) error {
	// Gracefully stop HTTP server if running
	if cfg.httpServer != nil {
		// Detached from the cancelled service context so in-flight requests can drain.
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(cfg.ctx), shutdownWaitTimeout)
		defer cancel()

		if err := ShutdownHTTPServer(ShutdownConfig{
			Context: shutdownCtx,
			Server:  cfg.httpServer,
			Clients: cfg.clients,
			Logger:  cfg.logger,
		}); err != nil {
			return err
		}
	} else if cfg.clients != nil {
		cfg.clients.CloseAll()
	}

	// Wait for background services to finish
	for _, svc := range cfg.backgrounds {
		waitForService(svc.done, svc.name, cfg.logger)
	}

	return nil
}

// waitForService waits for a service to finish with timeout.
func waitForService(done <-chan struct{}, name string, logger *slog.Logger) {
	if done == nil {
		return
	}
	select {
	case <-done:
		logger.Info(name + " stopped")
	case <-time.After(shutdownWaitTimeout):
		logger.Warn("timeout waiting for " + name + " to stop")
	}
}
