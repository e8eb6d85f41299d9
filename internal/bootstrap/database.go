package bootstrap

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/target/bhajan-library/config"
	"github.com/target/bhajan-library/internal/data"
)

// Pool limits for the library's Postgres handle. The catalogue is read-heavy and small, so a
// modest pool is enough for the API and the admin CLI alike.
const (
	pgMaxOpenConns    = 25
	pgMaxIdleConns    = 5
	pgConnMaxLifetime = 5 * time.Minute
	connectTimeout    = 5 * time.Second
)

// Redis deployment shapes selected by RedisConfig.
const (
	redisDirect   = "direct"
	redisSentinel = "sentinel"
	redisCluster  = "cluster"
)

// DatabaseConfig contains configuration for database connections.
type DatabaseConfig struct {
	DBConfig    config.DBConfig
	RedisConfig config.RedisConfig
	Logger      *slog.Logger
}

func (c DatabaseConfig) logger() *slog.Logger {
	if c.Logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return c.Logger.With("component", "storage")
}

// postgresDSN renders cfg as a postgres:// URL. Credentials are escaped by url.URL.
func postgresDSN(cfg config.DBConfig) string {
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(cfg.User, cfg.Password),
		Host:     net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port)),
		Path:     "/" + cfg.Name,
		RawQuery: url.Values{"sslmode": {cfg.SSLMode}}.Encode(),
	}
	return u.String()
}

// ConnectDB opens the bhajan catalogue database and verifies it answers.
func ConnectDB(cfg DatabaseConfig) (*sql.DB, error) {
	db, err := sql.Open("pgx", postgresDSN(cfg.DBConfig))
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	db.SetMaxOpenConns(pgMaxOpenConns)
	db.SetMaxIdleConns(pgMaxIdleConns)
	db.SetConnMaxLifetime(pgConnMaxLifetime)

	ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		return nil, closeAfter(fmt.Errorf("ping postgres %s: %w", cfg.DBConfig.Name, err), db.Close)
	}

	cfg.logger().Info("postgres connected",
		"host", cfg.DBConfig.Host,
		"port", cfg.DBConfig.Port,
		"database", cfg.DBConfig.Name,
		"sslmode", cfg.DBConfig.SSLMode,
	)
	return db, nil
}

// ConnectRedis opens the cache and session store.
//
//nolint:ireturn // the concrete client depends on the configured deployment shape.
func ConnectRedis(cfg DatabaseConfig) (redis.UniversalClient, error) {
	opts, shape, err := redisOptions(cfg.RedisConfig)
	if err != nil {
		return nil, err
	}

	var client redis.UniversalClient
	switch shape {
	case redisCluster:
		client = redis.NewClusterClient(opts.Cluster())
	case redisSentinel:
		client = redis.NewFailoverClient(opts.Failover())
	default:
		client = redis.NewClient(opts.Simple())
	}

	ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, closeAfter(fmt.Errorf("ping redis (%s): %w", shape, err), client.Close)
	}

	// Addrs never carry credentials; URLs are reduced to host:port by redisOptions.
	cfg.logger().Info("redis connected", "mode", shape, "addrs", strings.Join(opts.Addrs, ","), "db", opts.DB)
	return client, nil
}

// redisOptions maps cfg onto go-redis options and reports which client to build. Cluster wins
// over sentinel, and both fall back to URI when their node list is empty.
func redisOptions(cfg config.RedisConfig) (*redis.UniversalOptions, string, error) {
	opts := &redis.UniversalOptions{Password: cfg.Password, DB: cfg.DB}

	switch {
	case cfg.UseCluster:
		opts.Addrs = trimmedAddrs(cfg.ClusterNodes)
		if len(opts.Addrs) == 0 {
			if err := applyRedisURI(opts, cfg.URI); err != nil {
				return nil, "", err
			}
		}
		if len(opts.Addrs) == 0 {
			return nil, "", errors.New("redis cluster needs CLUSTER_NODES or URI")
		}
		// Cluster mode has a single keyspace.
		opts.DB = 0
		return opts, redisCluster, nil

	case cfg.UseSentinel:
		opts.Addrs = trimmedAddrs(cfg.SentinelNodes)
		if len(opts.Addrs) == 0 {
			return nil, "", errors.New("redis sentinel needs SENTINEL_NODES")
		}
		if strings.TrimSpace(cfg.SentinelMasterName) == "" {
			return nil, "", errors.New("redis sentinel needs SENTINEL_MASTER_NAME")
		}
		opts.MasterName = cfg.SentinelMasterName
		opts.SentinelPassword = cfg.SentinelPassword
		return opts, redisSentinel, nil

	default:
		if err := applyRedisURI(opts, cfg.URI); err != nil {
			return nil, "", err
		}
		if len(opts.Addrs) == 0 {
			return nil, "", errors.New("redis needs a URI")
		}
		return opts, redisDirect, nil
	}
}

// applyRedisURI accepts either host:port or a redis:// / rediss:// URL. Values in the URL
// override the separately configured password and db.
func applyRedisURI(opts *redis.UniversalOptions, uri string) error {
	uri = strings.TrimSpace(uri)
	if uri == "" {
		return nil
	}
	if !strings.HasPrefix(uri, "redis://") && !strings.HasPrefix(uri, "rediss://") {
		opts.Addrs = []string{uri}
		return nil
	}
	parsed, err := redis.ParseURL(uri)
	if err != nil {
		return fmt.Errorf("parse redis uri: %w", err)
	}
	opts.Addrs = []string{parsed.Addr}
	opts.Username = parsed.Username
	if parsed.Password != "" {
		opts.Password = parsed.Password
	}
	if parsed.DB != 0 {
		opts.DB = parsed.DB
	}
	opts.TLSConfig = parsed.TLSConfig
	return nil
}

func trimmedAddrs(raw []string) []string {
	out := make([]string, 0, len(raw))
	for _, a := range raw {
		if a = strings.TrimSpace(a); a != "" {
			out = append(out, a)
		}
	}
	return out
}

// closeAfter joins a close failure onto err.
func closeAfter(err error, closeFn func() error) error {
	if cerr := closeFn(); cerr != nil {
		return errors.Join(err, fmt.Errorf("close: %w", cerr))
	}
	return err
}

// RunMigrations applies the catalogue schema migrations.
func RunMigrations(ctx context.Context, db *sql.DB, logger *slog.Logger) error {
	if err := data.RunMigrations(ctx, db); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}
	if logger != nil {
		logger.InfoContext(ctx, "schema migrations applied")
	}
	return nil
}
