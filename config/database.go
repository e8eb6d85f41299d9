package config

import "time"

// DBConfig contains PostgreSQL database configuration.
type DBConfig struct {
	Host     string `env:"HOST"                    envDefault:"localhost"`
	Port     int    `env:"PORT"                    envDefault:"5432"`
	User     string `env:"USER"                    envDefault:"bhajan"`
	Password string `env:"PASSWORD"                envDefault:"bhajan"`
	Name     string `env:"NAME"                    envDefault:"bhajan"`
	SSLMode  string `env:"SSL_MODE"                envDefault:"disable"` // Use 'disable' for local dev, 'require' for production
	// RunMigrationsOnStart controls whether the application automatically applies migrations during startup.
	RunMigrationsOnStart bool `env:"RUN_MIGRATIONS_ON_START" envDefault:"true"`
}

// RedisConfig contains Redis configuration.
type RedisConfig struct {
	URI                string   `env:"URI"                  envDefault:"localhost:6379"`
	Password           string   `env:"PASSWORD"             envDefault:""`
	DB                 int      `env:"DB"                   envDefault:"0"`
	SentinelNodes      []string `env:"SENTINEL_NODES"       envDefault:"localhost:26379"`
	SentinelMasterName string   `env:"SENTINEL_MASTER_NAME" envDefault:"mymaster"`
	SentinelPassword   string   `env:"SENTINEL_PASSWORD"    envDefault:""`
	UseSentinel        bool     `env:"USE_SENTINEL"         envDefault:"false"`
	ClusterNodes       []string `env:"CLUSTER_NODES"        envDefault:""`
	UseCluster         bool     `env:"USE_CLUSTER"          envDefault:"false"`
}

// CacheConfig contains TTLs for values cached in Redis.
type CacheConfig struct {
	// PopularTagsTTL is how long the popular tag ranking is cached.
	PopularTagsTTL time.Duration `env:"POPULAR_TAGS_TTL" envDefault:"5m"`

	// SiteStatsTTL is how long site statistics are cached.
	SiteStatsTTL time.Duration `env:"SITE_STATS_TTL" envDefault:"1m"`
}

// Sanitize applies guardrails to cache TTLs.
func (c *CacheConfig) Sanitize() {
	if c.PopularTagsTTL < 0 {
		c.PopularTagsTTL = 0
	}
	if c.SiteStatsTTL < 0 {
		c.SiteStatsTTL = 0
	}
}
