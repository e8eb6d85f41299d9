package config

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ServiceMode represents the available service modes.
type ServiceMode string

const (
	// ServiceModeHTTP runs the HTTP server.
	ServiceModeHTTP ServiceMode = "http"
	// ServiceModeAuditFlusher periodically replays queued audit entries.
	ServiceModeAuditFlusher ServiceMode = "audit-flusher"
	// ServiceModeClientSweeper evicts idle per-browser clients.
	ServiceModeClientSweeper ServiceMode = "client-sweeper"
)

// ValidServiceModes returns all valid service mode names.
func ValidServiceModes() []ServiceMode {
	return []ServiceMode{
		ServiceModeHTTP,
		ServiceModeAuditFlusher,
		ServiceModeClientSweeper,
	}
}

// ParseServices parses a comma-delimited string of service names and returns the enabled services.
// It validates that all service names are valid and returns an error if any are invalid.
func ParseServices(servicesStr string) (map[ServiceMode]bool, error) {
	services := make(map[ServiceMode]bool)

	if servicesStr == "" {
		return services, errors.New("at least one service must be specified")
	}

	for _, part := range strings.Split(servicesStr, ",") {
		serviceName := strings.TrimSpace(part)
		if serviceName == "" {
			continue
		}

		mode := ServiceMode(serviceName)
		switch mode {
		case ServiceModeHTTP, ServiceModeAuditFlusher, ServiceModeClientSweeper:
			services[mode] = true
		default:
			return nil, fmt.Errorf(
				"invalid service name: %q (valid options: http, audit-flusher, client-sweeper)",
				serviceName,
			)
		}
	}

	if len(services) == 0 {
		return nil, errors.New("at least one valid service must be specified")
	}

	return services, nil
}

// ClientConfig controls the per-browser client registry.
type ClientConfig struct {
	// IdleTTL is how long an unused client stays in memory.
	IdleTTL time.Duration `env:"IDLE_TTL" envDefault:"30m"`

	// SweepInterval is how often idle clients are evicted.
	SweepInterval time.Duration `env:"SWEEP_INTERVAL" envDefault:"1m"`

	// CookieName names the cookie carrying the client key.
	CookieName string `env:"COOKIE_NAME" envDefault:"client_id"`
}

// Sanitize applies guardrails to client registry values.
func (c *ClientConfig) Sanitize() {
	if c.IdleTTL < time.Minute {
		c.IdleTTL = time.Minute
	}
	if c.SweepInterval < time.Second {
		c.SweepInterval = time.Second
	}
	if strings.TrimSpace(c.CookieName) == "" {
		c.CookieName = "client_id"
	}
}

// AuditConfig controls the audit recorder retry policy.
type AuditConfig struct {
	// RetryQueue is the Redis list holding audit entries that failed to persist.
	RetryQueue string `env:"RETRY_QUEUE" envDefault:"audit:retry"`

	// MaxAttempts bounds how often a queued entry is replayed before it is dropped.
	MaxAttempts int `env:"MAX_ATTEMPTS" envDefault:"5"`

	// FlushInterval is the audit flusher tick interval.
	FlushInterval time.Duration `env:"FLUSH_INTERVAL" envDefault:"30s"`

	// FlushBatch is the maximum number of entries replayed per tick.
	FlushBatch int `env:"FLUSH_BATCH" envDefault:"100"`
}

// Sanitize applies guardrails to audit configuration values.
func (a *AuditConfig) Sanitize() {
	if a.MaxAttempts < 1 {
		a.MaxAttempts = 1
	}
	if a.FlushInterval < time.Second {
		a.FlushInterval = time.Second
	}
	if a.FlushBatch < 1 {
		a.FlushBatch = 1
	}
	if strings.TrimSpace(a.RetryQueue) == "" {
		a.RetryQueue = "audit:retry"
	}
}
