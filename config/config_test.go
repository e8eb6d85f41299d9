package config

import (
	"reflect"
	"testing"
	"time"

	env "github.com/caarlos0/env/v11"
)

func TestParseServices(t *testing.T) {
	tests := []struct {
		name        string
		input       string
		expected    map[ServiceMode]bool
		expectError bool
	}{
		{
			name:  "single service - http",
			input: "http",
			expected: map[ServiceMode]bool{
				ServiceModeHTTP: true,
			},
		},
		{
			name:  "single service - audit-flusher",
			input: "audit-flusher",
			expected: map[ServiceMode]bool{
				ServiceModeAuditFlusher: true,
			},
		},
		{
			name:  "all services with spaces",
			input: " http , audit-flusher , client-sweeper ",
			expected: map[ServiceMode]bool{
				ServiceModeHTTP:          true,
				ServiceModeAuditFlusher:  true,
				ServiceModeClientSweeper: true,
			},
		},
		{
			name:  "duplicate services",
			input: "http,http,client-sweeper",
			expected: map[ServiceMode]bool{
				ServiceModeHTTP:          true,
				ServiceModeClientSweeper: true,
			},
		},
		{
			name:        "empty string",
			input:       "",
			expectError: true,
		},
		{
			name:        "only spaces and commas",
			input:       " , , ",
			expectError: true,
		},
		{
			name:        "invalid service name",
			input:       "http,rules-engine",
			expectError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := ParseServices(tt.input)

			if tt.expectError {
				if err == nil {
					t.Errorf("expected error but got none")
				}
				return
			}

			if err != nil {
				t.Errorf("unexpected error: %v", err)
				return
			}

			if !reflect.DeepEqual(result, tt.expected) {
				t.Errorf("expected %v, got %v", tt.expected, result)
			}
		})
	}
}

func TestConfig_ServiceEnabledMethods(t *testing.T) {
	tests := []struct {
		name            string
		services        string
		expectedHTTP    bool
		expectedFlusher bool
		expectedSweeper bool
	}{
		{
			name:         "http only",
			services:     "http",
			expectedHTTP: true,
		},
		{
			name:            "http and flusher",
			services:        "http,audit-flusher",
			expectedHTTP:    true,
			expectedFlusher: true,
		},
		{
			name:            "sweeper only",
			services:        "client-sweeper",
			expectedSweeper: true,
		},
		{
			name:     "invalid configuration disables everything",
			services: "invalid-service",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := AppConfig{Services: tt.services}

			if cfg.IsHTTPServerEnabled() != tt.expectedHTTP {
				t.Errorf("IsHTTPServerEnabled(): expected %v, got %v", tt.expectedHTTP, cfg.IsHTTPServerEnabled())
			}
			if cfg.IsAuditFlusherEnabled() != tt.expectedFlusher {
				t.Errorf("IsAuditFlusherEnabled(): expected %v, got %v", tt.expectedFlusher, cfg.IsAuditFlusherEnabled())
			}
			if cfg.IsClientSweeperEnabled() != tt.expectedSweeper {
				t.Errorf("IsClientSweeperEnabled(): expected %v, got %v", tt.expectedSweeper, cfg.IsClientSweeperEnabled())
			}
		})
	}
}

func TestAppConfig_ParseAuthEnv(t *testing.T) {
	t.Setenv("AUTH_MODE", "password")
	t.Setenv("AUTH_JWT_SECRET", "s3cret-s3cret-s3cret")
	t.Setenv("AUTH_MAIL_WEBHOOK_URL", " https://mail.example.com/hook ")
	t.Setenv("AUTH_ACCESS_TTL", "10m")
	t.Setenv("AUTH_SESSION_TTL", "24h")
	t.Setenv("AUTH_ADMIN_EMAILS", "Root@Example.com, ops@example.com")
	t.Setenv("AUTH_EDITOR_EMAILS", "editor@example.com")
	t.Setenv("AUTH_DEV_EMAIL", "dev@example.com")
	t.Setenv("AUTH_DEV_ROLE", "editor")

	var cfg AppConfig
	if err := env.Parse(&cfg); err != nil {
		t.Fatalf("parse config: %v", err)
	}
	cfg.Sanitize()

	expected := AuthConfig{
		Mode:           AuthModePassword,
		JWTSecret:      "s3cret-s3cret-s3cret",
		JWTIssuer:      "bhajan-library",
		AccessTTL:      10 * time.Minute,
		SessionTTL:     24 * time.Hour,
		AdminEmails:    []string{"root@example.com", "ops@example.com"},
		EditorEmails:   []string{"editor@example.com"},
		ResetURL:       "http://localhost:8080/reset-password",
		ResetTTL:       time.Hour,
		MailWebhookURL: "https://mail.example.com/hook",
		MailFrom:       "no-reply@bhajan-library.local",
		DevAuth: DevAuthConfig{
			Email:    "dev@example.com",
			Password: "devpassword",
			Role:     "editor",
		},
	}

	if !reflect.DeepEqual(cfg.Auth, expected) {
		t.Fatalf("unexpected auth configuration:\nexpected: %#v\ngot:      %#v", expected, cfg.Auth)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("unexpected validation error: %v", err)
	}
}

func TestAuthMode_Invalid(t *testing.T) {
	t.Setenv("AUTH_MODE", "oauth")

	var cfg AppConfig
	if err := env.Parse(&cfg); err == nil {
		t.Fatalf("expected invalid auth mode to fail parsing")
	}
}

func TestAuthConfig_ValidateRequiresSecret(t *testing.T) {
	cfg := AppConfig{Services: "http", Auth: AuthConfig{Mode: AuthModePassword}}
	cfg.Auth.Sanitize(false)

	if err := cfg.Validate(); err == nil {
		t.Fatalf("expected missing JWT secret to fail validation")
	}

	cfg.Auth.Sanitize(true)
	if err := cfg.Validate(); err != nil {
		t.Fatalf("dev mode should supply a JWT secret, got %v", err)
	}

	cfg.Auth.JWTSecret = "short"
	if err := cfg.Validate(); err == nil {
		t.Fatalf("expected a short JWT secret to fail validation")
	}
}

func TestClientAndAuditConfig_Sanitize(t *testing.T) {
	clients := ClientConfig{IdleTTL: time.Second, SweepInterval: 0, CookieName: " "}
	clients.Sanitize()
	if clients.IdleTTL != time.Minute {
		t.Errorf("expected idle TTL clamp to 1m, got %v", clients.IdleTTL)
	}
	if clients.SweepInterval != time.Second {
		t.Errorf("expected sweep interval clamp to 1s, got %v", clients.SweepInterval)
	}
	if clients.CookieName != "client_id" {
		t.Errorf("expected default cookie name, got %q", clients.CookieName)
	}

	audit := AuditConfig{MaxAttempts: 0, FlushInterval: 0, FlushBatch: -1}
	audit.Sanitize()
	if audit.MaxAttempts != 1 || audit.FlushBatch != 1 || audit.FlushInterval != time.Second {
		t.Errorf("unexpected audit sanitisation result: %#v", audit)
	}
	if audit.RetryQueue != "audit:retry" {
		t.Errorf("expected default retry queue, got %q", audit.RetryQueue)
	}
}

func TestValidServiceModes(t *testing.T) {
	modes := ValidServiceModes()
	expected := []ServiceMode{
		ServiceModeHTTP,
		ServiceModeAuditFlusher,
		ServiceModeClientSweeper,
	}

	if !reflect.DeepEqual(modes, expected) {
		t.Errorf("expected %v, got %v", expected, modes)
	}
}

func TestObservabilityMetricsConfig_Sanitize(t *testing.T) {
	cfg := ObservabilityMetricsConfig{
		Enabled:       true,
		StatsdAddress: " ",
	}

	cfg.Sanitize()

	if cfg.Enabled {
		t.Fatalf("expected enabled to be false when address is empty")
	}

	cfg = ObservabilityMetricsConfig{
		Enabled:       true,
		StatsdAddress: " statsd:1234 ",
		StatsdPrefix:  ".bhajan.",
	}

	cfg.Sanitize()

	if !cfg.IsEnabled() {
		t.Fatalf("expected metrics to remain enabled")
	}
	if cfg.StatsdAddress != "statsd:1234" {
		t.Fatalf("expected address to be trimmed, got %q", cfg.StatsdAddress)
	}
	if cfg.StatsdPrefix != "bhajan" {
		t.Fatalf("expected prefix to be trimmed, got %q", cfg.StatsdPrefix)
	}
}
