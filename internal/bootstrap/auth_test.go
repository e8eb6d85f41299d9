package bootstrap

import (
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/target/bhajan-library/config"
	"github.com/target/bhajan-library/internal/adapters/mailer"
	domainauth "github.com/target/bhajan-library/internal/domain/auth"
	mockauth "github.com/target/bhajan-library/internal/mocks/auth"
)

const testSecret = "bootstrap-test-secret-0123456789"

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func passwordAuthConfig() config.AuthConfig {
	return config.AuthConfig{
		Mode:         config.AuthModePassword,
		JWTSecret:    testSecret,
		JWTIssuer:    "bhajan-library",
		AccessTTL:    15 * time.Minute,
		SessionTTL:   time.Hour,
		AdminEmails:  []string{"root@example.com"},
		EditorEmails: []string{"editor@example.com"},
	}
}

func TestBuildAuthService_PasswordModeRequiresRedis(t *testing.T) {
	_, err := BuildAuthService(t.Context(), AuthConfig{
		Auth:     passwordAuthConfig(),
		Accounts: mockauth.NewMemoryAccounts(),
		Logger:   discardLogger(),
	})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "redis client is required")
}

func TestBuildAuthService_RequiresAccounts(t *testing.T) {
	_, err := BuildAuthService(t.Context(), AuthConfig{Auth: passwordAuthConfig()})

	require.Error(t, err)
}

func TestBuildAuthService_RejectsShortSecret(t *testing.T) {
	mr := miniredis.RunT(t)
	cfg := passwordAuthConfig()
	cfg.JWTSecret = "short"

	_, err := BuildAuthService(t.Context(), AuthConfig{
		Auth:        cfg,
		Accounts:    mockauth.NewMemoryAccounts(),
		RedisClient: redis.NewClient(&redis.Options{Addr: mr.Addr()}),
		Logger:      discardLogger(),
	})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "token issuer")
}

// Sessions issued in password mode are persisted in Redis under the client key and roles come
// from the configured email lists.
func TestBuildAuthService_PasswordModePersistsSessionsInRedis(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	accounts := mockauth.NewMemoryAccounts()

	svc, err := BuildAuthService(t.Context(), AuthConfig{
		Auth:        passwordAuthConfig(),
		Accounts:    accounts,
		Profiles:    accounts,
		RedisClient: rdb,
		Logger:      discardLogger(),
	})
	require.NoError(t, err)

	sess, err := svc.For("client-a").SignUp(t.Context(), "Root@Example.com", "long enough password")
	require.NoError(t, err)
	require.NotNil(t, sess)
	assert.True(t, mr.Exists(sessionKeyPrefix+"client-a"))

	persisted, err := svc.For("client-a").GetPersistedSession(t.Context())
	require.NoError(t, err)
	require.NotNil(t, persisted)
	assert.Equal(t, sess.User.ID, persisted.User.ID)

	other, err := svc.For("client-b").GetPersistedSession(t.Context())
	require.NoError(t, err)
	assert.Nil(t, other)

	profile, err := accounts.GetByEmail(t.Context(), "root@example.com")
	require.NoError(t, err)
	assert.Equal(t, domainauth.RoleAdmin, profile.Role)
}

func TestBuildAuthService_DevModeProvisionsAccount(t *testing.T) {
	accounts := mockauth.NewMemoryAccounts()
	cfg := config.AuthConfig{
		Mode:      config.AuthModeDev,
		JWTSecret: testSecret,
		DevAuth: config.DevAuthConfig{
			Email:    "dev@example.com",
			Password: "devpassword",
			Role:     "editor",
		},
	}

	svc, err := BuildAuthService(t.Context(), AuthConfig{
		Auth:     cfg,
		Accounts: accounts,
		Profiles: accounts,
		Logger:   discardLogger(),
	})
	require.NoError(t, err)

	profile, err := accounts.GetByEmail(t.Context(), "dev@example.com")
	require.NoError(t, err)
	assert.Equal(t, domainauth.RoleEditor, profile.Role)

	sess, err := svc.For("dev-client").SignIn(t.Context(), "dev@example.com", "devpassword")
	require.NoError(t, err)
	assert.Equal(t, profile.ID, sess.User.ID)

	// Provisioning again keeps the account and applies the configured role.
	cfg.DevAuth.Role = "admin"
	_, err = BuildAuthService(t.Context(), AuthConfig{Auth: cfg, Accounts: accounts, Profiles: accounts})
	require.NoError(t, err)
	assert.Equal(t, 1, accounts.Created())
	profile, err = accounts.GetByEmail(t.Context(), "dev@example.com")
	require.NoError(t, err)
	assert.Equal(t, domainauth.RoleAdmin, profile.Role)
}

func TestBuildAuthService_DevModeRejectsInvalidRole(t *testing.T) {
	accounts := mockauth.NewMemoryAccounts()
	cfg := config.AuthConfig{
		Mode:      config.AuthModeDev,
		JWTSecret: testSecret,
		DevAuth:   config.DevAuthConfig{Email: "dev@example.com", Password: "devpassword", Role: "owner"},
	}

	_, err := BuildAuthService(t.Context(), AuthConfig{Auth: cfg, Accounts: accounts, Profiles: accounts})

	require.Error(t, err)
	assert.Zero(t, accounts.Created())
}

func TestBuildMailer(t *testing.T) {
	m, err := buildMailer(config.AuthConfig{}, discardLogger())
	require.NoError(t, err)
	assert.IsType(t, &mailer.LogMailer{}, m)

	m, err = buildMailer(config.AuthConfig{MailWebhookURL: "https://mail.example.com/hook"}, discardLogger())
	require.NoError(t, err)
	assert.IsType(t, &mailer.WebhookMailer{}, m)
}
