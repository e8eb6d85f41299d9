package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"

	"github.com/target/bhajan-library/config"
	"github.com/target/bhajan-library/internal/adapters/authroles"
	"github.com/target/bhajan-library/internal/adapters/backendauth"
	"github.com/target/bhajan-library/internal/adapters/devauth"
	"github.com/target/bhajan-library/internal/adapters/mailer"
	redisadapter "github.com/target/bhajan-library/internal/adapters/redis"
	domainauth "github.com/target/bhajan-library/internal/domain/auth"
	"github.com/target/bhajan-library/internal/ports"
)

// sessionKeyPrefix namespaces persisted sessions in Redis.
const sessionKeyPrefix = "session:"

// AuthConfig contains configuration for the auth backend.
type AuthConfig struct {
	Auth        config.AuthConfig
	Accounts    ports.AccountRepository // Required
	Profiles    ports.ProfileRepository // Required in dev mode
	RedisClient redis.UniversalClient   // Required in password mode
	Logger      *slog.Logger
}

// BuildAuthService creates the auth backend for the configured mode.
//
// Password mode persists sessions in Redis and fans auth events out over Redis pub/sub so every
// replica sees sign-outs. Dev mode keeps both in memory and provisions the development account.
func BuildAuthService(ctx context.Context, cfg AuthConfig) (*backendauth.Service, error) {
	if cfg.Accounts == nil {
		return nil, errors.New("auth: account repository is required")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	sessions, events, err := buildSessionAdapters(cfg, logger)
	if err != nil {
		return nil, err
	}

	if cfg.Auth.Mode == config.AuthModeDev {
		if err := provisionDevAccount(ctx, cfg, logger); err != nil {
			return nil, err
		}
	}

	tokens, err := backendauth.NewTokenIssuer(cfg.Auth.JWTSecret, cfg.Auth.JWTIssuer, cfg.Auth.AccessTTL)
	if err != nil {
		return nil, fmt.Errorf("auth: token issuer: %w", err)
	}

	mail, err := buildMailer(cfg.Auth, logger)
	if err != nil {
		return nil, err
	}

	return backendauth.NewService(backendauth.Options{
		Accounts: cfg.Accounts,
		Sessions: sessions,
		Events:   events,
		Roles:    authroles.NewEmailRoleMapper(cfg.Auth.AdminEmails, cfg.Auth.EditorEmails),
		Mailer:   mail,
		Tokens:   tokens,
		ResetTTL: cfg.Auth.ResetTTL,
		ResetURL: cfg.Auth.ResetURL,
		Logger:   logger,
	})
}

//nolint:ireturn // the concrete adapters differ per auth mode.
func buildSessionAdapters(cfg AuthConfig, logger *slog.Logger) (ports.SessionStore, ports.AuthEventBus, error) {
	switch cfg.Auth.Mode {
	case config.AuthModeDev:
		logger.Warn("dev auth enabled: sessions are kept in memory", "email", cfg.Auth.DevAuth.Email)
		return devauth.NewSessionStore(), devauth.NewHub(logger), nil
	case config.AuthModePassword, "":
		if cfg.RedisClient == nil {
			return nil, nil, errors.New("auth: redis client is required in password mode")
		}
		sessions := redisadapter.NewSessionStoreWithPrefix(cfg.RedisClient, sessionKeyPrefix, cfg.Auth.SessionTTL)
		return sessions, redisadapter.NewAuthEventBus(cfg.RedisClient, logger), nil
	default:
		return nil, nil, fmt.Errorf("auth: unsupported mode %q", cfg.Auth.Mode)
	}
}

func provisionDevAccount(ctx context.Context, cfg AuthConfig, logger *slog.Logger) error {
	if cfg.Profiles == nil {
		return errors.New("auth: profile repository is required in dev mode")
	}
	role, ok := domainauth.ParseRole(cfg.Auth.DevAuth.Role)
	if !ok {
		return fmt.Errorf("auth: invalid dev role %q", cfg.Auth.DevAuth.Role)
	}
	profile, err := devauth.Provision(ctx, cfg.Accounts, cfg.Profiles, devauth.Config{
		Email:    cfg.Auth.DevAuth.Email,
		Password: cfg.Auth.DevAuth.Password,
		Role:     role,
	})
	if err != nil {
		return err
	}
	logger.InfoContext(ctx, "dev account ready", "email", profile.Email, "role", profile.Role)
	return nil
}

//nolint:ireturn // log or webhook delivery is chosen from config.
func buildMailer(cfg config.AuthConfig, logger *slog.Logger) (ports.Mailer, error) {
	if cfg.MailWebhookURL == "" {
		return mailer.NewLogMailer(logger), nil
	}
	m, err := mailer.NewWebhookMailer(mailer.WebhookConfig{URL: cfg.MailWebhookURL, From: cfg.MailFrom})
	if err != nil {
		return nil, fmt.Errorf("auth: mailer: %w", err)
	}
	return m, nil
}
