package config

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// minJWTSecretLen matches the HS256 signer's minimum key size.
const minJWTSecretLen = 16

// AuthMode represents the authentication backend used by the application.
type AuthMode string

const (
	// AuthModePassword uses email/password accounts stored in Postgres.
	AuthModePassword AuthMode = "password"
	// AuthModeDev uses an in-memory backend with a fixed identity (development only).
	AuthModeDev AuthMode = "dev"
)

// UnmarshalText implements encoding.TextUnmarshaler for AuthMode.
func (a *AuthMode) UnmarshalText(text []byte) error {
	v := strings.ToLower(string(text))
	switch v {
	case "password", "dev":
		*a = AuthMode(v)
		return nil
	default:
		return fmt.Errorf("invalid AuthMode: %q (valid options: password, dev)", v)
	}
}

// DevAuthConfig controls the development identity.
// Used when AUTH_MODE=dev.
type DevAuthConfig struct {
	Email    string `env:"EMAIL"    envDefault:"dev@example.com"`
	Password string `env:"PASSWORD" envDefault:"devpassword"`
	Role     string `env:"ROLE"     envDefault:"admin"`
}

// AuthConfig groups all authentication-related configuration.
type AuthConfig struct {
	// Mode determines which authentication backend to use.
	Mode AuthMode `env:"MODE" envDefault:"password"`

	// JWTSecret signs access tokens (HS256). Required in password mode.
	JWTSecret string `env:"JWT_SECRET"`

	// JWTIssuer is written into the iss claim.
	JWTIssuer string `env:"JWT_ISSUER" envDefault:"bhajan-library"`

	// AccessTTL is the lifetime of an access token before it must be refreshed.
	AccessTTL time.Duration `env:"ACCESS_TTL" envDefault:"15m"`

	// SessionTTL is how long a persisted session survives in Redis.
	SessionTTL time.Duration `env:"SESSION_TTL" envDefault:"168h"`

	// AdminEmails receive the admin role when they sign up.
	AdminEmails []string `env:"ADMIN_EMAILS" envSeparator:","`

	// EditorEmails receive the editor role when they sign up.
	EditorEmails []string `env:"EDITOR_EMAILS" envSeparator:","`

	// ResetURL is the page that accepts ?token=... in password reset mails.
	ResetURL string `env:"RESET_URL" envDefault:"http://localhost:8080/reset-password"`

	// ResetTTL bounds how long a password reset link stays valid.
	ResetTTL time.Duration `env:"RESET_TTL" envDefault:"1h"`

	// MailWebhookURL relays account mail as JSON. When empty, mail is written to the log.
	MailWebhookURL string `env:"MAIL_WEBHOOK_URL"`

	// MailFrom is the sender address passed to the mail webhook.
	MailFrom string `env:"MAIL_FROM" envDefault:"no-reply@bhajan-library.local"`

	// DevAuth configuration (used when Mode=dev).
	DevAuth DevAuthConfig `envPrefix:"DEV_"`
}

// Sanitize normalises auth configuration values.
func (a *AuthConfig) Sanitize(isDev bool) {
	if a.AccessTTL < time.Minute {
		a.AccessTTL = time.Minute
	}
	if a.SessionTTL < a.AccessTTL {
		a.SessionTTL = a.AccessTTL
	}
	a.AdminEmails = normaliseEmails(a.AdminEmails)
	a.EditorEmails = normaliseEmails(a.EditorEmails)
	a.JWTSecret = strings.TrimSpace(a.JWTSecret)
	a.MailWebhookURL = strings.TrimSpace(a.MailWebhookURL)
	if a.ResetTTL <= 0 {
		a.ResetTTL = time.Hour
	}
	if a.JWTSecret == "" && isDev {
		a.JWTSecret = "dev-only-secret-not-for-production"
	}
}

// Validate reports auth settings that would make the backend unusable.
func (a *AuthConfig) Validate() error {
	if a.Mode == AuthModePassword && a.JWTSecret == "" {
		return errors.New("AUTH_JWT_SECRET is required when AUTH_MODE=password")
	}
	if a.JWTSecret != "" && len(a.JWTSecret) < minJWTSecretLen {
		return fmt.Errorf("AUTH_JWT_SECRET must be at least %d bytes", minJWTSecretLen)
	}
	return nil
}

func normaliseEmails(in []string) []string {
	out := make([]string, 0, len(in))
	for _, e := range in {
		if e = strings.ToLower(strings.TrimSpace(e)); e != "" {
			out = append(out, e)
		}
	}
	return out
}
