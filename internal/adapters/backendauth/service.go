// Package backendauth implements the auth surface of the backend data service: email and password
// accounts in Postgres, sessions per client key, and auth-change notifications.
package backendauth

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"net/mail"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	domainauth "github.com/target/bhajan-library/internal/domain/auth"
	apperrors "github.com/target/bhajan-library/internal/errors"
	"github.com/target/bhajan-library/internal/ports"
)

const (
	minPasswordLen  = 8
	maxPasswordLen  = 72 // bcrypt input limit
	defaultResetTTL = time.Hour
)

var (
	// ErrInvalidCredentials hides whether the email or the password was wrong.
	ErrInvalidCredentials = apperrors.NotAuthenticated("Invalid login credentials")
	errNoSession          = apperrors.NotAuthenticated("No active session")
)

// Options configures Service.
type Options struct {
	Accounts ports.AccountRepository
	Sessions ports.SessionStore
	Events   ports.AuthEventBus
	Roles    ports.RoleMapper
	Mailer   ports.Mailer
	Tokens   *TokenIssuer

	// ResetTTL bounds how long a password reset link stays valid. Defaults to one hour.
	ResetTTL time.Duration
	// ResetURL is the page that accepts ?token=...; the mailed link is built from it.
	ResetURL string

	Now    func() time.Time
	Logger *slog.Logger
}

// Service owns account credentials and session issuance. Use For to bind it to a client.
type Service struct {
	accounts ports.AccountRepository
	sessions ports.SessionStore
	events   ports.AuthEventBus
	roles    ports.RoleMapper
	mailer   ports.Mailer
	tokens   *TokenIssuer
	resetTTL time.Duration
	resetURL string
	now      func() time.Time
	logger   *slog.Logger
}

// NewService validates opts and constructs a Service.
func NewService(opts Options) (*Service, error) {
	switch {
	case opts.Accounts == nil:
		return nil, errors.New("backendauth: Accounts is required")
	case opts.Sessions == nil:
		return nil, errors.New("backendauth: Sessions is required")
	case opts.Events == nil:
		return nil, errors.New("backendauth: Events is required")
	case opts.Tokens == nil:
		return nil, errors.New("backendauth: Tokens is required")
	}
	s := &Service{
		accounts: opts.Accounts,
		sessions: opts.Sessions,
		events:   opts.Events,
		roles:    opts.Roles,
		mailer:   opts.Mailer,
		tokens:   opts.Tokens,
		resetTTL: opts.ResetTTL,
		resetURL: opts.ResetURL,
		now:      opts.Now,
		logger:   opts.Logger,
	}
	if s.resetTTL <= 0 {
		s.resetTTL = defaultResetTTL
	}
	if s.now == nil {
		s.now = time.Now
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	s.logger = s.logger.With("component", "backendauth")
	return s, nil
}

// For returns the auth backend bound to clientKey.
func (s *Service) For(clientKey string) ports.AuthBackend {
	return &clientBackend{svc: s, key: clientKey}
}

type clientBackend struct {
	svc *Service
	key string
}

var _ ports.AuthBackend = (*clientBackend)(nil)

// GetPersistedSession restores the client's session. An expired access token is rotated and a
// token_refreshed event is published; an unverifiable one is discarded.
func (b *clientBackend) GetPersistedSession(ctx context.Context) (*domainauth.Session, error) {
	sess, err := b.svc.sessions.Get(ctx, b.key)
	if err != nil {
		if errors.Is(err, ports.ErrSessionNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("load session: %w", err)
	}

	_, err = b.svc.tokens.Verify(sess.AccessToken)
	switch {
	case err == nil:
		return &sess, nil
	case errors.Is(err, jwt.ErrTokenExpired):
		return b.rotate(ctx, sess.User, domainauth.EventTokenRefreshed)
	default:
		b.svc.logger.WarnContext(ctx, "discarding unverifiable session", "user_id", sess.User.ID, "error", err)
		if delErr := b.svc.sessions.Delete(ctx, b.key); delErr != nil {
			return nil, fmt.Errorf("discard session: %w", delErr)
		}
		return nil, nil
	}
}

func (b *clientBackend) SubscribeAuthChanges(ctx context.Context) (ports.AuthSubscription, error) {
	return b.svc.events.Subscribe(ctx, b.key)
}

// SignUp creates the account and its profile, then signs the client in.
func (b *clientBackend) SignUp(ctx context.Context, email, password string) (*domainauth.Session, error) {
	email, err := normalizeEmail(email)
	if err != nil {
		return nil, err
	}
	hash, err := hashPassword(password)
	if err != nil {
		return nil, err
	}

	role := domainauth.RoleUser
	if b.svc.roles != nil {
		role = b.svc.roles.Map(email)
	}
	profile, err := b.svc.accounts.CreateAccount(ctx, email, hash, role)
	if err != nil {
		return nil, err
	}
	b.svc.logger.InfoContext(ctx, "account created", "user_id", profile.ID, "role", profile.Role)
	return b.rotate(ctx, domainauth.User{ID: profile.ID, Email: profile.Email}, domainauth.EventSignedIn)
}

// SignIn checks the password and issues a new session.
func (b *clientBackend) SignIn(ctx context.Context, email, password string) (*domainauth.Session, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return nil, apperrors.Validation("Email and password are required")
	}
	creds, err := b.svc.accounts.GetCredentials(ctx, email)
	if err != nil {
		if apperrors.IsNotFound(err) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if bcrypt.CompareHashAndPassword([]byte(creds.PasswordHash), []byte(password)) != nil {
		return nil, ErrInvalidCredentials
	}
	return b.rotate(ctx, domainauth.User{ID: creds.UserID, Email: creds.Email}, domainauth.EventSignedIn)
}

// SignOut forgets the client's session and notifies subscribers.
func (b *clientBackend) SignOut(ctx context.Context) error {
	if err := b.svc.sessions.Delete(ctx, b.key); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	b.publish(ctx, domainauth.Event{Kind: domainauth.EventSignedOut})
	return nil
}

// RefreshSession rotates the token material of the persisted session.
func (b *clientBackend) RefreshSession(ctx context.Context) (*domainauth.Session, error) {
	sess, err := b.current(ctx)
	if err != nil {
		return nil, err
	}
	return b.rotate(ctx, sess.User, domainauth.EventTokenRefreshed)
}

// UpdatePassword sets a new password for the signed-in user and publishes user_updated.
func (b *clientBackend) UpdatePassword(ctx context.Context, newPassword string) (*domainauth.Session, error) {
	sess, err := b.current(ctx)
	if err != nil {
		return nil, err
	}
	hash, err := hashPassword(newPassword)
	if err != nil {
		return nil, err
	}
	if err := b.svc.accounts.UpdatePasswordHash(ctx, sess.User.ID, hash); err != nil {
		return nil, err
	}
	b.publish(ctx, domainauth.Event{Kind: domainauth.EventUserUpdated, Session: sess})
	return sess, nil
}

// SendPasswordReset mails a single-use reset link. Unknown emails succeed silently so the
// endpoint cannot be used to probe for accounts.
func (b *clientBackend) SendPasswordReset(ctx context.Context, email string) error {
	email, err := normalizeEmail(email)
	if err != nil {
		return err
	}
	creds, err := b.svc.accounts.GetCredentials(ctx, email)
	if err != nil {
		if apperrors.IsNotFound(err) {
			b.svc.logger.InfoContext(ctx, "password reset requested for unknown email")
			return nil
		}
		return err
	}

	token, err := randomToken(32)
	if err != nil {
		return fmt.Errorf("generate reset token: %w", err)
	}
	expiresAt := b.svc.now().Add(b.svc.resetTTL)
	if err := b.svc.accounts.SetResetToken(ctx, creds.UserID, hashToken(token), expiresAt); err != nil {
		return err
	}
	if b.svc.mailer == nil {
		return errors.New("password reset delivery is not configured")
	}
	body := fmt.Sprintf("Use this link to reset your password. It expires at %s.\n\n%s?token=%s\n",
		expiresAt.UTC().Format(time.RFC1123), b.svc.resetURL, token)
	return b.svc.mailer.Send(ctx, creds.Email, "Reset your password", body)
}

// ResetPassword consumes a reset token and stores the new password.
func (b *clientBackend) ResetPassword(ctx context.Context, token, newPassword string) error {
	if strings.TrimSpace(token) == "" {
		return apperrors.Validation("Reset token is required")
	}
	hash, err := hashPassword(newPassword)
	if err != nil {
		return err
	}
	userID, err := b.svc.accounts.ConsumeResetToken(ctx, hashToken(token), b.svc.now())
	if err != nil {
		return err
	}
	return b.svc.accounts.UpdatePasswordHash(ctx, userID, hash)
}

func (b *clientBackend) current(ctx context.Context) (*domainauth.Session, error) {
	sess, err := b.svc.sessions.Get(ctx, b.key)
	if err != nil {
		if errors.Is(err, ports.ErrSessionNotFound) {
			return nil, errNoSession
		}
		return nil, fmt.Errorf("load session: %w", err)
	}
	return &sess, nil
}

// rotate issues and stores a new session for user, then publishes kind.
func (b *clientBackend) rotate(
	ctx context.Context,
	user domainauth.User,
	kind domainauth.EventKind,
) (*domainauth.Session, error) {
	sess, err := b.svc.tokens.Issue(user)
	if err != nil {
		return nil, err
	}
	if err := b.svc.sessions.Save(ctx, b.key, sess); err != nil {
		return nil, fmt.Errorf("save session: %w", err)
	}
	b.publish(ctx, domainauth.Event{Kind: kind, Session: &sess})
	return &sess, nil
}

// publish is best effort: the caller already has the session, subscribers are a convenience.
func (b *clientBackend) publish(ctx context.Context, ev domainauth.Event) {
	if err := b.svc.events.Publish(ctx, b.key, ev); err != nil {
		b.svc.logger.WarnContext(ctx, "publish auth event failed", "kind", ev.Kind, "error", err)
	}
}

func normalizeEmail(email string) (string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return "", apperrors.ValidationField("email", "Email is required")
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return "", apperrors.ValidationField("email", "Email address is invalid")
	}
	return email, nil
}

func hashPassword(password string) (string, error) {
	if len(password) < minPasswordLen {
		return "", apperrors.ValidationField("password", "Password must be at least 8 characters")
	}
	if len(password) > maxPasswordLen {
		return "", apperrors.ValidationField("password", "Password cannot exceed 72 bytes")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hash), nil
}

func hashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}
