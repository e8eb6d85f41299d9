package ports

// Package ports defines interfaces (hexagonal ports) for the backend data service.
// Implementations live in internal/adapters and internal/data; orchestration in internal/service.

import (
	"context"
	"errors"
	"time"

	domainauth "github.com/target/bhajan-library/internal/domain/auth"
)

// AuthSubscription is a standing registration for auth-change notifications.
// Events are delivered in publication order. The channel is closed after Close.
type AuthSubscription interface {
	Events() <-chan domainauth.Event
	Close() error
}

// AuthBackend is the auth surface of the backend data service, bound to one client key.
type AuthBackend interface {
	// GetPersistedSession returns the session previously established for this client, or nil.
	GetPersistedSession(ctx context.Context) (*domainauth.Session, error)
	// SubscribeAuthChanges registers a standing auth-change subscription.
	SubscribeAuthChanges(ctx context.Context) (AuthSubscription, error)

	SignUp(ctx context.Context, email, password string) (*domainauth.Session, error)
	SignIn(ctx context.Context, email, password string) (*domainauth.Session, error)
	SignOut(ctx context.Context) error

	// RefreshSession rotates the token material of the persisted session.
	RefreshSession(ctx context.Context) (*domainauth.Session, error)
	// UpdatePassword changes the signed-in user's password.
	UpdatePassword(ctx context.Context, newPassword string) (*domainauth.Session, error)
	// SendPasswordReset issues a reset token and delivers it to email if the account exists.
	SendPasswordReset(ctx context.Context, email string) error
	// ResetPassword consumes a reset token and sets a new password.
	ResetPassword(ctx context.Context, token, newPassword string) error
}

// ErrSessionNotFound is returned by SessionStore.Get when no session is stored for the key.
var ErrSessionNotFound = errors.New("session not found")

// SessionStore persists sessions keyed by client key.
type SessionStore interface {
	Save(ctx context.Context, key string, sess domainauth.Session) error
	Get(ctx context.Context, key string) (domainauth.Session, error)
	Delete(ctx context.Context, key string) error
}

// AuthEventBus fans auth-change notifications out per client key.
type AuthEventBus interface {
	Publish(ctx context.Context, key string, ev domainauth.Event) error
	Subscribe(ctx context.Context, key string) (AuthSubscription, error)
}

// RoleMapper assigns the initial role of a new account.
type RoleMapper interface {
	Map(email string) domainauth.Role
}

// Credentials is the stored login material of an account.
type Credentials struct {
	UserID       string
	Email        string
	PasswordHash string
}

// AccountRepository stores login accounts and creates their profiles.
type AccountRepository interface {
	// CreateAccount inserts the account and its profile atomically.
	CreateAccount(ctx context.Context, email, passwordHash string, role domainauth.Role) (*domainauth.Profile, error)
	GetCredentials(ctx context.Context, email string) (*Credentials, error)
	UpdatePasswordHash(ctx context.Context, userID, passwordHash string) error
	SetResetToken(ctx context.Context, userID, tokenHash string, expiresAt time.Time) error
	// ConsumeResetToken clears a live token and returns its owner.
	ConsumeResetToken(ctx context.Context, tokenHash string, now time.Time) (string, error)
}

// ProfileRepository reads and updates role-bearing profiles.
type ProfileRepository interface {
	GetByID(ctx context.Context, id string) (*domainauth.Profile, error)
	GetByEmail(ctx context.Context, email string) (*domainauth.Profile, error)
	UpdateRole(ctx context.Context, id string, role domainauth.Role) (*domainauth.Profile, error)
	List(ctx context.Context, limit, offset int) ([]*domainauth.Profile, int, error)
}

// Mailer delivers account notifications.
type Mailer interface {
	Send(ctx context.Context, to, subject, body string) error
}
