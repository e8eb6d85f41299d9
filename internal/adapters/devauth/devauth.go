// Package devauth provides single-process stand-ins for the session and auth-event adapters,
// used when AUTH_MODE=dev, plus provisioning of the configured development account.
package devauth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"golang.org/x/crypto/bcrypt"

	domainauth "github.com/target/bhajan-library/internal/domain/auth"
	apperrors "github.com/target/bhajan-library/internal/errors"
	"github.com/target/bhajan-library/internal/ports"
)

// Config describes the development account.
// All fields are required except Role, which defaults to admin.
type Config struct {
	Email    string
	Password string
	Role     domainauth.Role
}

// Provision ensures the development account exists with the configured role.
// An existing account keeps its password.
func Provision(
	ctx context.Context,
	accounts ports.AccountRepository,
	profiles ports.ProfileRepository,
	cfg Config,
) (*domainauth.Profile, error) {
	email := strings.ToLower(strings.TrimSpace(cfg.Email))
	if email == "" {
		return nil, errors.New("dev auth: Email is required")
	}
	if len(cfg.Password) < 8 {
		return nil, errors.New("dev auth: Password must be at least 8 characters")
	}
	role := cfg.Role
	if role == "" {
		role = domainauth.RoleAdmin
	}
	if !role.Valid() {
		return nil, fmt.Errorf("dev auth: invalid role %q", role)
	}

	creds, err := accounts.GetCredentials(ctx, email)
	switch {
	case err == nil:
		return profiles.UpdateRole(ctx, creds.UserID, role)
	case !apperrors.IsNotFound(err):
		return nil, fmt.Errorf("dev auth: lookup account: %w", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(cfg.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("dev auth: hash password: %w", err)
	}
	return accounts.CreateAccount(ctx, email, string(hash), role)
}

// SessionStore is an in-memory ports.SessionStore.
type SessionStore struct {
	mu       sync.RWMutex
	sessions map[string]domainauth.Session
}

var _ ports.SessionStore = (*SessionStore)(nil)

func NewSessionStore() *SessionStore {
	return &SessionStore{sessions: make(map[string]domainauth.Session)}
}

func (s *SessionStore) Save(_ context.Context, key string, sess domainauth.Session) error {
	if key == "" {
		return errors.New("session key cannot be empty")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[key] = sess
	return nil
}

func (s *SessionStore) Get(_ context.Context, key string) (domainauth.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sess, ok := s.sessions[key]
	if !ok {
		return domainauth.Session{}, ports.ErrSessionNotFound
	}
	return sess, nil
}

func (s *SessionStore) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, key)
	return nil
}

// hubBuffer is the per-subscriber backlog. A subscriber that falls further behind loses events.
const hubBuffer = 64

// Hub is an in-process ports.AuthEventBus.
type Hub struct {
	mu     sync.Mutex
	subs   map[string]map[*hubSubscription]struct{}
	logger *slog.Logger
}

var _ ports.AuthEventBus = (*Hub)(nil)

func NewHub(logger *slog.Logger) *Hub {
	if logger == nil {
		logger = slog.Default()
	}
	return &Hub{
		subs:   make(map[string]map[*hubSubscription]struct{}),
		logger: logger.With("component", "devauth_hub"),
	}
}

// Publish delivers ev to the current subscribers of key without blocking.
func (h *Hub) Publish(_ context.Context, key string, ev domainauth.Event) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	for sub := range h.subs[key] {
		select {
		case sub.events <- ev:
		default:
			h.logger.Warn("auth event dropped for slow subscriber", "kind", ev.Kind)
		}
	}
	return nil
}

func (h *Hub) Subscribe(_ context.Context, key string) (ports.AuthSubscription, error) {
	if key == "" {
		return nil, errors.New("event key cannot be empty")
	}
	sub := &hubSubscription{hub: h, key: key, events: make(chan domainauth.Event, hubBuffer)}
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.subs[key] == nil {
		h.subs[key] = make(map[*hubSubscription]struct{})
	}
	h.subs[key][sub] = struct{}{}
	return sub, nil
}

// Subscribers returns the number of live subscriptions for key.
func (h *Hub) Subscribers(key string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs[key])
}

type hubSubscription struct {
	hub    *Hub
	key    string
	events chan domainauth.Event
	once   sync.Once
}

func (s *hubSubscription) Events() <-chan domainauth.Event { return s.events }

func (s *hubSubscription) Close() error {
	s.once.Do(func() {
		s.hub.mu.Lock()
		defer s.hub.mu.Unlock()
		delete(s.hub.subs[s.key], s)
		if len(s.hub.subs[s.key]) == 0 {
			delete(s.hub.subs, s.key)
		}
		close(s.events)
	})
	return nil
}
