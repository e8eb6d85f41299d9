package auth

// Package auth contains simple hand-written test doubles for auth ports.
// These are lightweight and suitable for unit tests without codegen.

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	domainauth "github.com/target/bhajan-library/internal/domain/auth"
	apperrors "github.com/target/bhajan-library/internal/errors"
	"github.com/target/bhajan-library/internal/ports"
)

// Ensure compile-time conformance to ports.
var (
	_ ports.AuthBackend       = (*MockAuthBackend)(nil)
	_ ports.AuthSubscription  = (*Subscription)(nil)
	_ ports.AccountRepository = (*MemoryAccounts)(nil)
	_ ports.ProfileRepository = (*MemoryAccounts)(nil)
	_ ports.RoleMapper        = StaticRoleMapper{}
	_ ports.Mailer            = (*RecordingMailer)(nil)
)

// ErrNotFound is returned by mocks when an entity is not present.
var ErrNotFound = apperrors.NotFound("not found")

// Subscription is a channel-backed ports.AuthSubscription. Emit pushes events to the reader.
type Subscription struct {
	mu     sync.Mutex
	closed bool
	events chan domainauth.Event
}

// NewSubscription creates an open subscription with a generous buffer.
func NewSubscription() *Subscription {
	return &Subscription{events: make(chan domainauth.Event, 32)}
}

func (s *Subscription) Events() <-chan domainauth.Event { return s.events }

// Emit delivers ev unless the subscription was closed.
func (s *Subscription) Emit(ev domainauth.Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.closed {
		s.events <- ev
	}
}

func (s *Subscription) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.closed {
		s.closed = true
		close(s.events)
	}
	return nil
}

// Closed reports whether Close has been called.
func (s *Subscription) Closed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

// MockAuthBackend is a func-field ports.AuthBackend. Unset funcs return zero values.
// Calls are counted so tests can assert whether the backend was reached.
type MockAuthBackend struct {
	GetPersistedSessionFunc func(ctx context.Context) (*domainauth.Session, error)
	SignUpFunc              func(ctx context.Context, email, password string) (*domainauth.Session, error)
	SignInFunc              func(ctx context.Context, email, password string) (*domainauth.Session, error)
	SignOutFunc             func(ctx context.Context) error
	RefreshSessionFunc      func(ctx context.Context) (*domainauth.Session, error)
	UpdatePasswordFunc      func(ctx context.Context, newPassword string) (*domainauth.Session, error)
	SendPasswordResetFunc   func(ctx context.Context, email string) error
	ResetPasswordFunc       func(ctx context.Context, token, newPassword string) error

	mu    sync.Mutex
	calls map[string]int
	subs  []*Subscription
}

func (m *MockAuthBackend) record(name string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.calls == nil {
		m.calls = make(map[string]int)
	}
	m.calls[name]++
}

// Calls returns how many times the named method was invoked.
func (m *MockAuthBackend) Calls(name string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls[name]
}

// TotalCalls returns the number of backend calls of any kind.
func (m *MockAuthBackend) TotalCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, c := range m.calls {
		n += c
	}
	return n
}

// Subscriptions returns the subscriptions handed out so far.
func (m *MockAuthBackend) Subscriptions() []*Subscription {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]*Subscription(nil), m.subs...)
}

// Emit sends ev to every subscription.
func (m *MockAuthBackend) Emit(ev domainauth.Event) {
	for _, s := range m.Subscriptions() {
		s.Emit(ev)
	}
}

func (m *MockAuthBackend) GetPersistedSession(ctx context.Context) (*domainauth.Session, error) {
	m.record("GetPersistedSession")
	if m.GetPersistedSessionFunc != nil {
		return m.GetPersistedSessionFunc(ctx)
	}
	return nil, nil
}

func (m *MockAuthBackend) SubscribeAuthChanges(context.Context) (ports.AuthSubscription, error) {
	m.record("SubscribeAuthChanges")
	sub := NewSubscription()
	m.mu.Lock()
	m.subs = append(m.subs, sub)
	m.mu.Unlock()
	return sub, nil
}

func (m *MockAuthBackend) SignUp(ctx context.Context, email, password string) (*domainauth.Session, error) {
	m.record("SignUp")
	if m.SignUpFunc != nil {
		return m.SignUpFunc(ctx, email, password)
	}
	return nil, nil
}

func (m *MockAuthBackend) SignIn(ctx context.Context, email, password string) (*domainauth.Session, error) {
	m.record("SignIn")
	if m.SignInFunc != nil {
		return m.SignInFunc(ctx, email, password)
	}
	return nil, nil
}

func (m *MockAuthBackend) SignOut(ctx context.Context) error {
	m.record("SignOut")
	if m.SignOutFunc != nil {
		return m.SignOutFunc(ctx)
	}
	return nil
}

func (m *MockAuthBackend) RefreshSession(ctx context.Context) (*domainauth.Session, error) {
	m.record("RefreshSession")
	if m.RefreshSessionFunc != nil {
		return m.RefreshSessionFunc(ctx)
	}
	return nil, nil
}

func (m *MockAuthBackend) UpdatePassword(ctx context.Context, newPassword string) (*domainauth.Session, error) {
	m.record("UpdatePassword")
	if m.UpdatePasswordFunc != nil {
		return m.UpdatePasswordFunc(ctx, newPassword)
	}
	return nil, nil
}

func (m *MockAuthBackend) SendPasswordReset(ctx context.Context, email string) error {
	m.record("SendPasswordReset")
	if m.SendPasswordResetFunc != nil {
		return m.SendPasswordResetFunc(ctx, email)
	}
	return nil
}

func (m *MockAuthBackend) ResetPassword(ctx context.Context, token, newPassword string) error {
	m.record("ResetPassword")
	if m.ResetPasswordFunc != nil {
		return m.ResetPasswordFunc(ctx, token, newPassword)
	}
	return nil
}

// NewSession builds a session for a user with a one-hour expiry.
func NewSession(id, email string) *domainauth.Session {
	return &domainauth.Session{
		User:         domainauth.User{ID: id, Email: email},
		AccessToken:  "access-" + id,
		RefreshToken: "refresh-" + id,
		ExpiresAt:    time.Now().Add(time.Hour),
	}
}

type account struct {
	creds      ports.Credentials
	profile    domainauth.Profile
	resetHash  string
	resetUntil time.Time
}

// MemoryAccounts is an in-memory account and profile repository.
// Set Err to make every call fail with it.
type MemoryAccounts struct {
	Err error

	mu       sync.Mutex
	byID     map[string]*account
	byEmail  map[string]*account
	created  int
	profiles int
}

func NewMemoryAccounts() *MemoryAccounts {
	return &MemoryAccounts{byID: make(map[string]*account), byEmail: make(map[string]*account)}
}

func (m *MemoryAccounts) CreateAccount(
	_ context.Context,
	email, passwordHash string,
	role domainauth.Role,
) (*domainauth.Profile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}
	key := strings.ToLower(email)
	if _, ok := m.byEmail[key]; ok {
		return nil, apperrors.Conflict("An account with this email already exists")
	}
	now := time.Now().UTC()
	a := &account{
		creds:   ports.Credentials{UserID: uuid.NewString(), Email: email, PasswordHash: passwordHash},
		profile: domainauth.Profile{Email: email, Role: role, CreatedAt: now, UpdatedAt: now},
	}
	a.profile.ID = a.creds.UserID
	m.byID[a.creds.UserID] = a
	m.byEmail[key] = a
	m.created++
	p := a.profile
	return &p, nil
}

// Created returns how many accounts CreateAccount inserted.
func (m *MemoryAccounts) Created() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.created
}

func (m *MemoryAccounts) GetCredentials(_ context.Context, email string) (*ports.Credentials, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}
	a, ok := m.byEmail[strings.ToLower(email)]
	if !ok {
		return nil, ErrNotFound
	}
	c := a.creds
	return &c, nil
}

func (m *MemoryAccounts) UpdatePasswordHash(_ context.Context, userID, passwordHash string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	a, ok := m.byID[userID]
	if !ok {
		return ErrNotFound
	}
	a.creds.PasswordHash = passwordHash
	return nil
}

func (m *MemoryAccounts) SetResetToken(_ context.Context, userID, tokenHash string, expiresAt time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	a, ok := m.byID[userID]
	if !ok {
		return ErrNotFound
	}
	a.resetHash, a.resetUntil = tokenHash, expiresAt
	return nil
}

func (m *MemoryAccounts) ConsumeResetToken(_ context.Context, tokenHash string, now time.Time) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return "", m.Err
	}
	for id, a := range m.byID {
		if a.resetHash != "" && a.resetHash == tokenHash && now.Before(a.resetUntil) {
			a.resetHash, a.resetUntil = "", time.Time{}
			return id, nil
		}
	}
	return "", apperrors.Validation("Password reset link is invalid or has expired")
}

func (m *MemoryAccounts) GetByID(_ context.Context, id string) (*domainauth.Profile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}
	m.profiles++
	a, ok := m.byID[id]
	if !ok {
		return nil, ErrNotFound
	}
	p := a.profile
	return &p, nil
}

// ProfileReads returns how many times GetByID was called.
func (m *MemoryAccounts) ProfileReads() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.profiles
}

func (m *MemoryAccounts) GetByEmail(_ context.Context, email string) (*domainauth.Profile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}
	a, ok := m.byEmail[strings.ToLower(email)]
	if !ok {
		return nil, ErrNotFound
	}
	p := a.profile
	return &p, nil
}

func (m *MemoryAccounts) UpdateRole(_ context.Context, id string, role domainauth.Role) (*domainauth.Profile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}
	if !role.Valid() {
		return nil, apperrors.ValidationField("role", "Invalid role")
	}
	a, ok := m.byID[id]
	if !ok {
		return nil, ErrNotFound
	}
	a.profile.Role = role
	a.profile.UpdatedAt = time.Now().UTC()
	p := a.profile
	return &p, nil
}

func (m *MemoryAccounts) List(_ context.Context, limit, offset int) ([]*domainauth.Profile, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return nil, 0, m.Err
	}
	all := make([]*domainauth.Profile, 0, len(m.byID))
	for _, a := range m.byID {
		p := a.profile
		all = append(all, &p)
	}
	total := len(all)
	if offset >= total {
		return []*domainauth.Profile{}, total, nil
	}
	end := total
	if limit > 0 && offset+limit < end {
		end = offset + limit
	}
	return all[offset:end], total, nil
}

// StaticRoleMapper assigns Role to every email, or user when Role is empty.
// Overrides take precedence per lower-cased email.
type StaticRoleMapper struct {
	Role      domainauth.Role
	Overrides map[string]domainauth.Role
}

func (m StaticRoleMapper) Map(email string) domainauth.Role {
	if r, ok := m.Overrides[strings.ToLower(email)]; ok {
		return r
	}
	if m.Role == "" {
		return domainauth.RoleUser
	}
	return m.Role
}

// SentMail is one message captured by RecordingMailer.
type SentMail struct {
	To, Subject, Body string
}

// RecordingMailer captures messages instead of delivering them.
type RecordingMailer struct {
	Err error

	mu   sync.Mutex
	sent []SentMail
}

func (r *RecordingMailer) Send(_ context.Context, to, subject, body string) error {
	if r.Err != nil {
		return r.Err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sent = append(r.sent, SentMail{To: to, Subject: subject, Body: body})
	return nil
}

// Sent returns the captured messages.
func (r *RecordingMailer) Sent() []SentMail {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]SentMail(nil), r.sent...)
}
