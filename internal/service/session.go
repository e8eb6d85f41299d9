package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/singleflight"

	domainauth "github.com/target/bhajan-library/internal/domain/auth"
	"github.com/target/bhajan-library/internal/domain/model"
	apperrors "github.com/target/bhajan-library/internal/errors"
	"github.com/target/bhajan-library/internal/ports"
)

// SessionManagerOptions groups dependencies for SessionManager.
type SessionManagerOptions struct {
	Backend  ports.AuthBackend       // Required: auth surface bound to one client key
	Profiles ports.ProfileRepository // Required: role-bearing profiles
	Audit    *AuditRecorder          // Optional: records role changes
	Logger   *slog.Logger
	Metrics  Metrics
}

// SessionManager owns the auth state of one client. It is the only writer of that state;
// everything else reads snapshots through State.
type SessionManager struct {
	backend  ports.AuthBackend
	profiles ports.ProfileRepository
	deps     StoreDeps

	mu       sync.Mutex
	user     *domainauth.User
	session  *domainauth.Session
	profile  *domainauth.Profile
	inflight int
	lastErr  string

	// signedOut is set by SignOut and suppresses restoring a persisted session until the next
	// sign-in. A failed remote sign-out can leave that session behind.
	signedOut bool

	init          singleflight.Group
	bootstrapping atomic.Bool

	subMu        sync.Mutex
	sub          ports.AuthSubscription
	listenCancel context.CancelFunc
	listenDone   chan struct{}
	closed       bool
}

// NewSessionManager constructs a SessionManager with an empty, unauthenticated state.
func NewSessionManager(opts SessionManagerOptions) (*SessionManager, error) {
	if opts.Backend == nil {
		return nil, errors.New("AuthBackend is required")
	}
	if opts.Profiles == nil {
		return nil, errors.New("ProfileRepository is required")
	}
	m := &SessionManager{
		backend:  opts.Backend,
		profiles: opts.Profiles,
	}
	m.deps = StoreDeps{
		Actors:  m,
		Audit:   opts.Audit,
		Metrics: opts.Metrics,
		Logger:  opts.Logger,
	}.withDefaults("session_manager")
	return m, nil
}

// State returns a deep copy of the current auth state.
func (m *SessionManager) State() domainauth.State {
	m.mu.Lock()
	defer m.mu.Unlock()
	st := domainauth.State{Loading: m.inflight > 0, Error: m.lastErr}
	if m.user != nil {
		u := *m.user
		st.User = &u
	}
	if m.session != nil {
		s := *m.session
		st.Session = &s
	}
	if m.profile != nil {
		p := *m.profile
		if p.DisplayName != nil {
			name := *p.DisplayName
			p.DisplayName = &name
		}
		st.Profile = &p
	}
	return st
}

// Bootstrapping reports whether an InitializeAuth call is in flight.
func (m *SessionManager) Bootstrapping() bool { return m.bootstrapping.Load() }

func (m *SessionManager) begin() {
	m.mu.Lock()
	m.inflight++
	m.lastErr = ""
	m.mu.Unlock()
}

func (m *SessionManager) end(err error) {
	m.mu.Lock()
	if m.inflight > 0 {
		m.inflight--
	}
	if err != nil {
		m.lastErr = apperrors.Message(err)
	}
	m.mu.Unlock()
}

func (m *SessionManager) locked(fn func()) {
	m.mu.Lock()
	defer m.mu.Unlock()
	fn()
}

// adoptLocked replaces the session and user. A different user invalidates the profile.
func (m *SessionManager) adoptLocked(sess *domainauth.Session) {
	if sess == nil {
		m.clearLocked()
		return
	}
	s := *sess
	u := s.User
	if m.user == nil || m.user.ID != u.ID {
		m.profile = nil
	}
	m.session = &s
	m.user = &u
}

func (m *SessionManager) clearLocked() {
	m.user = nil
	m.session = nil
	m.profile = nil
}

func (m *SessionManager) currentUserID() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.user == nil {
		return ""
	}
	return m.user.ID
}

// InitializeAuth restores a persisted session and registers the auth-change subscription.
// Concurrent callers share one bootstrap. A user that is already loaded is never cleared here.
func (m *SessionManager) InitializeAuth(ctx context.Context) Result {
	v, _, _ := m.init.Do("init", func() (any, error) {
		m.bootstrapping.Store(true)
		defer m.bootstrapping.Store(false)
		return m.initialize(context.WithoutCancel(ctx)), nil
	})
	res, _ := v.(Result)
	return res
}

func (m *SessionManager) initialize(ctx context.Context) Result {
	start := time.Now()
	m.begin()

	err := m.restore(ctx)

	m.end(err)
	res := okResult(nil, PhasePrimaryDone)
	if err != nil {
		res = failResult(err)
	}
	m.deps.Metrics.ObserveMutation("auth.initialize", string(res.Phase), time.Since(start), err)
	return res
}

func (m *SessionManager) restore(ctx context.Context) error {
	var signedOut bool
	m.locked(func() { signedOut = m.signedOut })
	if signedOut {
		return m.subscribe(ctx)
	}
	sess, err := m.backend.GetPersistedSession(ctx)
	if err != nil {
		return apperrors.BackendFailure(err)
	}
	if sess != nil {
		m.locked(func() { m.adoptLocked(sess) })
		if err := m.fetchProfile(ctx); err != nil {
			return err
		}
	}
	return m.subscribe(ctx)
}

// subscribe registers the standing auth-change subscription once.
func (m *SessionManager) subscribe(ctx context.Context) error {
	m.subMu.Lock()
	defer m.subMu.Unlock()
	if m.sub != nil || m.closed {
		return nil
	}
	sub, err := m.backend.SubscribeAuthChanges(ctx)
	if err != nil {
		return apperrors.BackendFailure(err)
	}
	listenCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	m.sub = sub
	m.listenCancel = cancel
	m.listenDone = make(chan struct{})
	go m.listen(listenCtx, sub, m.listenDone)
	return nil
}

// listen applies events in delivery order until the subscription closes.
func (m *SessionManager) listen(ctx context.Context, sub ports.AuthSubscription, done chan struct{}) {
	defer close(done)
	for ev := range sub.Events() {
		m.HandleAuthEvent(ctx, ev)
	}
}

// HandleAuthEvent applies one auth-change notification to the state.
func (m *SessionManager) HandleAuthEvent(ctx context.Context, ev domainauth.Event) {
	switch ev.Kind {
	case domainauth.EventSignedOut:
		m.locked(m.clearLocked)
	case domainauth.EventSignedIn, domainauth.EventTokenRefreshed:
		m.locked(func() {
			if ev.Kind == domainauth.EventSignedIn {
				m.signedOut = false
			} else if m.signedOut {
				return
			}
			m.adoptLocked(ev.Session)
		})
		if m.currentUserID() != "" {
			if err := m.fetchProfile(ctx); err != nil {
				m.deps.Logger.WarnContext(ctx, "profile refresh after auth event failed", "event", ev.Kind, "error", err)
			}
		}
	case domainauth.EventUserUpdated:
		m.locked(func() {
			if !m.signedOut {
				m.adoptLocked(ev.Session)
			}
		})
	default:
		m.deps.Logger.DebugContext(ctx, "ignoring auth event", "event", ev.Kind)
	}
}

// Close tears the subscription down and waits for the listener to exit.
func (m *SessionManager) Close() error {
	m.subMu.Lock()
	m.closed = true
	sub, cancel, done := m.sub, m.listenCancel, m.listenDone
	m.sub, m.listenCancel, m.listenDone = nil, nil, nil
	m.subMu.Unlock()

	if sub == nil {
		return nil
	}
	cancel()
	err := sub.Close()
	<-done
	return err
}

// FetchUserProfile loads the profile of the current user. It does nothing without a user and
// keeps the previous profile when the lookup fails.
func (m *SessionManager) FetchUserProfile(ctx context.Context) Result {
	m.begin()
	err := m.fetchProfile(ctx)
	m.end(err)
	if err != nil {
		return failResult(err)
	}
	return okResult(m.State().Profile, PhasePrimaryDone)
}

func (m *SessionManager) fetchProfile(ctx context.Context) error {
	uid := m.currentUserID()
	if uid == "" {
		return nil
	}
	p, err := m.profiles.GetByID(ctx, uid)
	if err != nil {
		err = apperrors.BackendFailure(err)
		m.locked(func() { m.lastErr = apperrors.Message(err) })
		return err
	}
	m.locked(func() {
		// The user may have changed while the lookup was in flight.
		if m.user != nil && m.user.ID == uid {
			m.profile = p
		}
	})
	return nil
}

// SignUp registers an account. The backend persists the new session and publishes signed_in;
// this manager adopts it when the subscription delivers that event, not before returning.
func (m *SessionManager) SignUp(ctx context.Context, email, password string) Result {
	return runMutation(ctx, m.deps, m, mutation[*domainauth.Session]{
		op:       "auth.sign_up",
		public:   true,
		validate: func() error { return validateCredentials(email, password) },
		primary: func(ctx context.Context, _ Actor) (*domainauth.Session, error) {
			return m.backend.SignUp(ctx, email, password)
		},
		apply: func(*domainauth.Session) { m.signedOut = false },
	})
}

// SignIn authenticates and adopts the new session before returning, so IsAuthenticated is
// true as soon as SignIn succeeds.
func (m *SessionManager) SignIn(ctx context.Context, email, password string) Result {
	res := runMutation(ctx, m.deps, m, mutation[*domainauth.Session]{
		op:       "auth.sign_in",
		public:   true,
		validate: func() error { return validateCredentials(email, password) },
		primary: func(ctx context.Context, _ Actor) (*domainauth.Session, error) {
			sess, err := m.backend.SignIn(ctx, email, password)
			if err == nil && sess == nil {
				err = apperrors.NotAuthenticated("Sign in returned no session")
			}
			return sess, err
		},
		apply: func(sess *domainauth.Session) {
			m.signedOut = false
			m.adoptLocked(sess)
		},
	})
	if !res.Success {
		return res
	}
	m.begin()
	err := m.fetchProfile(ctx)
	m.end(err)
	res.Data = m.State()
	return res
}

// SignOut clears the local state first and then signs out remotely. It always succeeds; a
// remote failure is reported in Error. Until the next sign-in, InitializeAuth does not restore
// a session the backend failed to forget.
func (m *SessionManager) SignOut(ctx context.Context) Result {
	start := time.Now()
	m.begin()
	m.locked(func() {
		m.clearLocked()
		m.signedOut = true
	})

	err := m.backend.SignOut(ctx)
	if err != nil {
		err = apperrors.BackendFailure(err)
		m.deps.Logger.WarnContext(ctx, "remote sign out failed", "error", err)
	}
	m.end(err)
	m.deps.Metrics.ObserveMutation("auth.sign_out", string(PhasePrimaryDone), time.Since(start), err)

	res := okResult(nil, PhasePrimaryDone)
	if err != nil {
		res.Error = apperrors.Message(err)
	}
	return res
}

// RefreshSession rotates the tokens of the signed-in user and adopts the new session. Data is
// the resulting State, which carries no tokens.
func (m *SessionManager) RefreshSession(ctx context.Context) Result {
	res := runMutation(ctx, m.deps, m, mutation[*domainauth.Session]{
		op: "auth.refresh",
		primary: func(ctx context.Context, actor Actor) (*domainauth.Session, error) {
			sess, err := m.backend.RefreshSession(ctx)
			if err == nil && (sess == nil || sess.User.ID != actor.UserID) {
				err = apperrors.NotAuthenticated("Session expired")
			}
			return sess, err
		},
		apply: func(sess *domainauth.Session) { m.adoptLocked(sess) },
	})
	if res.Success {
		res.Data = m.State()
	}
	return res
}

// UpdateUserRole changes the role of userID. Only admins may call it. The manager refreshes
// its own profile when the target is the current user.
func (m *SessionManager) UpdateUserRole(ctx context.Context, userID string, role domainauth.Role) Result {
	res := runMutation(ctx, m.deps, m, mutation[*domainauth.Profile]{
		op:   "auth.update_role",
		need: domainauth.RoleAdmin,
		validate: func() error {
			if strings.TrimSpace(userID) == "" {
				return apperrors.ValidationField("user_id", "user_id is required")
			}
			if !role.Valid() {
				return apperrors.ValidationField("role", "role must be user, editor or admin")
			}
			return nil
		},
		primary: func(ctx context.Context, _ Actor) (*domainauth.Profile, error) {
			return m.profiles.UpdateRole(ctx, userID, role)
		},
		apply: func(p *domainauth.Profile) {
			if m.user != nil && m.user.ID == p.ID {
				m.profile = p
			}
		},
		audit: func(_ Actor, p *domainauth.Profile) *auditSpec {
			return &auditSpec{
				action:     model.AuditRoleChange,
				entityType: model.EntityUserProfile,
				entityID:   p.ID,
				changes:    map[string]any{"role": p.Role},
			}
		},
	})
	return res
}

// SendPasswordReset asks the backend to mail a reset link. Unknown addresses succeed silently.
func (m *SessionManager) SendPasswordReset(ctx context.Context, email string) Result {
	return runMutation(ctx, m.deps, m, mutation[struct{}]{
		op:     "auth.password_reset",
		public: true,
		validate: func() error {
			if strings.TrimSpace(email) == "" {
				return apperrors.ValidationField("email", "email is required")
			}
			return nil
		},
		primary: func(ctx context.Context, _ Actor) (struct{}, error) {
			return struct{}{}, m.backend.SendPasswordReset(ctx, email)
		},
	})
}

// ResetPassword consumes a reset token and sets a new password.
func (m *SessionManager) ResetPassword(ctx context.Context, token, password string) Result {
	return runMutation(ctx, m.deps, m, mutation[struct{}]{
		op:     "auth.password_reset_confirm",
		public: true,
		validate: func() error {
			if strings.TrimSpace(token) == "" {
				return apperrors.ValidationField("token", "token is required")
			}
			return validatePassword(password)
		},
		primary: func(ctx context.Context, _ Actor) (struct{}, error) {
			return struct{}{}, m.backend.ResetPassword(ctx, token, password)
		},
	})
}

// UpdatePassword changes the password of the signed-in user and adopts the rotated session.
func (m *SessionManager) UpdatePassword(ctx context.Context, password string) Result {
	return runMutation(ctx, m.deps, m, mutation[*domainauth.Session]{
		op:       "auth.update_password",
		validate: func() error { return validatePassword(password) },
		primary: func(ctx context.Context, _ Actor) (*domainauth.Session, error) {
			return m.backend.UpdatePassword(ctx, password)
		},
		apply: func(sess *domainauth.Session) {
			if sess != nil {
				m.adoptLocked(sess)
			}
		},
	})
}

func validateCredentials(email, password string) error {
	if strings.TrimSpace(email) == "" {
		return apperrors.ValidationField("email", "email is required")
	}
	if password == "" {
		return apperrors.ValidationField("password", "password is required")
	}
	return nil
}

func validatePassword(password string) error {
	if len(password) < 8 {
		return apperrors.ValidationField("password", "password must be at least 8 characters")
	}
	return nil
}
