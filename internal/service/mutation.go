package service

import (
	"context"
	"log/slog"
	"sync"
	"time"

	domainauth "github.com/target/bhajan-library/internal/domain/auth"
	"github.com/target/bhajan-library/internal/domain/model"
	apperrors "github.com/target/bhajan-library/internal/errors"
)

// Phase marks how far a store operation got.
type Phase string

const (
	// PhaseFailed means the primary backend call (or a precondition) failed; nothing changed locally.
	PhaseFailed Phase = "failed"
	// PhasePrimaryDone means the backend call succeeded and the local mirror was updated.
	// Operations that are not audited end here, as do audited ones whose entry was dropped.
	PhasePrimaryDone Phase = "primary_done"
	// PhaseAudited means the audit entry was appended.
	PhaseAudited Phase = "audited"
	// PhaseAuditQueued means the audit append failed and the entry waits in the retry queue.
	PhaseAuditQueued Phase = "audit_queued"
)

// Result is the uniform outcome of a session or store operation. Operations never return raw
// errors past this boundary.
type Result struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
	Code    string `json:"code,omitempty"`
	Data    any    `json:"data,omitempty"`
	Phase   Phase  `json:"phase,omitempty"`

	err error
}

// Err returns the classified error behind a failed Result, or nil.
func (r Result) Err() error { return r.err }

func okResult(data any, phase Phase) Result {
	return Result{Success: true, Data: data, Phase: phase}
}

func failResult(err error) Result {
	return Result{
		Success: false,
		Error:   apperrors.Message(err),
		Code:    string(apperrors.GetCode(err)),
		Phase:   PhaseFailed,
		err:     err,
	}
}

// Metrics records operation outcomes. *metrics.Metrics satisfies it.
type Metrics interface {
	ObserveMutation(op, phase string, elapsed time.Duration, err error)
	ObserveGuard(route, outcome string)
	ObserveAudit(outcome string)
	SetAuditQueueDepth(n int64)
}

type noopMetrics struct{}

func (noopMetrics) ObserveMutation(string, string, time.Duration, error) {}
func (noopMetrics) ObserveGuard(string, string)                          {}
func (noopMetrics) ObserveAudit(string)                                  {}
func (noopMetrics) SetAuditQueueDepth(int64)                             {}

func metricsOrNoop(m Metrics) Metrics {
	if m == nil {
		return noopMetrics{}
	}
	return m
}

// Actor is the identity an operation is attributed to.
type Actor struct {
	UserID string
	Email  string
	Role   domainauth.Role
}

// Anonymous reports whether no user is signed in.
func (a Actor) Anonymous() bool { return a.UserID == "" }

// IsAdmin reports whether the actor holds the admin role.
func (a Actor) IsAdmin() bool { return a.Role == domainauth.RoleAdmin }

// ActorSource exposes the current auth state. *SessionManager satisfies it.
type ActorSource interface {
	State() domainauth.State
}

func currentActor(src ActorSource) Actor {
	if src == nil {
		return Actor{}
	}
	st := src.State()
	if st.User == nil {
		return Actor{}
	}
	return Actor{UserID: st.User.ID, Email: st.User.Email, Role: st.UserRole()}
}

// requireActor resolves the signed-in actor and checks it holds at least need.
// An empty need only requires a signed-in user.
func requireActor(src ActorSource, need domainauth.Role) (Actor, error) {
	actor := currentActor(src)
	if actor.Anonymous() {
		return Actor{}, apperrors.NotAuthenticated("")
	}
	if need != "" && !actor.Role.AtLeast(need) {
		return Actor{}, apperrors.NotAuthorized("")
	}
	return actor, nil
}

// tracker is the loading/error bookkeeping of a store.
type tracker interface {
	begin()
	end(err error)
	locked(fn func())
}

// storeState tracks in-flight operations and the last error of one store. The same mutex
// guards the store's local mirror.
type storeState struct {
	mu       sync.Mutex
	inflight int
	lastErr  string
}

func (s *storeState) begin() {
	s.mu.Lock()
	s.inflight++
	s.lastErr = ""
	s.mu.Unlock()
}

func (s *storeState) end(err error) {
	s.mu.Lock()
	if s.inflight > 0 {
		s.inflight--
	}
	if err != nil {
		s.lastErr = apperrors.Message(err)
	}
	s.mu.Unlock()
}

func (s *storeState) locked(fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn()
}

// Loading reports whether an operation is in flight.
func (s *storeState) Loading() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.inflight > 0
}

// LastError returns the message of the last failed operation, or "".
func (s *storeState) LastError() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastErr
}

// StoreDeps are the collaborators every domain store shares.
type StoreDeps struct {
	Actors  ActorSource
	Audit   *AuditRecorder
	Metrics Metrics
	Logger  *slog.Logger
}

func (d StoreDeps) withDefaults(component string) StoreDeps {
	if d.Logger == nil {
		d.Logger = slog.Default()
	}
	d.Logger = d.Logger.With("component", component)
	d.Metrics = metricsOrNoop(d.Metrics)
	return d
}

// auditSpec describes the entry appended after a successful primary phase.
type auditSpec struct {
	action     model.AuditAction
	entityType string
	entityID   string
	changes    any
}

// mutation is one store operation. primary talks to the backend; apply updates the local
// mirror under the store lock; audit names the entry to record, or nil.
type mutation[T any] struct {
	op       string
	public   bool
	need     domainauth.Role
	validate func() error
	primary  func(ctx context.Context, actor Actor) (T, error)
	apply    func(v T)
	audit    func(actor Actor, v T) *auditSpec
}

// runMutation executes m in the fixed order: resolve actor, validate, primary, apply, audit.
// A failure before apply leaves the mirror untouched. An audit failure never fails the
// operation.
func runMutation[T any](ctx context.Context, deps StoreDeps, st tracker, m mutation[T]) Result {
	start := time.Now()
	st.begin()

	res := execMutation(ctx, deps, st, m)

	st.end(res.err)
	deps.Metrics.ObserveMutation(m.op, string(res.Phase), time.Since(start), res.err)
	return res
}

func execMutation[T any](ctx context.Context, deps StoreDeps, st tracker, m mutation[T]) Result {
	var (
		actor Actor
		err   error
	)
	if m.public {
		actor = currentActor(deps.Actors)
	} else if actor, err = requireActor(deps.Actors, m.need); err != nil {
		return failResult(err)
	}

	if m.validate != nil {
		if verr := m.validate(); verr != nil {
			if apperrors.GetCode(verr) == "" {
				verr = apperrors.Validation(verr.Error())
			}
			return failResult(verr)
		}
	}

	v, err := m.primary(ctx, actor)
	if err != nil {
		return failResult(apperrors.BackendFailure(err))
	}

	if m.apply != nil {
		st.locked(func() { m.apply(v) })
	}

	phase := PhasePrimaryDone
	if m.audit != nil {
		if spec := m.audit(actor, v); spec != nil {
			phase = recordAudit(ctx, deps, actor, *spec)
		}
	}
	return okResult(v, phase)
}

func recordAudit(ctx context.Context, deps StoreDeps, actor Actor, spec auditSpec) Phase {
	if deps.Audit == nil {
		return PhasePrimaryDone
	}
	entry, err := model.NewAuditEntry(actor.UserID, spec.action, spec.entityType, spec.entityID, spec.changes)
	if err != nil {
		deps.Logger.WarnContext(ctx, "audit entry rejected",
			"action", spec.action, "entity_type", spec.entityType, "entity_id", spec.entityID, "error", err)
		return PhasePrimaryDone
	}
	if actor.Email != "" {
		email := actor.Email
		entry.UserEmail = &email
	}
	switch deps.Audit.Record(ctx, entry) {
	case AuditRecorded:
		return PhaseAudited
	case AuditQueued:
		return PhaseAuditQueued
	default:
		return PhasePrimaryDone
	}
}

// mergeByID replaces the element with the same id or prepends v when absent.
func mergeByID[T any](items []T, v T, id func(T) string) []T {
	key := id(v)
	for i := range items {
		if id(items[i]) == key {
			out := append([]T(nil), items...)
			out[i] = v
			return out
		}
	}
	return append([]T{v}, items...)
}

// removeByID filters out the element with the given id.
func removeByID[T any](items []T, key string, id func(T) string) []T {
	out := make([]T, 0, len(items))
	for _, it := range items {
		if id(it) != key {
			out = append(out, it)
		}
	}
	return out
}
