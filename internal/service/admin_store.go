package service

import (
	"context"
	"errors"

	"golang.org/x/sync/errgroup"

	domainauth "github.com/target/bhajan-library/internal/domain/auth"
	"github.com/target/bhajan-library/internal/domain/model"
	apperrors "github.com/target/bhajan-library/internal/errors"
	"github.com/target/bhajan-library/internal/ports"
)

const defaultRecentActivityLimit = 20

// AdminRepos are the repositories behind the admin dashboard.
type AdminRepos struct {
	Stats    ports.StatsRepository
	Bhajans  ports.BhajanRepository
	Reports  ports.ReportRepository
	Profiles ports.ProfileRepository
}

// RoleUpdater changes user roles. *SessionManager satisfies it.
type RoleUpdater interface {
	UpdateUserRole(ctx context.Context, userID string, role domainauth.Role) Result
}

// AdminStoreOptions groups dependencies for AdminStore.
type AdminStoreOptions struct {
	Repos AdminRepos  // Required
	Roles RoleUpdater // Required
	Deps  StoreDeps
}

// AdminStore serves the admin dashboard. Every operation requires the admin role.
type AdminStore struct {
	storeState
	repos AdminRepos
	roles RoleUpdater
	deps  StoreDeps

	dashboard *model.Dashboard
	users     []*domainauth.Profile
}

// UserPage is one page of the user listing.
type UserPage struct {
	Users      []*domainauth.Profile `json:"users"`
	TotalCount int                   `json:"total_count"`
}

// AuditPage is one page of the audit log.
type AuditPage struct {
	Entries    []*model.AuditEntry `json:"entries"`
	TotalCount int                 `json:"total_count"`
}

// NewAdminStore constructs an AdminStore.
func NewAdminStore(opts AdminStoreOptions) (*AdminStore, error) {
	r := opts.Repos
	if r.Stats == nil || r.Bhajans == nil || r.Reports == nil || r.Profiles == nil {
		return nil, errors.New("stats, bhajan, report and profile repositories are required")
	}
	if opts.Roles == nil {
		return nil, errors.New("RoleUpdater is required")
	}
	return &AdminStore{repos: r, roles: opts.Roles, deps: opts.Deps.withDefaults("admin_store")}, nil
}

// AdminSnapshot is a copy of the store's mirror.
type AdminSnapshot struct {
	Dashboard *model.Dashboard      `json:"dashboard,omitempty"`
	Users     []*domainauth.Profile `json:"users"`
	Loading   bool                  `json:"loading"`
	Error     string                `json:"error,omitempty"`
}

// Snapshot returns a copy of the mirror.
func (s *AdminStore) Snapshot() AdminSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return AdminSnapshot{
		Dashboard: s.dashboard,
		Users:     append([]*domainauth.Profile(nil), s.users...),
		Loading:   s.inflight > 0,
		Error:     s.lastErr,
	}
}

// Dashboard loads the overview counters and the moderation backlog concurrently.
func (s *AdminStore) Dashboard(ctx context.Context) Result {
	return runMutation(ctx, s.deps, s, mutation[*model.Dashboard]{
		op:   "admin.dashboard",
		need: domainauth.RoleAdmin,
		primary: func(ctx context.Context, _ Actor) (*model.Dashboard, error) {
			var (
				out     model.Dashboard
				stats   *model.DashboardStats
				reports *model.ReportStats
			)
			g, gctx := errgroup.WithContext(ctx)
			g.Go(func() error {
				var err error
				stats, err = s.repos.Stats.Dashboard(gctx)
				return err
			})
			g.Go(func() error {
				n, err := s.repos.Bhajans.CountByStatus(gctx, model.BhajanStatusPendingReview)
				out.PendingReviews = int64(n)
				return err
			})
			g.Go(func() error {
				var err error
				reports, err = s.repos.Reports.Stats(gctx)
				return err
			})
			if err := g.Wait(); err != nil {
				return nil, err
			}
			out.Stats = *stats
			out.OpenReports = reports.Open
			return &out, nil
		},
		apply: func(d *model.Dashboard) { s.dashboard = d },
	})
}

// Users lists user profiles.
func (s *AdminStore) Users(ctx context.Context, limit, offset int) Result {
	return runMutation(ctx, s.deps, s, mutation[UserPage]{
		op:   "admin.users",
		need: domainauth.RoleAdmin,
		primary: func(ctx context.Context, _ Actor) (UserPage, error) {
			users, total, err := s.repos.Profiles.List(ctx, limit, offset)
			return UserPage{Users: users, TotalCount: total}, err
		},
		apply: func(p UserPage) { s.users = p.Users },
	})
}

// RecentActivity returns the latest audit entries. limit defaults to 20.
func (s *AdminStore) RecentActivity(ctx context.Context, limit int) Result {
	if limit <= 0 {
		limit = defaultRecentActivityLimit
	}
	return runMutation(ctx, s.deps, s, mutation[[]*model.AuditEntry]{
		op:       "admin.activity",
		need:     domainauth.RoleAdmin,
		validate: s.requireAudit,
		primary: func(ctx context.Context, _ Actor) ([]*model.AuditEntry, error) {
			return s.deps.Audit.Recent(ctx, limit)
		},
	})
}

// AuditLog queries the audit log.
func (s *AdminStore) AuditLog(ctx context.Context, opts model.AuditListOptions) Result {
	return runMutation(ctx, s.deps, s, mutation[AuditPage]{
		op:       "admin.audit",
		need:     domainauth.RoleAdmin,
		validate: s.requireAudit,
		primary: func(ctx context.Context, _ Actor) (AuditPage, error) {
			entries, total, err := s.deps.Audit.List(ctx, opts)
			return AuditPage{Entries: entries, TotalCount: total}, err
		},
	})
}

// EntityHistory returns every audit entry of one entity, newest first.
func (s *AdminStore) EntityHistory(ctx context.Context, entityType, entityID string) Result {
	return runMutation(ctx, s.deps, s, mutation[[]*model.AuditEntry]{
		op:   "admin.entity_history",
		need: domainauth.RoleAdmin,
		validate: func() error {
			if err := s.requireAudit(); err != nil {
				return err
			}
			if err := requireID("entity_type", entityType)(); err != nil {
				return err
			}
			return requireID("entity_id", entityID)()
		},
		primary: func(ctx context.Context, _ Actor) ([]*model.AuditEntry, error) {
			return s.deps.Audit.ForEntity(ctx, entityType, entityID)
		},
	})
}

// UserActivity returns the latest audit entries written by userID.
func (s *AdminStore) UserActivity(ctx context.Context, userID string) Result {
	return runMutation(ctx, s.deps, s, mutation[[]*model.AuditEntry]{
		op:   "admin.user_activity",
		need: domainauth.RoleAdmin,
		validate: func() error {
			if err := s.requireAudit(); err != nil {
				return err
			}
			return requireID("user_id", userID)()
		},
		primary: func(ctx context.Context, _ Actor) ([]*model.AuditEntry, error) {
			return s.deps.Audit.ForUser(ctx, userID)
		},
	})
}

func (s *AdminStore) requireAudit() error {
	if s.deps.Audit == nil {
		return apperrors.Internal("audit log is not configured")
	}
	return nil
}

// UpdateUserRole changes a user's role and refreshes the held user list.
func (s *AdminStore) UpdateUserRole(ctx context.Context, userID string, role domainauth.Role) Result {
	res := s.roles.UpdateUserRole(ctx, userID, role)
	if p, ok := res.Data.(*domainauth.Profile); ok && res.Success {
		s.locked(func() {
			s.users = replaceIfPresent(s.users, p, func(p *domainauth.Profile) string { return p.ID })
		})
	}
	return res
}
