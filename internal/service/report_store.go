package service

import (
	"context"
	"errors"
	"time"

	domainauth "github.com/target/bhajan-library/internal/domain/auth"
	"github.com/target/bhajan-library/internal/domain/model"
	"github.com/target/bhajan-library/internal/ports"
)

// ReportStoreOptions groups dependencies for ReportStore.
type ReportStoreOptions struct {
	Repo ports.ReportRepository // Required
	Deps StoreDeps
}

// ReportStore mirrors content reports: the moderation list for admins and the reports the
// signed-in user filed.
type ReportStore struct {
	storeState
	repo ports.ReportRepository
	deps StoreDeps
	now  func() time.Time

	reports     []*model.Report
	userReports []*model.Report
	total       int
}

// ReportSnapshot is a copy of the store's mirror.
type ReportSnapshot struct {
	Reports     []*model.Report `json:"reports"`
	UserReports []*model.Report `json:"user_reports"`
	TotalCount  int             `json:"total_count"`
	Loading     bool            `json:"loading"`
	Error       string          `json:"error,omitempty"`
}

// ReportPage is one page of a report listing.
type ReportPage struct {
	Reports    []*model.Report `json:"reports"`
	TotalCount int             `json:"total_count"`
}

// NewReportStore constructs a ReportStore.
func NewReportStore(opts ReportStoreOptions) (*ReportStore, error) {
	if opts.Repo == nil {
		return nil, errors.New("ReportRepository is required")
	}
	return &ReportStore{repo: opts.Repo, deps: opts.Deps.withDefaults("report_store"), now: time.Now}, nil
}

// Snapshot returns a copy of the mirror.
func (s *ReportStore) Snapshot() ReportSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return ReportSnapshot{
		Reports:     append([]*model.Report(nil), s.reports...),
		UserReports: append([]*model.Report(nil), s.userReports...),
		TotalCount:  s.total,
		Loading:     s.inflight > 0,
		Error:       s.lastErr,
	}
}

func reportID(r *model.Report) string { return r.ID }

// FetchAll loads the moderation list. Admin only.
func (s *ReportStore) FetchAll(ctx context.Context, opts model.ReportListOptions) Result {
	return runMutation(ctx, s.deps, s, mutation[ReportPage]{
		op:       "report.list",
		need:     domainauth.RoleAdmin,
		validate: opts.Normalize,
		primary: func(ctx context.Context, _ Actor) (ReportPage, error) {
			list, total, err := s.repo.List(ctx, opts)
			return ReportPage{Reports: list, TotalCount: total}, err
		},
		apply: func(p ReportPage) { s.reports, s.total = p.Reports, p.TotalCount },
	})
}

// FetchMine loads the reports filed by the signed-in user.
func (s *ReportStore) FetchMine(ctx context.Context) Result {
	return runMutation(ctx, s.deps, s, mutation[ReportPage]{
		op: "report.list_mine",
		primary: func(ctx context.Context, actor Actor) (ReportPage, error) {
			owner := actor.UserID
			list, total, err := s.repo.List(ctx, model.ReportListOptions{ReportedBy: &owner, Limit: model.MaxListLimit})
			return ReportPage{Reports: list, TotalCount: total}, err
		},
		apply: func(p ReportPage) { s.userReports = p.Reports },
	})
}

// FetchForBhajan loads every report against one bhajan. Admin only.
func (s *ReportStore) FetchForBhajan(ctx context.Context, bhajanID string) Result {
	return runMutation(ctx, s.deps, s, mutation[ReportPage]{
		op:       "report.list_for_bhajan",
		need:     domainauth.RoleAdmin,
		validate: requireID("bhajan_id", bhajanID),
		primary: func(ctx context.Context, _ Actor) (ReportPage, error) {
			list, total, err := s.repo.List(ctx, model.ReportListOptions{BhajanID: &bhajanID, Limit: model.MaxListLimit})
			return ReportPage{Reports: list, TotalCount: total}, err
		},
		apply: func(p ReportPage) { s.reports, s.total = p.Reports, p.TotalCount },
	})
}

// Stats counts reports per status. Admin only.
func (s *ReportStore) Stats(ctx context.Context) Result {
	return runMutation(ctx, s.deps, s, mutation[*model.ReportStats]{
		op:   "report.stats",
		need: domainauth.RoleAdmin,
		primary: func(ctx context.Context, _ Actor) (*model.ReportStats, error) {
			return s.repo.Stats(ctx)
		},
	})
}

// Create files a report. Any signed-in user may report.
func (s *ReportStore) Create(ctx context.Context, req model.CreateReportRequest) Result {
	return runMutation(ctx, s.deps, s, mutation[*model.Report]{
		op:       "report.create",
		validate: req.Validate,
		primary: func(ctx context.Context, actor Actor) (*model.Report, error) {
			return s.repo.Create(ctx, req, actor.UserID)
		},
		apply: func(r *model.Report) {
			s.userReports = append([]*model.Report{r}, s.userReports...)
		},
		audit: func(_ Actor, r *model.Report) *auditSpec {
			return &auditSpec{
				action:     model.AuditCreateReport,
				entityType: model.EntityReport,
				entityID:   r.ID,
				changes:    map[string]any{"bhajan_id": r.BhajanID, "issue_type": r.IssueType},
			}
		},
	})
}

// MarkUnderReview claims a report for moderation. Admin only.
func (s *ReportStore) MarkUnderReview(ctx context.Context, id string) Result {
	return s.moderate(ctx, id, model.ReportStatusUnderReview, nil, model.AuditMarkUnderReview)
}

// Resolve closes a report as fixed. Admin only.
func (s *ReportStore) Resolve(ctx context.Context, id, comment string) Result {
	return s.moderate(ctx, id, model.ReportStatusResolved, &comment, model.AuditResolveReport)
}

// Dismiss closes a report without action. Admin only.
func (s *ReportStore) Dismiss(ctx context.Context, id, comment string) Result {
	return s.moderate(ctx, id, model.ReportStatusDismissed, &comment, model.AuditDismissReport)
}

func (s *ReportStore) moderate(
	ctx context.Context,
	id string,
	status model.ReportStatus,
	comment *string,
	action model.AuditAction,
) Result {
	return runMutation(ctx, s.deps, s, mutation[*model.Report]{
		op:       "report." + string(action),
		need:     domainauth.RoleAdmin,
		validate: requireID("id", id),
		primary: func(ctx context.Context, actor Actor) (*model.Report, error) {
			return s.repo.UpdateStatus(ctx, id, model.ReportStatusUpdate{
				Status:     status,
				ResolvedBy: actor.UserID,
				Comment:    comment,
				ResolvedAt: s.now().UTC(),
			})
		},
		apply: func(r *model.Report) {
			s.reports = replaceIfPresent(s.reports, r, reportID)
			s.userReports = replaceIfPresent(s.userReports, r, reportID)
		},
		audit: func(_ Actor, r *model.Report) *auditSpec {
			spec := &auditSpec{action: action, entityType: model.EntityReport, entityID: r.ID}
			if comment != nil {
				spec.changes = map[string]any{"resolution_comment": *comment}
			}
			return spec
		},
	})
}

// replaceIfPresent swaps in v for the element with the same id and leaves the slice alone
// otherwise.
func replaceIfPresent[T any](items []T, v T, id func(T) string) []T {
	key := id(v)
	for i := range items {
		if id(items[i]) == key {
			out := append([]T(nil), items...)
			out[i] = v
			return out
		}
	}
	return items
}
