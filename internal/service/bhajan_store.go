package service

import (
	"context"
	"errors"
	"strings"
	"time"

	domainauth "github.com/target/bhajan-library/internal/domain/auth"
	"github.com/target/bhajan-library/internal/domain/model"
	apperrors "github.com/target/bhajan-library/internal/errors"
	"github.com/target/bhajan-library/internal/ports"
)

var errBhajanHidden = apperrors.NotFound("Bhajan not found")

// BhajanStoreOptions groups dependencies for BhajanStore.
type BhajanStoreOptions struct {
	Repo ports.BhajanRepository // Required
	Deps StoreDeps
}

// BhajanStore mirrors the bhajans a client has loaded.
type BhajanStore struct {
	storeState
	repo ports.BhajanRepository
	deps StoreDeps
	now  func() time.Time

	bhajans []*model.Bhajan
	current *model.Bhajan
	total   int
}

// BhajanSnapshot is a copy of the store's mirror.
type BhajanSnapshot struct {
	Bhajans    []*model.Bhajan `json:"bhajans"`
	Current    *model.Bhajan   `json:"current,omitempty"`
	TotalCount int             `json:"total_count"`
	Loading    bool            `json:"loading"`
	Error      string          `json:"error,omitempty"`
}

// BhajanPage is one page of a listing.
type BhajanPage struct {
	Bhajans    []*model.Bhajan `json:"bhajans"`
	TotalCount int             `json:"total_count"`
}

// NewBhajanStore constructs a BhajanStore.
func NewBhajanStore(opts BhajanStoreOptions) (*BhajanStore, error) {
	if opts.Repo == nil {
		return nil, errors.New("BhajanRepository is required")
	}
	return &BhajanStore{
		repo: opts.Repo,
		deps: opts.Deps.withDefaults("bhajan_store"),
		now:  time.Now,
	}, nil
}

// Snapshot returns a copy of the mirror.
func (s *BhajanStore) Snapshot() BhajanSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return BhajanSnapshot{
		Bhajans:    append([]*model.Bhajan(nil), s.bhajans...),
		Current:    s.current,
		TotalCount: s.total,
		Loading:    s.inflight > 0,
		Error:      s.lastErr,
	}
}

func bhajanID(b *model.Bhajan) string { return b.ID }

// visibleTo emulates row-level visibility: admins see everything, everyone else sees approved
// bhajans plus their own.
func visibleTo(b *model.Bhajan, actor Actor) bool {
	return b.Status == model.BhajanStatusApproved || actor.IsAdmin() ||
		(!actor.Anonymous() && b.CreatedBy == actor.UserID)
}

// scopeListOptions narrows a listing to what the actor may see.
func scopeListOptions(opts model.BhajanListOptions, actor Actor) model.BhajanListOptions {
	if actor.IsAdmin() {
		return opts
	}
	approved := model.BhajanStatusApproved
	if opts.Status == nil || *opts.Status == approved {
		opts.Status = &approved
		return opts
	}
	if actor.Anonymous() {
		opts.Status = &approved
		return opts
	}
	owner := actor.UserID
	opts.CreatedBy = &owner
	return opts
}

// FetchBhajans loads one page matching opts into the mirror.
func (s *BhajanStore) FetchBhajans(ctx context.Context, opts model.BhajanListOptions) Result {
	return runMutation(ctx, s.deps, s, mutation[BhajanPage]{
		op:       "bhajan.list",
		public:   true,
		validate: opts.Normalize,
		primary: func(ctx context.Context, actor Actor) (BhajanPage, error) {
			list, total, err := s.repo.List(ctx, scopeListOptions(opts, actor))
			return BhajanPage{Bhajans: list, TotalCount: total}, err
		},
		apply: func(p BhajanPage) {
			s.bhajans, s.total = p.Bhajans, p.TotalCount
		},
	})
}

// FetchBhajan loads one bhajan into Current.
func (s *BhajanStore) FetchBhajan(ctx context.Context, id string) Result {
	return runMutation(ctx, s.deps, s, mutation[*model.Bhajan]{
		op:       "bhajan.get",
		public:   true,
		validate: requireID("id", id),
		primary: func(ctx context.Context, actor Actor) (*model.Bhajan, error) {
			return s.loadVisible(ctx, id, actor)
		},
		apply: func(b *model.Bhajan) { s.current = b },
	})
}

func (s *BhajanStore) loadVisible(ctx context.Context, id string, actor Actor) (*model.Bhajan, error) {
	b, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !visibleTo(b, actor) {
		return nil, errBhajanHidden
	}
	return b, nil
}

// FetchMyBhajans loads the bhajans created by the signed-in editor.
func (s *BhajanStore) FetchMyBhajans(ctx context.Context) Result {
	return runMutation(ctx, s.deps, s, mutation[BhajanPage]{
		op:   "bhajan.list_mine",
		need: domainauth.RoleEditor,
		primary: func(ctx context.Context, actor Actor) (BhajanPage, error) {
			owner := actor.UserID
			opts := model.BhajanListOptions{CreatedBy: &owner, Limit: model.MaxListLimit}
			if err := opts.Normalize(); err != nil {
				return BhajanPage{}, err
			}
			list, total, err := s.repo.List(ctx, opts)
			return BhajanPage{Bhajans: list, TotalCount: total}, err
		},
		apply: func(p BhajanPage) { s.bhajans, s.total = p.Bhajans, p.TotalCount },
	})
}

// FetchPendingReviews loads the review queue, oldest first.
func (s *BhajanStore) FetchPendingReviews(ctx context.Context) Result {
	return runMutation(ctx, s.deps, s, mutation[BhajanPage]{
		op:   "bhajan.list_pending",
		need: domainauth.RoleAdmin,
		primary: func(ctx context.Context, _ Actor) (BhajanPage, error) {
			pending := model.BhajanStatusPendingReview
			opts := model.BhajanListOptions{Status: &pending, SortOrder: "asc", Limit: model.MaxListLimit}
			if err := opts.Normalize(); err != nil {
				return BhajanPage{}, err
			}
			list, total, err := s.repo.List(ctx, opts)
			return BhajanPage{Bhajans: list, TotalCount: total}, err
		},
		apply: func(p BhajanPage) { s.bhajans, s.total = p.Bhajans, p.TotalCount },
	})
}

// PendingReviewCount returns the size of the review queue, or 0 when it cannot be read.
func (s *BhajanStore) PendingReviewCount(ctx context.Context) int {
	n, err := s.repo.CountByStatus(ctx, model.BhajanStatusPendingReview)
	if err != nil {
		s.deps.Logger.WarnContext(ctx, "count pending reviews", "error", err)
		return 0
	}
	return n
}

// Create inserts a bhajan owned by the signed-in editor, with its tags.
func (s *BhajanStore) Create(ctx context.Context, req model.CreateBhajanRequest) Result {
	return runMutation(ctx, s.deps, s, mutation[*model.Bhajan]{
		op:       "bhajan.create",
		need:     domainauth.RoleEditor,
		validate: req.Validate,
		primary: func(ctx context.Context, actor Actor) (*model.Bhajan, error) {
			return s.repo.Create(ctx, req, actor.UserID)
		},
		apply: func(b *model.Bhajan) {
			s.bhajans = mergeByID(s.bhajans, b, bhajanID)
			s.total++
		},
		audit: func(_ Actor, b *model.Bhajan) *auditSpec {
			return &auditSpec{
				action:     model.AuditCreate,
				entityType: model.EntityBhajan,
				entityID:   b.ID,
				changes:    map[string]any{"title": b.Title},
			}
		},
	})
}

// Update patches a bhajan. Editors may only change their own; admins may change any. Tags are
// replaced when tags is non-nil, in the same write as the fields.
func (s *BhajanStore) Update(ctx context.Context, id string, req model.UpdateBhajanRequest, tags []string) Result {
	return runMutation(ctx, s.deps, s, mutation[*model.Bhajan]{
		op:   "bhajan.update",
		need: domainauth.RoleEditor,
		validate: func() error {
			if err := requireID("id", id)(); err != nil {
				return err
			}
			if tags != nil && !req.HasUpdates() {
				return nil
			}
			return req.Validate()
		},
		primary: func(ctx context.Context, actor Actor) (*model.Bhajan, error) {
			if _, err := s.loadOwned(ctx, id, actor); err != nil {
				return nil, err
			}
			return s.repo.UpdateWithTags(ctx, id, req, tags)
		},
		apply: s.applyUpdated,
		audit: func(_ Actor, b *model.Bhajan) *auditSpec {
			changes := req.Changes()
			if tags != nil {
				changes["tags"] = model.NormalizeTagNames(tags)
			}
			return &auditSpec{action: model.AuditUpdate, entityType: model.EntityBhajan, entityID: b.ID, changes: changes}
		},
	})
}

// SubmitForReview moves a draft or rejected bhajan into the review queue.
func (s *BhajanStore) SubmitForReview(ctx context.Context, id string) Result {
	pending := model.BhajanStatusPendingReview
	req := model.UpdateBhajanRequest{Status: &pending}
	return runMutation(ctx, s.deps, s, mutation[*model.Bhajan]{
		op:       "bhajan.submit",
		need:     domainauth.RoleEditor,
		validate: requireID("id", id),
		primary: func(ctx context.Context, actor Actor) (*model.Bhajan, error) {
			if _, err := s.loadOwned(ctx, id, actor); err != nil {
				return nil, err
			}
			return s.repo.Update(ctx, id, req)
		},
		apply: s.applyUpdated,
		audit: func(_ Actor, b *model.Bhajan) *auditSpec {
			return &auditSpec{
				action:     model.AuditUpdate,
				entityType: model.EntityBhajan,
				entityID:   b.ID,
				changes:    map[string]any{"status": b.Status},
			}
		},
	})
}

// Delete removes a bhajan. Editors may only delete their own.
func (s *BhajanStore) Delete(ctx context.Context, id string) Result {
	return runMutation(ctx, s.deps, s, mutation[string]{
		op:       "bhajan.delete",
		need:     domainauth.RoleEditor,
		validate: requireID("id", id),
		primary: func(ctx context.Context, actor Actor) (string, error) {
			if _, err := s.loadOwned(ctx, id, actor); err != nil {
				return "", err
			}
			return id, s.repo.Delete(ctx, id)
		},
		apply: func(id string) {
			before := len(s.bhajans)
			s.bhajans = removeByID(s.bhajans, id, bhajanID)
			if len(s.bhajans) < before && s.total > 0 {
				s.total--
			}
			if s.current != nil && s.current.ID == id {
				s.current = nil
			}
		},
		audit: func(_ Actor, id string) *auditSpec {
			return &auditSpec{action: model.AuditDelete, entityType: model.EntityBhajan, entityID: id}
		},
	})
}

// Approve publishes a bhajan. Admin only.
func (s *BhajanStore) Approve(ctx context.Context, id, comment string) Result {
	return s.review(ctx, id, comment, model.BhajanStatusApproved, model.AuditApprove)
}

// Reject returns a bhajan to its author. Admin only.
func (s *BhajanStore) Reject(ctx context.Context, id, comment string) Result {
	return s.review(ctx, id, comment, model.BhajanStatusRejected, model.AuditReject)
}

func (s *BhajanStore) review(
	ctx context.Context,
	id, comment string,
	status model.BhajanStatus,
	action model.AuditAction,
) Result {
	return runMutation(ctx, s.deps, s, mutation[*model.Bhajan]{
		op:       "bhajan." + string(action),
		need:     domainauth.RoleAdmin,
		validate: requireID("id", id),
		primary: func(ctx context.Context, actor Actor) (*model.Bhajan, error) {
			return s.repo.Review(ctx, id, model.ReviewDecision{
				Status:     status,
				ReviewedBy: actor.UserID,
				Comment:    comment,
				ReviewedAt: s.now().UTC(),
			})
		},
		apply: func(b *model.Bhajan) {
			// The review queue only holds pending bhajans.
			if b.Status != model.BhajanStatusPendingReview {
				before := len(s.bhajans)
				s.bhajans = removeByID(s.bhajans, b.ID, bhajanID)
				if len(s.bhajans) < before && s.total > 0 {
					s.total--
				}
			}
			if s.current != nil && s.current.ID == b.ID {
				s.current = b
			}
		},
		audit: func(_ Actor, b *model.Bhajan) *auditSpec {
			return &auditSpec{
				action:     action,
				entityType: model.EntityBhajan,
				entityID:   b.ID,
				changes:    map[string]any{"review_comment": strings.TrimSpace(comment)},
			}
		},
	})
}

// loadOwned fetches id and checks the actor may modify it.
func (s *BhajanStore) loadOwned(ctx context.Context, id string, actor Actor) (*model.Bhajan, error) {
	b, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !actor.IsAdmin() && b.CreatedBy != actor.UserID {
		return nil, apperrors.NotAuthorized("Only the author or an admin can change this bhajan")
	}
	return b, nil
}

// applyUpdated merges b into the list if present and refreshes Current.
func (s *BhajanStore) applyUpdated(b *model.Bhajan) {
	s.bhajans = replaceIfPresent(s.bhajans, b, bhajanID)
	if s.current != nil && s.current.ID == b.ID {
		s.current = b
	}
}

func requireID(field, id string) func() error {
	return func() error {
		if strings.TrimSpace(id) == "" {
			return apperrors.ValidationField(field, field+" is required")
		}
		return nil
	}
}
