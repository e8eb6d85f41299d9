package service

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	domainauth "github.com/target/bhajan-library/internal/domain/auth"
	"github.com/target/bhajan-library/internal/domain/model"
	apperrors "github.com/target/bhajan-library/internal/errors"
	"github.com/target/bhajan-library/internal/ports"
)

const (
	popularTagsCacheKey  = "tags:popular"
	popularTagsCacheSize = 50
	defaultPopularLimit  = 10
	defaultPopularTTL    = 5 * time.Minute
)

// TagStoreOptions groups dependencies for TagStore.
type TagStoreOptions struct {
	Repo  ports.TagRepository // Required
	Cache TagCacheOptions     // Optional: caches popular tags
	Deps  StoreDeps
}

// TagCacheOptions configures the popular-tags cache.
type TagCacheOptions struct {
	Repo ports.CacheRepository
	TTL  time.Duration
}

// TagStore mirrors tag names and the popular-tags ranking.
type TagStore struct {
	storeState
	repo     ports.TagRepository
	cache    ports.CacheRepository
	cacheTTL time.Duration
	deps     StoreDeps

	allTags     []string
	popularTags []model.TagCount
}

// TagSnapshot is a copy of the store's mirror.
type TagSnapshot struct {
	AllTags     []string         `json:"all_tags"`
	PopularTags []model.TagCount `json:"popular_tags"`
	Loading     bool             `json:"loading"`
	Error       string           `json:"error,omitempty"`
}

// NewTagStore constructs a TagStore.
func NewTagStore(opts TagStoreOptions) (*TagStore, error) {
	if opts.Repo == nil {
		return nil, errors.New("TagRepository is required")
	}
	ttl := opts.Cache.TTL
	if ttl <= 0 {
		ttl = defaultPopularTTL
	}
	return &TagStore{
		repo:     opts.Repo,
		cache:    opts.Cache.Repo,
		cacheTTL: ttl,
		deps:     opts.Deps.withDefaults("tag_store"),
	}, nil
}

// Snapshot returns a copy of the mirror.
func (s *TagStore) Snapshot() TagSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return TagSnapshot{
		AllTags:     append([]string(nil), s.allTags...),
		PopularTags: append([]model.TagCount(nil), s.popularTags...),
		Loading:     s.inflight > 0,
		Error:       s.lastErr,
	}
}

// FetchAll loads every distinct tag name.
func (s *TagStore) FetchAll(ctx context.Context) Result {
	return runMutation(ctx, s.deps, s, mutation[[]string]{
		op:     "tag.list",
		public: true,
		primary: func(ctx context.Context, _ Actor) ([]string, error) {
			return s.repo.ListNames(ctx)
		},
		apply: func(names []string) { s.allTags = names },
	})
}

// FetchPopular loads the limit most used tags on approved bhajans.
func (s *TagStore) FetchPopular(ctx context.Context, limit int) Result {
	if limit <= 0 {
		limit = defaultPopularLimit
	}
	return runMutation(ctx, s.deps, s, mutation[[]model.TagCount]{
		op:     "tag.popular",
		public: true,
		primary: func(ctx context.Context, _ Actor) ([]model.TagCount, error) {
			return s.popular(ctx, limit)
		},
		apply: func(tags []model.TagCount) { s.popularTags = tags },
	})
}

func (s *TagStore) popular(ctx context.Context, limit int) ([]model.TagCount, error) {
	if s.cache == nil || limit > popularTagsCacheSize {
		return s.repo.Popular(ctx, limit)
	}
	if raw, err := s.cache.Get(ctx, popularTagsCacheKey); err != nil {
		s.deps.Logger.WarnContext(ctx, "read popular tags cache", "error", err)
	} else if raw != nil {
		var cached []model.TagCount
		if err := json.Unmarshal(raw, &cached); err == nil {
			return headTags(cached, limit), nil
		}
	}

	tags, err := s.repo.Popular(ctx, popularTagsCacheSize)
	if err != nil {
		return nil, err
	}
	if raw, err := json.Marshal(tags); err == nil {
		if err := s.cache.Set(ctx, popularTagsCacheKey, raw, s.cacheTTL); err != nil {
			s.deps.Logger.WarnContext(ctx, "write popular tags cache", "error", err)
		}
	}
	return headTags(tags, limit), nil
}

func headTags(tags []model.TagCount, limit int) []model.TagCount {
	if len(tags) > limit {
		return tags[:limit]
	}
	return tags
}

func (s *TagStore) invalidatePopular(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if _, err := s.cache.Delete(ctx, popularTagsCacheKey); err != nil {
		s.deps.Logger.WarnContext(ctx, "invalidate popular tags cache", "error", err)
	}
}

// ForBhajan returns the tags of one bhajan. It does not touch the mirror.
func (s *TagStore) ForBhajan(ctx context.Context, bhajanID string) Result {
	return runMutation(ctx, s.deps, s, mutation[[]*model.Tag]{
		op:       "tag.for_bhajan",
		public:   true,
		validate: requireID("bhajan_id", bhajanID),
		primary: func(ctx context.Context, _ Actor) ([]*model.Tag, error) {
			return s.repo.ListForBhajan(ctx, bhajanID)
		},
	})
}

// Add attaches one tag to a bhajan. Editor only.
func (s *TagStore) Add(ctx context.Context, bhajanID, name string) Result {
	return runMutation(ctx, s.deps, s, mutation[*model.Tag]{
		op:   "tag.add",
		need: domainauth.RoleEditor,
		validate: func() error {
			if err := requireID("bhajan_id", bhajanID)(); err != nil {
				return err
			}
			normalized, ok := model.NormalizeTagName(name)
			if !ok {
				return apperrors.ValidationField("tag_name", "tag name must be 1 to 50 characters")
			}
			name = normalized
			return nil
		},
		primary: func(ctx context.Context, _ Actor) (*model.Tag, error) {
			t, err := s.repo.Add(ctx, bhajanID, name)
			if err == nil {
				s.invalidatePopular(ctx)
			}
			return t, err
		},
		apply: func(t *model.Tag) { s.allTags = insertName(s.allTags, t.TagName) },
		audit: func(_ Actor, t *model.Tag) *auditSpec {
			return &auditSpec{
				action:     model.AuditAddTag,
				entityType: model.EntityBhajan,
				entityID:   t.BhajanID,
				changes:    map[string]any{"tag_name": t.TagName},
			}
		},
	})
}

// Remove deletes one tag. Editor only.
func (s *TagStore) Remove(ctx context.Context, tagID string) Result {
	return runMutation(ctx, s.deps, s, mutation[*model.Tag]{
		op:       "tag.remove",
		need:     domainauth.RoleEditor,
		validate: requireID("tag_id", tagID),
		primary: func(ctx context.Context, _ Actor) (*model.Tag, error) {
			t, err := s.repo.Remove(ctx, tagID)
			if err == nil {
				s.invalidatePopular(ctx)
			}
			return t, err
		},
		audit: func(_ Actor, t *model.Tag) *auditSpec {
			return &auditSpec{
				action:     model.AuditRemoveTag,
				entityType: model.EntityTag,
				entityID:   t.ID,
				changes:    map[string]any{"bhajan_id": t.BhajanID, "tag_name": t.TagName},
			}
		},
	})
}

// Replace swaps every tag of a bhajan for names. Editor only.
func (s *TagStore) Replace(ctx context.Context, bhajanID string, names []string) Result {
	return runMutation(ctx, s.deps, s, mutation[[]*model.Tag]{
		op:   "tag.replace",
		need: domainauth.RoleEditor,
		validate: func() error {
			names = model.NormalizeTagNames(names)
			return requireID("bhajan_id", bhajanID)()
		},
		primary: func(ctx context.Context, _ Actor) ([]*model.Tag, error) {
			tags, err := s.repo.Replace(ctx, bhajanID, names)
			if err == nil {
				s.invalidatePopular(ctx)
			}
			return tags, err
		},
		apply: func(tags []*model.Tag) {
			for _, t := range tags {
				s.allTags = insertName(s.allTags, t.TagName)
			}
		},
		audit: func(_ Actor, _ []*model.Tag) *auditSpec {
			return &auditSpec{
				action:     model.AuditUpdateTags,
				entityType: model.EntityBhajan,
				entityID:   bhajanID,
				changes:    map[string]any{"tags": names},
			}
		},
	})
}

// insertName adds name to a sorted list when absent.
func insertName(names []string, name string) []string {
	for i, n := range names {
		if n == name {
			return names
		}
		if n > name {
			out := make([]string, 0, len(names)+1)
			out = append(out, names[:i]...)
			out = append(out, name)
			return append(out, names[i:]...)
		}
	}
	return append(append([]string(nil), names...), name)
}
