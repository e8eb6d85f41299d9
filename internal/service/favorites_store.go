package service

import (
	"context"
	"errors"

	"github.com/target/bhajan-library/internal/domain/model"
	"github.com/target/bhajan-library/internal/ports"
)

// FavoritesStoreOptions groups dependencies for FavoritesStore.
type FavoritesStoreOptions struct {
	Repo ports.FavoriteRepository // Required
	Deps StoreDeps
}

// FavoritesStore mirrors the signed-in user's favorites. Favorites are personal and are not
// audited.
type FavoritesStore struct {
	storeState
	repo ports.FavoriteRepository
	deps StoreDeps

	favorites []*model.FavoriteBhajan
	count     int
}

// FavoritesSnapshot is a copy of the store's mirror.
type FavoritesSnapshot struct {
	Favorites []*model.FavoriteBhajan `json:"favorites"`
	Count     int                     `json:"count"`
	Loading   bool                    `json:"loading"`
	Error     string                  `json:"error,omitempty"`
}

// FavoriteToggle is the result of Toggle.
type FavoriteToggle struct {
	BhajanID  string `json:"bhajan_id"`
	Favorited bool   `json:"favorited"`

	changed bool
}

// NewFavoritesStore constructs a FavoritesStore.
func NewFavoritesStore(opts FavoritesStoreOptions) (*FavoritesStore, error) {
	if opts.Repo == nil {
		return nil, errors.New("FavoriteRepository is required")
	}
	return &FavoritesStore{repo: opts.Repo, deps: opts.Deps.withDefaults("favorites_store")}, nil
}

// Snapshot returns a copy of the mirror.
func (s *FavoritesStore) Snapshot() FavoritesSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return FavoritesSnapshot{
		Favorites: append([]*model.FavoriteBhajan(nil), s.favorites...),
		Count:     s.count,
		Loading:   s.inflight > 0,
		Error:     s.lastErr,
	}
}

func favoriteID(f *model.FavoriteBhajan) string { return f.ID }

// Fetch loads one page of favorites.
func (s *FavoritesStore) Fetch(ctx context.Context, limit, offset int) Result {
	return runMutation(ctx, s.deps, s, mutation[[]*model.FavoriteBhajan]{
		op: "favorite.list",
		primary: func(ctx context.Context, actor Actor) ([]*model.FavoriteBhajan, error) {
			return s.repo.List(ctx, actor.UserID, limit, offset)
		},
		apply: func(list []*model.FavoriteBhajan) { s.favorites = list },
	})
}

// FetchCount loads the number of favorites.
func (s *FavoritesStore) FetchCount(ctx context.Context) Result {
	return runMutation(ctx, s.deps, s, mutation[int]{
		op: "favorite.count",
		primary: func(ctx context.Context, actor Actor) (int, error) {
			return s.repo.Count(ctx, actor.UserID)
		},
		apply: func(n int) { s.count = n },
	})
}

// IsFavorited reports whether bhajanID is in the favorites.
func (s *FavoritesStore) IsFavorited(ctx context.Context, bhajanID string) Result {
	return runMutation(ctx, s.deps, s, mutation[bool]{
		op:       "favorite.exists",
		validate: requireID("bhajan_id", bhajanID),
		primary: func(ctx context.Context, actor Actor) (bool, error) {
			return s.repo.Exists(ctx, actor.UserID, bhajanID)
		},
	})
}

// Add favorites a bhajan. Adding twice is harmless and leaves the count alone.
func (s *FavoritesStore) Add(ctx context.Context, bhajanID string) Result {
	return runMutation(ctx, s.deps, s, mutation[FavoriteToggle]{
		op:       "favorite.add",
		validate: requireID("bhajan_id", bhajanID),
		primary: func(ctx context.Context, actor Actor) (FavoriteToggle, error) {
			return s.set(ctx, actor, bhajanID, func(bool) bool { return true })
		},
		apply: s.applyToggle,
	})
}

// Remove unfavorites a bhajan.
func (s *FavoritesStore) Remove(ctx context.Context, bhajanID string) Result {
	return runMutation(ctx, s.deps, s, mutation[FavoriteToggle]{
		op:       "favorite.remove",
		validate: requireID("bhajan_id", bhajanID),
		primary: func(ctx context.Context, actor Actor) (FavoriteToggle, error) {
			return s.set(ctx, actor, bhajanID, func(bool) bool { return false })
		},
		apply: s.applyToggle,
	})
}

// Toggle flips the favorite state of a bhajan.
func (s *FavoritesStore) Toggle(ctx context.Context, bhajanID string) Result {
	return runMutation(ctx, s.deps, s, mutation[FavoriteToggle]{
		op:       "favorite.toggle",
		validate: requireID("bhajan_id", bhajanID),
		primary: func(ctx context.Context, actor Actor) (FavoriteToggle, error) {
			return s.set(ctx, actor, bhajanID, func(exists bool) bool { return !exists })
		},
		apply: s.applyToggle,
	})
}

// set moves bhajanID to the state want picks from the current one, writing only on a change.
func (s *FavoritesStore) set(
	ctx context.Context,
	actor Actor,
	bhajanID string,
	want func(exists bool) bool,
) (FavoriteToggle, error) {
	exists, err := s.repo.Exists(ctx, actor.UserID, bhajanID)
	if err != nil {
		return FavoriteToggle{}, err
	}
	on := want(exists)
	t := FavoriteToggle{BhajanID: bhajanID, Favorited: on, changed: exists != on}
	if !t.changed {
		return t, nil
	}
	if on {
		err = s.repo.Add(ctx, actor.UserID, bhajanID)
	} else {
		err = s.repo.Remove(ctx, actor.UserID, bhajanID)
	}
	return t, err
}

// applyToggle keeps Count in step with the backend. An added favorite is not merged into the
// list because the repository does not return the joined row; the next Fetch brings it in.
func (s *FavoritesStore) applyToggle(t FavoriteToggle) {
	if !t.Favorited {
		s.favorites = removeByID(s.favorites, t.BhajanID, favoriteID)
	}
	switch {
	case !t.changed:
	case t.Favorited:
		s.count++
	case s.count > 0:
		s.count--
	}
}
