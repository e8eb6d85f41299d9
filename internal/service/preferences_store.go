package service

import (
	"context"
	"errors"

	"github.com/target/bhajan-library/internal/domain/model"
	"github.com/target/bhajan-library/internal/ports"
)

// PreferencesStoreOptions groups dependencies for PreferencesStore.
type PreferencesStoreOptions struct {
	Repo ports.PreferencesRepository // Optional: without it preferences live only in memory
	Key  string                      // Client key the preferences are saved under
	Deps StoreDeps
}

// PreferencesStore holds the viewer's display settings. They belong to the browser, not the
// account, so no sign-in is required.
type PreferencesStore struct {
	storeState
	repo ports.PreferencesRepository
	key  string
	deps StoreDeps

	prefs model.Preferences
}

// NewPreferencesStore constructs a PreferencesStore holding the defaults.
func NewPreferencesStore(opts PreferencesStoreOptions) (*PreferencesStore, error) {
	if opts.Repo != nil && opts.Key == "" {
		return nil, errors.New("client key is required to persist preferences")
	}
	return &PreferencesStore{
		repo:  opts.Repo,
		key:   opts.Key,
		deps:  opts.Deps.withDefaults("preferences_store"),
		prefs: model.DefaultPreferences(),
	}, nil
}

// Preferences returns a copy of the current settings.
func (s *PreferencesStore) Preferences() model.Preferences {
	s.mu.Lock()
	defer s.mu.Unlock()
	return copyPrefs(s.prefs)
}

func copyPrefs(p model.Preferences) model.Preferences {
	p.EnabledScripts = append([]model.Script(nil), p.EnabledScripts...)
	return p
}

// Load restores saved preferences. Missing or unreadable data leaves the defaults in place.
func (s *PreferencesStore) Load(ctx context.Context) Result {
	return runMutation(ctx, s.deps, s, mutation[model.Preferences]{
		op:     "preferences.load",
		public: true,
		primary: func(ctx context.Context, _ Actor) (model.Preferences, error) {
			if s.repo == nil {
				return s.Preferences(), nil
			}
			prefs, ok, err := s.repo.Load(ctx, s.key)
			if err != nil {
				return model.Preferences{}, err
			}
			if !ok {
				return model.DefaultPreferences(), nil
			}
			return prefs.Normalize(), nil
		},
		apply: func(p model.Preferences) { s.prefs = p },
	})
}

// ToggleMeaning flips whether meanings are shown.
func (s *PreferencesStore) ToggleMeaning(ctx context.Context) Result {
	return s.update(ctx, "preferences.toggle_meaning", func(p model.Preferences) (model.Preferences, error) {
		p.ShowMeaning = !p.ShowMeaning
		return p, nil
	})
}

// SetShowMeaning sets whether meanings are shown.
func (s *PreferencesStore) SetShowMeaning(ctx context.Context, show bool) Result {
	return s.update(ctx, "preferences.set_meaning", func(p model.Preferences) (model.Preferences, error) {
		p.ShowMeaning = show
		return p, nil
	})
}

// ToggleScript enables or disables one script. The last enabled script stays enabled.
func (s *PreferencesStore) ToggleScript(ctx context.Context, script model.Script) Result {
	return s.update(ctx, "preferences.toggle_script", func(p model.Preferences) (model.Preferences, error) {
		return p.ToggleScript(script)
	})
}

// SetEnabledScripts replaces the enabled scripts. The selection must not be empty.
func (s *PreferencesStore) SetEnabledScripts(ctx context.Context, scripts []model.Script) Result {
	return s.update(ctx, "preferences.set_scripts", func(p model.Preferences) (model.Preferences, error) {
		return p.WithEnabledScripts(scripts)
	})
}

// ResetToDefaults restores the default settings.
func (s *PreferencesStore) ResetToDefaults(ctx context.Context) Result {
	return s.update(ctx, "preferences.reset", func(model.Preferences) (model.Preferences, error) {
		return model.DefaultPreferences(), nil
	})
}

// IsScriptEnabled reports whether script is currently shown.
func (s *PreferencesStore) IsScriptEnabled(script model.Script) bool {
	return s.Preferences().IsScriptEnabled(script)
}

// update computes the next settings from the current ones and persists them before adopting.
func (s *PreferencesStore) update(
	ctx context.Context,
	op string,
	next func(model.Preferences) (model.Preferences, error),
) Result {
	var updated model.Preferences
	return runMutation(ctx, s.deps, s, mutation[model.Preferences]{
		op:     op,
		public: true,
		validate: func() error {
			var err error
			updated, err = next(s.Preferences())
			return err
		},
		primary: func(ctx context.Context, _ Actor) (model.Preferences, error) {
			if s.repo != nil {
				if err := s.repo.Save(ctx, s.key, updated); err != nil {
					return model.Preferences{}, err
				}
			}
			return updated, nil
		},
		apply: func(p model.Preferences) { s.prefs = copyPrefs(p) },
	})
}
