package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/target/bhajan-library/internal/domain/model"
	"github.com/target/bhajan-library/internal/ports"
)

// preferencesTTL keeps viewer settings for returning browsers without growing forever.
const preferencesTTL = 180 * 24 * time.Hour

// PreferencesStore persists viewer preferences per client key.
type PreferencesStore struct {
	client redis.UniversalClient
	prefix string
}

var _ ports.PreferencesRepository = (*PreferencesStore)(nil)

func NewPreferencesStore(client redis.UniversalClient) *PreferencesStore {
	return &PreferencesStore{client: client, prefix: "prefs:"}
}

// Load returns the saved preferences for key. ok is false when none were saved.
func (s *PreferencesStore) Load(ctx context.Context, key string) (model.Preferences, bool, error) {
	data, err := s.client.Get(ctx, s.prefix+key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return model.Preferences{}, false, nil
		}
		return model.Preferences{}, false, fmt.Errorf("redis get: %w", err)
	}
	var prefs model.Preferences
	if err := json.Unmarshal(data, &prefs); err != nil {
		return model.Preferences{}, false, fmt.Errorf("unmarshal preferences: %w", err)
	}
	return prefs, true, nil
}

// Save overwrites the preferences for key and renews their TTL.
func (s *PreferencesStore) Save(ctx context.Context, key string, prefs model.Preferences) error {
	if key == "" {
		return errors.New("preferences key cannot be empty")
	}
	data, err := json.Marshal(prefs)
	if err != nil {
		return fmt.Errorf("marshal preferences: %w", err)
	}
	return s.client.Set(ctx, s.prefix+key, data, preferencesTTL).Err()
}
