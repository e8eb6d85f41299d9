package redis

// Package redis provides Redis-based adapters for the bhajan library backend.

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	domainauth "github.com/target/bhajan-library/internal/domain/auth"
	"github.com/target/bhajan-library/internal/ports"
)

// DefaultSessionTTL bounds how long a persisted session survives without a refresh.
const DefaultSessionTTL = 7 * 24 * time.Hour

// SessionStore persists sessions keyed by client key.
// The access token expiry is shorter than the key TTL so expired sessions can still be refreshed.
type SessionStore struct {
	client redis.UniversalClient
	prefix string
	ttl    time.Duration
}

var _ ports.SessionStore = (*SessionStore)(nil)

// NewSessionStore creates a new Redis-based session store.
func NewSessionStore(client redis.UniversalClient, ttl time.Duration) *SessionStore {
	return NewSessionStoreWithPrefix(client, "session:", ttl)
}

// NewSessionStoreWithPrefix creates a Redis session store with a custom key prefix.
func NewSessionStoreWithPrefix(client redis.UniversalClient, prefix string, ttl time.Duration) *SessionStore {
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}
	return &SessionStore{
		client: client,
		prefix: prefix,
		ttl:    ttl,
	}
}

func (s *SessionStore) Save(ctx context.Context, key string, sess domainauth.Session) error {
	if key == "" {
		return errors.New("session key cannot be empty")
	}
	if sess.User.ID == "" {
		return errors.New("session user cannot be empty")
	}

	data, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("marshal session: %w", err)
	}
	return s.client.Set(ctx, s.prefix+key, data, s.ttl).Err()
}

func (s *SessionStore) Get(ctx context.Context, key string) (domainauth.Session, error) {
	if key == "" {
		return domainauth.Session{}, ErrNotFound
	}

	data, err := s.client.Get(ctx, s.prefix+key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return domainauth.Session{}, ErrNotFound
		}
		return domainauth.Session{}, fmt.Errorf("redis get: %w", err)
	}

	var sess domainauth.Session
	if unmarshalErr := json.Unmarshal([]byte(data), &sess); unmarshalErr != nil {
		return domainauth.Session{}, fmt.Errorf("unmarshal session: %w", unmarshalErr)
	}
	return sess, nil
}

func (s *SessionStore) Delete(ctx context.Context, key string) error {
	if key == "" {
		return nil // Nothing to delete
	}
	return s.client.Del(ctx, s.prefix+key).Err()
}

// ErrNotFound is returned when a session is not found.
var ErrNotFound = ports.ErrSessionNotFound
