package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/redis/go-redis/v9"

	domainauth "github.com/target/bhajan-library/internal/domain/auth"
	"github.com/target/bhajan-library/internal/ports"
)

const authEventBuffer = 16

// AuthEventBus fans auth-change notifications out over Redis pub/sub, one channel per client key.
type AuthEventBus struct {
	client redis.UniversalClient
	prefix string
	logger *slog.Logger
}

var _ ports.AuthEventBus = (*AuthEventBus)(nil)

// NewAuthEventBus creates a bus publishing on "auth:events:<key>".
func NewAuthEventBus(client redis.UniversalClient, logger *slog.Logger) *AuthEventBus {
	if logger == nil {
		logger = slog.Default()
	}
	return &AuthEventBus{
		client: client,
		prefix: "auth:events:",
		logger: logger.With("component", "auth_events"),
	}
}

// Publish sends ev to every subscriber of key.
func (b *AuthEventBus) Publish(ctx context.Context, key string, ev domainauth.Event) error {
	if key == "" {
		return errors.New("event key cannot be empty")
	}
	data, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal auth event: %w", err)
	}
	return b.client.Publish(ctx, b.prefix+key, data).Err()
}

// Subscribe registers for events on key. It returns once Redis has confirmed the subscription,
// so events published after Subscribe returns are never missed.
func (b *AuthEventBus) Subscribe(ctx context.Context, key string) (ports.AuthSubscription, error) {
	if key == "" {
		return nil, errors.New("event key cannot be empty")
	}
	ps := b.client.Subscribe(ctx, b.prefix+key)
	if _, err := ps.Receive(ctx); err != nil {
		_ = ps.Close()
		return nil, fmt.Errorf("subscribe auth events: %w", err)
	}

	sub := &authSubscription{
		ps:     ps,
		events: make(chan domainauth.Event, authEventBuffer),
		done:   make(chan struct{}),
		exited: make(chan struct{}),
		logger: b.logger,
	}
	go sub.run(ps.Channel())
	return sub, nil
}

type authSubscription struct {
	ps     *redis.PubSub
	events chan domainauth.Event
	done   chan struct{}
	exited chan struct{}
	once   sync.Once
	logger *slog.Logger
}

func (s *authSubscription) Events() <-chan domainauth.Event { return s.events }

func (s *authSubscription) run(msgs <-chan *redis.Message) {
	defer close(s.exited)
	defer close(s.events)
	for {
		select {
		case <-s.done:
			return
		case msg, ok := <-msgs:
			if !ok {
				return
			}
			var ev domainauth.Event
			if err := json.Unmarshal([]byte(msg.Payload), &ev); err != nil {
				s.logger.Warn("dropping malformed auth event", "channel", msg.Channel, "error", err)
				continue
			}
			select {
			case s.events <- ev:
			case <-s.done:
				return
			}
		}
	}
}

// Close unsubscribes and waits for the forwarding goroutine to stop. It is safe to call twice.
func (s *authSubscription) Close() error {
	var err error
	s.once.Do(func() {
		close(s.done)
		err = s.ps.Close()
		<-s.exited
	})
	return err
}
