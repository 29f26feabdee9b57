// File: internal/auth/stream_redis.go
package auth

import (
	"context"
	"encoding/json"
	"fmt"

	"minitorque_web/internal/config"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// RedisStream relays changes between server instances over Redis pub/sub.
// Local subscribers are served by an embedded LocalStream; messages this instance
// published are not delivered twice.
type RedisStream struct {
	local   *LocalStream
	client  *redis.Client
	pubsub  *redis.PubSub
	channel string
	origin  string
	logger  *zap.Logger
	done    chan struct{}
}

// NewRedisStream subscribes to channel and starts relaying remote changes.
func NewRedisStream(ctx context.Context, client *redis.Client, channel string, logger *zap.Logger) (*RedisStream, error) {
	pubsub := client.Subscribe(ctx, channel)
	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()
		return nil, fmt.Errorf("failed to subscribe to auth-state channel %s: %w", channel, err)
	}

	s := &RedisStream{
		local:   NewLocalStream(),
		client:  client,
		pubsub:  pubsub,
		channel: channel,
		origin:  uuid.NewString(),
		logger:  logger.Named("RedisStream"),
		done:    make(chan struct{}),
	}
	go s.relay()
	return s, nil
}

func (s *RedisStream) Subscribe(fn func(Change)) func() {
	return s.local.Subscribe(fn)
}

// Publish delivers locally first, then fans the change out to other instances.
// Pending markers stay local; only the outcome is shared.
func (s *RedisStream) Publish(ctx context.Context, change Change) error {
	if err := s.local.Publish(ctx, change); err != nil {
		return err
	}
	if change.Pending {
		return nil
	}

	change.Origin = s.origin
	payload, err := json.Marshal(change)
	if err != nil {
		return fmt.Errorf("failed to encode auth-state change: %w", err)
	}
	if err := s.client.Publish(ctx, s.channel, payload).Err(); err != nil {
		return fmt.Errorf("failed to publish auth-state change: %w", err)
	}
	return nil
}

func (s *RedisStream) relay() {
	defer close(s.done)
	for msg := range s.pubsub.Channel() {
		var change Change
		if err := json.Unmarshal([]byte(msg.Payload), &change); err != nil {
			s.logger.Warn("Dropping malformed auth-state message", zap.Error(err))
			continue
		}
		if change.Origin == s.origin {
			continue
		}
		change.Origin = ""
		_ = s.local.Publish(context.Background(), change)
	}
}

// Close stops the relay and releases the subscription.
func (s *RedisStream) Close() error {
	err := s.pubsub.Close()
	<-s.done
	return err
}

// ProvideStream returns a RedisStream when a Redis client is configured and an in-process
// stream otherwise.
func ProvideStream(cfg *config.Config, client *redis.Client, logger *zap.Logger) (Stream, func(), error) {
	if client == nil {
		logger.Info("Auth-state changes stay in-process (REDIS_URL not set)")
		return NewLocalStream(), func() {}, nil
	}
	s, err := NewRedisStream(context.Background(), client, cfg.AuthEventsChannel, logger)
	if err != nil {
		return nil, nil, err
	}
	logger.Info("Auth-state changes relayed over Redis", zap.String("channel", cfg.AuthEventsChannel))
	return s, func() {
		if err := s.Close(); err != nil {
			logger.Error("Error closing auth-state subscription", zap.Error(err))
		}
	}, nil
}
