package publish

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/smukkama/solar-forecast/internal/forecast"
	"github.com/smukkama/solar-forecast/internal/protocol"
)

// KeyValueStore is the subset of *redis.Client used for the latest forecast
type KeyValueStore interface {
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
	Get(ctx context.Context, key string) *redis.StringCmd
}

// RedisPublisher keeps the most recent bundle in Redis so dashboards can
// read it without waiting for the next MQTT message
type RedisPublisher struct {
	redis KeyValueStore
	key   string
	ttl   time.Duration
}

// NewRedisPublisher stores bundles under forecast:<topic>:latest
func NewRedisPublisher(client KeyValueStore, topic string, ttl time.Duration) *RedisPublisher {
	return &RedisPublisher{
		redis: client,
		key:   fmt.Sprintf("forecast:%s:latest", topic),
		ttl:   ttl,
	}
}

// Publish overwrites the latest bundle
func (r *RedisPublisher) Publish(ctx context.Context, bundle forecast.Bundle) error {
	data, err := protocol.EncodeBundle(bundle)
	if err != nil {
		return fmt.Errorf("failed to encode bundle: %w", err)
	}

	if err := r.redis.Set(ctx, r.key, data, r.ttl).Err(); err != nil {
		return fmt.Errorf("failed to set forecast in Redis: %w", err)
	}

	return nil
}

// Latest returns the last published bundle, or nil if none is stored
func (r *RedisPublisher) Latest(ctx context.Context) (forecast.Bundle, error) {
	data, err := r.redis.Get(ctx, r.key).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get forecast from Redis: %w", err)
	}

	bundle, err := protocol.DecodeBundle([]byte(data))
	if err != nil {
		return nil, fmt.Errorf("failed to decode forecast: %w", err)
	}

	return bundle, nil
}

func (r *RedisPublisher) String() string {
	return "redis:" + r.key
}
