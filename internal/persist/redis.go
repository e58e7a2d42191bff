package persist

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/fetchdeck/backend/internal/queue"
)

// keySnapshot holds the full queue snapshot as one JSON document
const keySnapshot = "fetchdeck:queue:snapshot"

// RedisStore persists queue snapshots in Redis
type RedisStore struct {
	client *redis.Client
}

// NewRedisStore connects to Redis at the given URL
func NewRedisStore(redisURL string) (*RedisStore, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis URL: %w", err)
	}

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return &RedisStore{client: client}, nil
}

// Load retrieves the persisted snapshot; a missing key is an empty queue
func (s *RedisStore) Load(ctx context.Context) ([]queue.Item, error) {
	data, err := s.client.Get(ctx, keySnapshot).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to load queue snapshot: %w", err)
	}

	var items []queue.Item
	if err := json.Unmarshal([]byte(data), &items); err != nil {
		return nil, fmt.Errorf("failed to unmarshal queue snapshot: %w", err)
	}
	return items, nil
}

// Save replaces the persisted snapshot
func (s *RedisStore) Save(ctx context.Context, items []queue.Item) error {
	data, err := json.Marshal(items)
	if err != nil {
		return fmt.Errorf("failed to marshal queue snapshot: %w", err)
	}
	return s.client.Set(ctx, keySnapshot, data, 0).Err()
}

// Ping verifies the Redis connection is alive
func (s *RedisStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// Close closes the Redis connection
func (s *RedisStore) Close() error {
	return s.client.Close()
}
