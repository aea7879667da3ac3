package cursor

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"alert-monitor/internal/models"
)

// DefaultRedisKey is where the cursor document lives.
const DefaultRedisKey = "alert-monitor:cursor"

// RedisBackend stores the cursor as a JSON string under a single key.
type RedisBackend struct {
	rdb *redis.Client
	key string
}

// NewRedisBackend wraps an existing client.
func NewRedisBackend(rdb *redis.Client, key string) *RedisBackend {
	if key == "" {
		key = DefaultRedisKey
	}
	return &RedisBackend{rdb: rdb, key: key}
}

// DialRedis parses url and verifies the connection.
func DialRedis(ctx context.Context, url string) (*redis.Client, error) {
	opt, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}
	rdb := redis.NewClient(opt)
	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	return rdb, nil
}

// Name implements Backend.
func (r *RedisBackend) Name() string { return "redis" }

// Load implements Backend. A missing key yields an empty cursor.
func (r *RedisBackend) Load(ctx context.Context) (models.Cursor, error) {
	raw, err := r.rdb.Get(ctx, r.key).Bytes()
	if errors.Is(err, redis.Nil) {
		return models.Cursor{}, nil
	}
	if err != nil {
		return models.Cursor{}, fmt.Errorf("get %s: %w", r.key, err)
	}
	var c models.Cursor
	if err := json.Unmarshal(raw, &c); err != nil {
		return models.Cursor{}, fmt.Errorf("decode %s: %w", r.key, err)
	}
	return c, nil
}

// Save implements Backend.
func (r *RedisBackend) Save(ctx context.Context, c models.Cursor) error {
	data, err := json.Marshal(c)
	if err != nil {
		return fmt.Errorf("encode cursor: %w", err)
	}
	if err := r.rdb.Set(ctx, r.key, data, 0).Err(); err != nil {
		return fmt.Errorf("set %s: %w", r.key, err)
	}
	return nil
}
