package redis_utils

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"pantry-server/src/config"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisHandler encapsulates the Redis client and provides utility methods.
type RedisHandler struct {
	client *redis.Client
}

// NewRedisHandler initializes a new Redis handler.
func NewRedisHandler(ctx context.Context, cfg config.RedisConfig) (*RedisHandler, error) {
	options := &redis.Options{
		Addr:     cfg.Host + ":" + cfg.Port,
		Username: cfg.Username,
		Password: cfg.Password, // Leave empty for no password
		DB:       cfg.Database, // Default DB index
	}
	if cfg.TLS {
		options.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
	}
	client := redis.NewClient(options)

	// Test connection
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return NewRedisHandlerFromClient(client), nil
}

// NewRedisHandlerFromClient wraps an already configured client.
func NewRedisHandlerFromClient(client *redis.Client) *RedisHandler {
	return &RedisHandler{client: client}
}

// Set stores a key-value pair in Redis with an optional expiration.
func (r *RedisHandler) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
	// Serialize the value to JSON
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to serialize value: %w", err)
	}

	// Store the serialized value in Redis
	return r.client.Set(ctx, key, data, expiration).Err()
}

// Get deserializes the value of key into result. It reports false when the key does not exist.
func (r *RedisHandler) Get(ctx context.Context, key string, result interface{}) (bool, error) {
	data, err := r.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return false, nil
	} else if err != nil {
		return false, fmt.Errorf("failed to get key: %w", err)
	}

	// Deserialize the value into the result
	if err := json.Unmarshal(data, result); err != nil {
		return false, fmt.Errorf("failed to deserialize value: %w", err)
	}
	return true, nil
}

// Delete removes keys from Redis.
func (r *RedisHandler) Delete(ctx context.Context, keys ...string) error {
	return r.client.Del(ctx, keys...).Err()
}

// setIfGuarded writes ARGV[2] to KEYS[2] and drops the guard only while KEYS[1] still holds ARGV[1].
var setIfGuarded = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	redis.call("SET", KEYS[2], ARGV[2], "PX", ARGV[3])
	redis.call("DEL", KEYS[1])
	return 1
end
return 0
`)

// SetIfGuarded stores value under key only if guardKey still holds guardValue, consuming the guard.
// Both keys must hash to the same cluster slot.
func (r *RedisHandler) SetIfGuarded(ctx context.Context, guardKey string, guardValue interface{}, key string, value interface{}, expiration time.Duration) (bool, error) {
	guard, err := json.Marshal(guardValue)
	if err != nil {
		return false, fmt.Errorf("failed to serialize guard: %w", err)
	}
	data, err := json.Marshal(value)
	if err != nil {
		return false, fmt.Errorf("failed to serialize value: %w", err)
	}

	stored, err := setIfGuarded.Run(ctx, r.client, []string{guardKey, key}, guard, data, expiration.Milliseconds()).Int()
	if err != nil {
		return false, fmt.Errorf("failed to run guarded set: %w", err)
	}
	return stored == 1, nil
}

// Close closes the Redis client connection.
func (r *RedisHandler) Close() error {
	return r.client.Close()
}
