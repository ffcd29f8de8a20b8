package services

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"pantry-server/src/utils"
	redis_utils "pantry-server/src/utils/redis"

	"github.com/google/uuid"
)

// leaseTTL bounds how long a Pull may hold the right to fill a missed key.
const leaseTTL = 30 * time.Second

// CachedSnapshot is what Pull serves for one (user, file type) pair.
type CachedSnapshot struct {
	Data         json.RawMessage `json:"data"`
	LastSyncTime string          `json:"lastSyncTime"`
}

// SnapshotCache sits in front of the sync repository.
//
// A reader that misses takes a lease before reading storage and fills with it afterwards.
// Invalidate revokes outstanding leases, so a fill that raced a write is dropped.
type SnapshotCache interface {
	// GetSnapshot returns nil, nil on a miss.
	GetSnapshot(ctx context.Context, key string) (*CachedSnapshot, error)
	// Lease returns an empty token when the cache does not store anything.
	Lease(ctx context.Context, key string) (string, error)
	// FillSnapshot stores snapshot if lease is still the current lease for key.
	FillSnapshot(ctx context.Context, key, lease string, snapshot *CachedSnapshot) (bool, error)
	Invalidate(ctx context.Context, key string) error
}

// NoopSnapshotCache always misses.
type NoopSnapshotCache struct{}

func (NoopSnapshotCache) GetSnapshot(context.Context, string) (*CachedSnapshot, error) {
	return nil, nil
}

func (NoopSnapshotCache) Lease(context.Context, string) (string, error) {
	return "", nil
}

func (NoopSnapshotCache) FillSnapshot(context.Context, string, string, *CachedSnapshot) (bool, error) {
	return false, nil
}

func (NoopSnapshotCache) Invalidate(context.Context, string) error {
	return nil
}

// MemorySnapshotCache keeps snapshots in process. Only correct with a single API instance.
type MemorySnapshotCache struct {
	mu        sync.Mutex
	snapshots *utils.Cache[CachedSnapshot]
	leases    *utils.Cache[string]
}

func NewMemorySnapshotCache(ttl time.Duration) *MemorySnapshotCache {
	return &MemorySnapshotCache{
		snapshots: utils.NewCache[CachedSnapshot](ttl),
		leases:    utils.NewCache[string](leaseTTL),
	}
}

func (c *MemorySnapshotCache) GetSnapshot(_ context.Context, key string) (*CachedSnapshot, error) {
	snapshot, ok := c.snapshots.Get(key)
	if !ok {
		return nil, nil
	}
	return &snapshot, nil
}

func (c *MemorySnapshotCache) Lease(_ context.Context, key string) (string, error) {
	lease := uuid.NewString()
	c.mu.Lock()
	defer c.mu.Unlock()

	c.leases.Set(key, lease)
	return lease, nil
}

func (c *MemorySnapshotCache) FillSnapshot(_ context.Context, key, lease string, snapshot *CachedSnapshot) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	current, ok := c.leases.Get(key)
	if !ok || current != lease {
		return false, nil
	}
	c.leases.Delete(key)
	c.snapshots.Set(key, *snapshot)
	return true, nil
}

func (c *MemorySnapshotCache) Invalidate(_ context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.leases.Delete(key)
	c.snapshots.Delete(key)
	return nil
}

// RedisSnapshotCache shares snapshots between API instances.
type RedisSnapshotCache struct {
	redis *redis_utils.RedisHandler
	ttl   time.Duration
}

func NewRedisSnapshotCache(handler *redis_utils.RedisHandler, ttl time.Duration) *RedisSnapshotCache {
	return &RedisSnapshotCache{redis: handler, ttl: ttl}
}

func (c *RedisSnapshotCache) GetSnapshot(ctx context.Context, key string) (*CachedSnapshot, error) {
	var snapshot CachedSnapshot
	found, err := c.redis.Get(ctx, key, &snapshot)
	if err != nil || !found {
		return nil, err
	}
	return &snapshot, nil
}

func (c *RedisSnapshotCache) Lease(ctx context.Context, key string) (string, error) {
	lease := uuid.NewString()
	if err := c.redis.Set(ctx, leaseKey(key), lease, leaseTTL); err != nil {
		return "", err
	}
	return lease, nil
}

func (c *RedisSnapshotCache) FillSnapshot(ctx context.Context, key, lease string, snapshot *CachedSnapshot) (bool, error) {
	return c.redis.SetIfGuarded(ctx, leaseKey(key), lease, key, snapshot, c.ttl)
}

func (c *RedisSnapshotCache) Invalidate(ctx context.Context, key string) error {
	return c.redis.Delete(ctx, leaseKey(key), key)
}

func leaseKey(key string) string {
	return key + ":lease"
}
