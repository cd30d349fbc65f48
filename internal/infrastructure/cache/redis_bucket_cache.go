package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	appsupply "github.com/restosuite/backend/internal/application/supply"
	"github.com/restosuite/backend/internal/domain/supply"
)

const defaultBucketTTL = 60 * time.Second

// RedisBucketCache caches receiving bucket counts per tenant in Redis.
// Counts are a short-lived read model; every order mutation invalidates
// the tenant's entry, so a modest TTL only bounds staleness after missed
// invalidations.
type RedisBucketCache struct {
	client    *redis.Client
	keyPrefix string
	ttl       time.Duration
}

// RedisConfig holds Redis connection configuration
type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

// NewRedisBucketCache creates a bucket cache with its own Redis connection
func NewRedisBucketCache(cfg RedisConfig) (*RedisBucketCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return NewRedisBucketCacheWithClient(client, "", 0), nil
}

// NewRedisBucketCacheWithClient creates a bucket cache over an existing
// client. Useful for testing or when sharing a client across components.
func NewRedisBucketCacheWithClient(client *redis.Client, keyPrefix string, ttl time.Duration) *RedisBucketCache {
	if keyPrefix == "" {
		keyPrefix = "supply:buckets:"
	}
	if ttl <= 0 {
		ttl = defaultBucketTTL
	}
	return &RedisBucketCache{
		client:    client,
		keyPrefix: keyPrefix,
		ttl:       ttl,
	}
}

func (c *RedisBucketCache) key(tenantID uuid.UUID) string {
	return c.keyPrefix + tenantID.String()
}

// GetCounts returns cached counts for a tenant, or nil on cache miss
func (c *RedisBucketCache) GetCounts(ctx context.Context, tenantID uuid.UUID) (*supply.Counts, error) {
	data, err := c.client.Get(ctx, c.key(tenantID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read bucket counts: %w", err)
	}

	var counts supply.Counts
	if err := json.Unmarshal(data, &counts); err != nil {
		// Treat a corrupt entry as a miss; the next write replaces it
		return nil, nil
	}
	return &counts, nil
}

// SetCounts stores counts for a tenant with the configured TTL
func (c *RedisBucketCache) SetCounts(ctx context.Context, tenantID uuid.UUID, counts supply.Counts) error {
	data, err := json.Marshal(counts)
	if err != nil {
		return fmt.Errorf("failed to marshal bucket counts: %w", err)
	}
	if err := c.client.Set(ctx, c.key(tenantID), data, c.ttl).Err(); err != nil {
		return fmt.Errorf("failed to write bucket counts: %w", err)
	}
	return nil
}

// Invalidate drops the cached counts for a tenant
func (c *RedisBucketCache) Invalidate(ctx context.Context, tenantID uuid.UUID) error {
	if err := c.client.Del(ctx, c.key(tenantID)).Err(); err != nil {
		return fmt.Errorf("failed to invalidate bucket counts: %w", err)
	}
	return nil
}

// Close closes the Redis client
func (c *RedisBucketCache) Close() error {
	return c.client.Close()
}

// Client exposes the underlying Redis client so other components can share
// the connection
func (c *RedisBucketCache) Client() *redis.Client {
	return c.client
}

// Ensure RedisBucketCache implements the application cache port
var _ appsupply.BucketCache = (*RedisBucketCache)(nil)
