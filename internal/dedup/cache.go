// Package dedup provides an optional Redis cache of recently seen
// content fingerprints. It lets the orchestrator count new items
// without a storage round-trip per item; storage's fingerprint index
// remains the source of truth.
package dedup

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	keyPrefix  = "harvest:fingerprint:"
	defaultTTL = 14 * 24 * time.Hour
)

// Cache tracks seen fingerprints in Redis. A nil *Cache is disabled:
// Seen always reports false and Mark is a no-op.
type Cache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewCache creates a fingerprint cache. A zero ttl uses the default
// two-week retention.
func NewCache(client *redis.Client, ttl time.Duration) *Cache {
	if ttl <= 0 {
		ttl = defaultTTL
	}
	return &Cache{client: client, ttl: ttl}
}

// Seen reports whether the fingerprint was marked recently.
func (c *Cache) Seen(ctx context.Context, fingerprint string) (bool, error) {
	if c == nil {
		return false, nil
	}

	_, err := c.client.Get(ctx, keyPrefix+fingerprint).Result()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("get fingerprint: %w", err)
	}
	return true, nil
}

// Mark records the fingerprint, refreshing its retention.
func (c *Cache) Mark(ctx context.Context, fingerprint string) error {
	if c == nil {
		return nil
	}

	if err := c.client.Set(ctx, keyPrefix+fingerprint, "1", c.ttl).Err(); err != nil {
		return fmt.Errorf("set fingerprint: %w", err)
	}
	return nil
}
