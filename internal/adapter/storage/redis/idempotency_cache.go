package redis

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"time"

	"account-transfer-service/internal/core/domain"

	goredis "github.com/redis/go-redis/v9"
)

// pendingMarker occupies a claimed key until the transfer result replaces
// it. A JSON transfer record can never equal it.
var pendingMarker = []byte("pending")

// releaseScript deletes the key only while it still holds the pending
// marker, so a late Release never drops a stored result.
var releaseScript = goredis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// IdempotencyCache implements ports.IdempotencyCache using Redis. Each key
// moves from absent to pending (Claim) to a stored transfer (Set), or back
// to absent (Release) when the transfer fails.
type IdempotencyCache struct {
	client *goredis.Client
	prefix string
}

// NewIdempotencyCache creates a new Redis-backed idempotency cache.
func NewIdempotencyCache(client *goredis.Client) *IdempotencyCache {
	return &IdempotencyCache{
		client: client,
		prefix: "idempotency:",
	}
}

// Claim reserves key with SET NX. Exactly one concurrent caller gets true;
// the others see the pending marker or the stored result through Get.
func (c *IdempotencyCache) Claim(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	ok, err := c.client.SetNX(ctx, c.prefix+key, pendingMarker, ttl).Result()
	if err != nil {
		return false, fmt.Errorf("redis idempotency claim: %w", err)
	}
	return ok, nil
}

// Get returns the stored transfer JSON, nil if the key is absent, or
// domain.ErrTransferInProgress while the key is claimed without a result.
func (c *IdempotencyCache) Get(ctx context.Context, key string) ([]byte, error) {
	val, err := c.client.Get(ctx, c.prefix+key).Bytes()
	if err != nil {
		if errors.Is(err, goredis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("redis idempotency get: %w", err)
	}
	if bytes.Equal(val, pendingMarker) {
		return nil, domain.ErrTransferInProgress
	}
	return val, nil
}

// Set stores the transfer result, replacing the pending marker.
func (c *IdempotencyCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if err := c.client.Set(ctx, c.prefix+key, value, ttl).Err(); err != nil {
		return fmt.Errorf("redis idempotency set: %w", err)
	}
	return nil
}

// Release drops an unfinished claim so the key can be retried.
func (c *IdempotencyCache) Release(ctx context.Context, key string) error {
	if err := releaseScript.Run(ctx, c.client, []string{c.prefix + key}, pendingMarker).Err(); err != nil {
		return fmt.Errorf("redis idempotency release: %w", err)
	}
	return nil
}
