package store

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/arloliu/ccoord/types"
)

// DefaultKeyPrefix is the default Redis key prefix for subscription leases.
const DefaultKeyPrefix = "competing-consumer-locks:"

// acquireScript grants or refreshes the lease when the key is absent (free or
// expired server-side) or already owned by this subscriber. ARGV[1] is the
// subscriber id, ARGV[2] the lease duration in milliseconds.
var acquireScript = redis.NewScript(`
local owner = redis.call("GET", KEYS[1])
if owner == false or owner == ARGV[1] then
	redis.call("SET", KEYS[1], ARGV[1], "PX", ARGV[2])
	return 1
end
return 0
`)

// renewScript extends the lease TTL only when this subscriber is still the
// owner.
var renewScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	redis.call("PEXPIRE", KEYS[1], ARGV[2])
	return 1
end
return 0
`)

// RedisStore implements LeaseStore on Redis.
//
// The lease record is a plain key holding the owner subscriber id with a
// server-side TTL; Redis expires lost leases on its own. Both conditional
// operations run as Lua scripts, which Redis executes atomically.
//
// The `now` instant passed by the coordinator is ignored: the Redis server's
// clock arbitrates expiry, which keeps the TTL comparison consistent across
// all competing processes.
type RedisStore struct {
	client redis.UniversalClient
	prefix string
}

// Compile-time assertion that RedisStore implements LeaseStore.
var _ types.LeaseStore = (*RedisStore)(nil)

// NewRedisStore creates a lease store backed by the given Redis client.
// An empty prefix defaults to DefaultKeyPrefix.
func NewRedisStore(client redis.UniversalClient, prefix string) *RedisStore {
	if prefix == "" {
		prefix = DefaultKeyPrefix
	}

	return &RedisStore{client: client, prefix: prefix}
}

// AcquireOrRefresh grants the lease when the key is free or already owned by
// subscriberID, setting the TTL to leaseDuration.
func (r *RedisStore) AcquireOrRefresh(ctx context.Context, subscriptionID, subscriberID string, _ time.Time, leaseDuration time.Duration) (bool, error) {
	if leaseDuration <= 0 {
		return false, ErrInvalidLeaseDuration
	}

	res, err := acquireScript.Run(ctx, r.client, []string{r.key(subscriptionID)}, subscriberID, leaseDuration.Milliseconds()).Int()
	if err != nil {
		return false, fmt.Errorf("failed to acquire lease: %w", err)
	}

	return res == 1, nil
}

// Renew extends the lease TTL only when subscriberID is still the owner.
func (r *RedisStore) Renew(ctx context.Context, subscriptionID, subscriberID string, _ time.Time, leaseDuration time.Duration) (bool, error) {
	if leaseDuration <= 0 {
		return false, ErrInvalidLeaseDuration
	}

	res, err := renewScript.Run(ctx, r.client, []string{r.key(subscriptionID)}, subscriberID, leaseDuration.Milliseconds()).Int()
	if err != nil {
		return false, fmt.Errorf("failed to renew lease: %w", err)
	}

	return res == 1, nil
}

// Remove unconditionally deletes the lease key.
func (r *RedisStore) Remove(ctx context.Context, subscriptionID string) error {
	if err := r.client.Del(ctx, r.key(subscriptionID)).Err(); err != nil {
		return fmt.Errorf("failed to delete lease: %w", err)
	}

	return nil
}

func (r *RedisStore) key(subscriptionID string) string {
	return r.prefix + subscriptionID
}
