package types

import (
	"context"
	"time"
)

// LeaseStore is the shared backend that arbitrates subscription ownership
// across processes.
//
// A lease record is keyed by subscription id and holds the current owner
// subscriber id plus an expiry instant. The store must guarantee that, at any
// instant it considers "now", at most one subscriber owns a given
// subscription. All three operations must be atomic with respect to
// concurrent callers in other processes; the coordinator never serializes
// cross-process access itself.
//
// Implementations:
//   - store.NATSStore (JetStream KV, recommended)
//   - store.RedisStore
//   - store.MemoryStore (single process, tests)
//
// Errors returned from these methods indicate the store could not answer
// (connectivity, timeout). The coordinator retries them per its retry policy
// and ultimately degrades to "lock not held"; implementations should not
// encode "lease owned by someone else" as an error.
type LeaseStore interface {
	// AcquireOrRefresh atomically grants the subscription lease to
	// subscriberID if no live lease exists, the existing lease is expired,
	// or the existing owner is already subscriberID. On success the expiry
	// is extended to now+leaseDuration.
	//
	// Returns false (with nil error) when the lease is owned by a different,
	// still-live subscriber.
	AcquireOrRefresh(ctx context.Context, subscriptionID, subscriberID string, now time.Time, leaseDuration time.Duration) (bool, error)

	// Renew atomically extends the lease expiry to now+leaseDuration, but
	// only if the current owner equals subscriberID. Returns false when the
	// lease is lost, was never held, or does not exist.
	Renew(ctx context.Context, subscriptionID, subscriberID string, now time.Time, leaseDuration time.Duration) (bool, error)

	// Remove unconditionally deletes the lease record for the subscription.
	// Removing an absent record is not an error.
	Remove(ctx context.Context, subscriptionID string) error
}
