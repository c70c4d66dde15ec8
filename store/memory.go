package store

import (
	"context"
	"sync"
	"time"

	"github.com/arloliu/ccoord/types"
)

// MemoryStore is an in-process LeaseStore.
//
// Expiry decisions use the `now` instant passed by the caller, so tests can
// drive lease expiry with a fake clock instead of sleeping. Not usable for
// cross-process coordination.
type MemoryStore struct {
	mu     sync.Mutex
	leases map[string]memoryLease
}

type memoryLease struct {
	subscriberID string
	expiresAt    time.Time
}

// Compile-time assertion that MemoryStore implements LeaseStore.
var _ types.LeaseStore = (*MemoryStore)(nil)

// NewMemoryStore creates an empty in-process lease store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		leases: make(map[string]memoryLease),
	}
}

// AcquireOrRefresh grants the lease when it is free, expired at `now`, or
// already owned by subscriberID.
func (m *MemoryStore) AcquireOrRefresh(_ context.Context, subscriptionID, subscriberID string, now time.Time, leaseDuration time.Duration) (bool, error) {
	if leaseDuration <= 0 {
		return false, ErrInvalidLeaseDuration
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	rec, ok := m.leases[subscriptionID]
	if ok && rec.subscriberID != subscriberID && now.Before(rec.expiresAt) {
		return false, nil
	}

	m.leases[subscriptionID] = memoryLease{
		subscriberID: subscriberID,
		expiresAt:    now.Add(leaseDuration),
	}

	return true, nil
}

// Renew extends the lease only when subscriberID is still the owner.
func (m *MemoryStore) Renew(_ context.Context, subscriptionID, subscriberID string, now time.Time, leaseDuration time.Duration) (bool, error) {
	if leaseDuration <= 0 {
		return false, ErrInvalidLeaseDuration
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	rec, ok := m.leases[subscriptionID]
	if !ok || rec.subscriberID != subscriberID {
		return false, nil
	}

	rec.expiresAt = now.Add(leaseDuration)
	m.leases[subscriptionID] = rec

	return true, nil
}

// Remove deletes the lease record. Removing an absent record is a no-op.
func (m *MemoryStore) Remove(_ context.Context, subscriptionID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.leases, subscriptionID)

	return nil
}

// Owner returns the current lease owner for a subscription, ignoring expiry.
// Intended for tests and diagnostics.
func (m *MemoryStore) Owner(subscriptionID string) (string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	rec, ok := m.leases[subscriptionID]
	if !ok {
		return "", false
	}

	return rec.subscriberID, true
}
