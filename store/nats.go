package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/nats-io/nats.go/jetstream"

	"github.com/arloliu/ccoord/types"
)

// DefaultBucket is the default JetStream KV bucket name for subscription
// leases.
const DefaultBucket = "competing-consumer-locks"

// natsLease is the persisted lease record. The expiry instant travels in the
// value rather than relying on bucket TTL, so each call can carry its own
// lease duration and expiry is judged against the injected clock.
type natsLease struct {
	SubscriberID string    `json:"subscriber_id"`
	ExpiresAt    time.Time `json:"expires_at"`
}

// NATSStore implements LeaseStore on a NATS JetStream KV bucket.
//
// Uses atomic KV operations for lease arbitration:
//   - Create (atomic): acquire when no lease record exists
//   - Update (with revision): refresh/renew only if the record observed by
//     Get has not changed in between
//   - Delete: release
//
// A lost Create or Update race is reported as "not acquired" rather than an
// error; only connectivity and context failures surface as errors.
//
// Subscription ids are used directly as KV keys and must therefore be valid
// JetStream KV keys (alphanumerics, '-', '_', '/', '=', '.').
type NATSStore struct {
	kv jetstream.KeyValue
}

// Compile-time assertion that NATSStore implements LeaseStore.
var _ types.LeaseStore = (*NATSStore)(nil)

// NewNATSStore creates a lease store backed by the given KV bucket.
//
// The bucket should be created without a TTL; expiry is tracked inside the
// lease records. Use EnsureLockBucket to create or open a suitable bucket.
func NewNATSStore(kv jetstream.KeyValue) *NATSStore {
	return &NATSStore{kv: kv}
}

// EnsureLockBucket creates or opens the lease KV bucket with retry logic.
//
// Handles the race where multiple processes create the same bucket
// concurrently, retrying transient failures with exponential backoff. An
// empty bucket name defaults to DefaultBucket.
func EnsureLockBucket(ctx context.Context, js jetstream.JetStream, bucket string, maxRetries int) (jetstream.KeyValue, error) {
	if bucket == "" {
		bucket = DefaultBucket
	}
	if maxRetries <= 0 {
		maxRetries = 3
	}

	config := jetstream.KeyValueConfig{
		Bucket:      bucket,
		Description: "ccoord competing-consumer leases",
	}

	var lastErr error

	for attempt := 0; attempt < maxRetries; attempt++ {
		kv, err := js.CreateKeyValue(ctx, config)
		if err == nil {
			return kv, nil
		}

		// Another process won the creation race; open the existing bucket.
		if errors.Is(err, jetstream.ErrBucketExists) {
			kv, err := js.KeyValue(ctx, bucket)
			if err == nil {
				return kv, nil
			}
			lastErr = fmt.Errorf("bucket exists but failed to open: %w", err)
		} else {
			lastErr = err
		}

		if ctx.Err() != nil {
			return nil, fmt.Errorf("context cancelled during lock bucket creation: %w", ctx.Err())
		}

		if attempt < maxRetries-1 {
			backoff := time.Duration(1<<uint(attempt)) * 10 * time.Millisecond //nolint:gosec // attempt is bounded by maxRetries, no overflow risk
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(backoff):
			}
		}
	}

	return nil, fmt.Errorf("failed to create/open lock bucket %s after %d attempts: %w",
		bucket, maxRetries, lastErr)
}

// AcquireOrRefresh grants the lease when no record exists, the record is
// expired at `now`, or subscriberID already owns it.
func (s *NATSStore) AcquireOrRefresh(ctx context.Context, subscriptionID, subscriberID string, now time.Time, leaseDuration time.Duration) (bool, error) {
	if leaseDuration <= 0 {
		return false, ErrInvalidLeaseDuration
	}

	value, err := encodeLease(subscriberID, now.Add(leaseDuration))
	if err != nil {
		return false, err
	}

	entry, err := s.kv.Get(ctx, subscriptionID)
	if errors.Is(err, jetstream.ErrKeyNotFound) {
		_, err := s.kv.Create(ctx, subscriptionID, value)
		if err != nil {
			// Another subscriber created the record first.
			if errors.Is(err, jetstream.ErrKeyExists) {
				return false, nil
			}

			return false, fmt.Errorf("failed to create lease record: %w", err)
		}

		return true, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to read lease record: %w", err)
	}

	rec, err := decodeLease(entry.Value())
	if err != nil {
		return false, err
	}

	// Live lease held by someone else.
	if rec.SubscriberID != subscriberID && now.Before(rec.ExpiresAt) {
		return false, nil
	}

	return s.casUpdate(ctx, subscriptionID, value, entry.Revision())
}

// Renew extends the lease only when subscriberID is still the owner.
func (s *NATSStore) Renew(ctx context.Context, subscriptionID, subscriberID string, now time.Time, leaseDuration time.Duration) (bool, error) {
	if leaseDuration <= 0 {
		return false, ErrInvalidLeaseDuration
	}

	entry, err := s.kv.Get(ctx, subscriptionID)
	if errors.Is(err, jetstream.ErrKeyNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to read lease record: %w", err)
	}

	rec, err := decodeLease(entry.Value())
	if err != nil {
		return false, err
	}

	if rec.SubscriberID != subscriberID {
		return false, nil
	}

	value, err := encodeLease(subscriberID, now.Add(leaseDuration))
	if err != nil {
		return false, err
	}

	return s.casUpdate(ctx, subscriptionID, value, entry.Revision())
}

// Remove unconditionally deletes the lease record.
func (s *NATSStore) Remove(ctx context.Context, subscriptionID string) error {
	err := s.kv.Delete(ctx, subscriptionID)
	if err != nil && !errors.Is(err, jetstream.ErrKeyNotFound) {
		return fmt.Errorf("failed to delete lease record: %w", err)
	}

	return nil
}

// casUpdate writes the record only if the revision observed by Get is still
// current. A lost revision race means another subscriber changed the record
// and is reported as "not acquired"; context failures surface as errors.
func (s *NATSStore) casUpdate(ctx context.Context, subscriptionID string, value []byte, revision uint64) (bool, error) {
	_, err := s.kv.Update(ctx, subscriptionID, value, revision)
	if err != nil {
		if ctx.Err() != nil {
			return false, fmt.Errorf("failed to update lease record: %w", err)
		}

		return false, nil
	}

	return true, nil
}

func encodeLease(subscriberID string, expiresAt time.Time) ([]byte, error) {
	data, err := json.Marshal(natsLease{SubscriberID: subscriberID, ExpiresAt: expiresAt})
	if err != nil {
		return nil, fmt.Errorf("failed to encode lease record: %w", err)
	}

	return data, nil
}

func decodeLease(data []byte) (natsLease, error) {
	var rec natsLease
	if err := json.Unmarshal(data, &rec); err != nil {
		return natsLease{}, fmt.Errorf("%w: %w", ErrCorruptLeaseRecord, err)
	}

	return rec, nil
}
