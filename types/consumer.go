package types

// ConsumerID identifies one registration of a subscriber instance under a
// logical subscription. It is the key of the coordinator's local registry and
// is compared by value: two ConsumerIDs are the same registration if and only
// if both fields are equal.
type ConsumerID struct {
	// SubscriptionID is the opaque identifier of the logical consumer group.
	SubscriptionID string

	// SubscriberID is the opaque identifier of one consumer instance within
	// the subscription.
	SubscriberID string
}

// Status is the locally cached lock state of one registered consumer.
//
// Absence of a registry entry is a distinct implicit state (unregistered);
// Status only describes consumers that are currently registered.
type Status int32

const (
	// StatusLockNotAcquired means the consumer is registered but does not
	// hold the subscription lease.
	StatusLockNotAcquired Status = iota

	// StatusLockAcquired means the consumer holds the subscription lease and
	// is allowed to consume.
	StatusLockAcquired
)

// String returns a human-readable representation of the status.
func (s Status) String() string {
	switch s {
	case StatusLockAcquired:
		return "LockAcquired"
	case StatusLockNotAcquired:
		return "LockNotAcquired"
	default:
		return "Unknown"
	}
}
