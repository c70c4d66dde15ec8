package ccoord

import "errors"

// Sentinel errors returned by the Coordinator.
var (
	// ErrInvalidConfig is returned when the configuration is invalid.
	ErrInvalidConfig = errors.New("invalid configuration")

	// ErrLeaseStoreRequired is returned when the lease store is nil.
	ErrLeaseStoreRequired = errors.New("lease store is required")

	// ErrEmptySubscriptionID is returned when a subscription id is empty.
	ErrEmptySubscriptionID = errors.New("subscription id cannot be empty")

	// ErrEmptySubscriberID is returned when a subscriber id is empty.
	ErrEmptySubscriberID = errors.New("subscriber id cannot be empty")
)
