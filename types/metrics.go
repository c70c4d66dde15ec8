package types

// MetricsCollector receives coordinator instrumentation events.
//
// All methods must be safe for concurrent use. The default implementation is
// a no-op collector; a Prometheus-backed collector is provided in
// internal/metrics and selected with the WithMetrics option.
type MetricsCollector interface {
	// RecordLeaseAcquired records a transition into StatusLockAcquired.
	RecordLeaseAcquired(subscriptionID string)

	// RecordLeaseLost records a transition out of StatusLockAcquired,
	// including voluntary unregistration.
	RecordLeaseLost(subscriptionID string)

	// RecordRenewal records the outcome of one background renewal attempt.
	RecordRenewal(success bool)

	// RecordStoreOperation records the duration of one lease-store call
	// (acquire, renew, or remove) in seconds, including retries.
	RecordStoreOperation(op string, seconds float64)

	// RecordNotification records one listener notification delivery by kind
	// ("granted" or "prohibited").
	RecordNotification(kind string)

	// SetRegisteredConsumers sets the current number of locally registered
	// competing consumers.
	SetRegisteredConsumers(count int)

	// SetHeldLeases sets the current number of leases held by this process.
	SetHeldLeases(count int)
}
