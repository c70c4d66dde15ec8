package types

// Listener observes lock transitions for registered competing consumers.
//
// Callbacks are delivered synchronously on the goroutine that detected the
// transition (a register/unregister call or a background refresh sweep), in
// the order transitions are observed locally for a given consumer. Keep
// implementations fast and non-blocking.
//
// A panic in one listener is recovered and logged by the coordinator and does
// not suppress delivery to the remaining listeners.
type Listener interface {
	// OnConsumeGranted is called when the consumer transitions into
	// StatusLockAcquired and may start consuming.
	OnConsumeGranted(subscriptionID, subscriberID string)

	// OnConsumeProhibited is called when the consumer transitions out of
	// StatusLockAcquired (lease lost, stolen, or unregistered) and must stop
	// consuming.
	OnConsumeProhibited(subscriptionID, subscriberID string)
}
