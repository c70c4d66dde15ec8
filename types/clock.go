package types

import "time"

// Clock supplies the current instant for lease expiry arithmetic.
//
// The coordinator and the lease stores never call time.Now directly for
// lease decisions; they use the injected Clock so tests can drive simulated
// time. The clock only needs to be consistent enough, relative to the lease
// duration, for TTL comparisons across processes to be meaningful.
type Clock interface {
	// Now returns the current instant.
	Now() time.Time
}

// SystemClock implements Clock using the wall clock.
type SystemClock struct{}

// Compile-time assertion that SystemClock implements Clock.
var _ Clock = SystemClock{}

// Now returns time.Now().
func (SystemClock) Now() time.Time {
	return time.Now()
}
