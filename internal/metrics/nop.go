// Package metrics provides MetricsCollector implementations for the ccoord
// library.
package metrics

import "github.com/arloliu/ccoord/types"

// NopMetrics implements a no-op metrics collector.
//
// All metrics are discarded. Useful for testing or when external
// metrics collection is used.
type NopMetrics struct{}

// Compile-time assertion that NopMetrics implements MetricsCollector.
var _ types.MetricsCollector = (*NopMetrics)(nil)

// NewNop creates a new no-op metrics collector.
func NewNop() *NopMetrics {
	return &NopMetrics{}
}

// RecordLeaseAcquired discards the lease acquisition metric.
func (n *NopMetrics) RecordLeaseAcquired(_ /* subscriptionID */ string) {
	// No-op
}

// RecordLeaseLost discards the lease loss metric.
func (n *NopMetrics) RecordLeaseLost(_ /* subscriptionID */ string) {
	// No-op
}

// RecordRenewal discards the renewal outcome metric.
func (n *NopMetrics) RecordRenewal(_ /* success */ bool) {
	// No-op
}

// RecordStoreOperation discards the store operation duration metric.
func (n *NopMetrics) RecordStoreOperation(_ /* op */ string, _ /* seconds */ float64) {
	// No-op
}

// RecordNotification discards the notification delivery metric.
func (n *NopMetrics) RecordNotification(_ /* kind */ string) {
	// No-op
}

// SetRegisteredConsumers discards the registered consumers gauge.
func (n *NopMetrics) SetRegisteredConsumers(_ /* count */ int) {
	// No-op
}

// SetHeldLeases discards the held leases gauge.
func (n *NopMetrics) SetHeldLeases(_ /* count */ int) {
	// No-op
}
