package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/arloliu/ccoord/types"
)

// PrometheusCollector implements types.MetricsCollector backed by Prometheus.
//
// Metrics are registered lazily on first use so constructing the collector
// never fails; duplicate registration panics surface on the first recorded
// event instead.
type PrometheusCollector struct {
	reg       prometheus.Registerer
	namespace string
	once      sync.Once

	leaseAcquired  *prometheus.CounterVec
	leaseLost      *prometheus.CounterVec
	renewals       *prometheus.CounterVec
	storeOpLatency *prometheus.HistogramVec
	notifications  *prometheus.CounterVec
	registered     prometheus.Gauge
	heldLeases     prometheus.Gauge
}

// Compile-time assertion that PrometheusCollector implements MetricsCollector.
var _ types.MetricsCollector = (*PrometheusCollector)(nil)

// NewPrometheus creates a new Prometheus-backed metrics collector.
//
// Parameters:
//   - reg: Prometheus registerer interface (uses prometheus.DefaultRegisterer if nil)
//   - namespace: Prometheus metrics namespace (defaults to "ccoord" if empty)
func NewPrometheus(reg prometheus.Registerer, namespace string) *PrometheusCollector {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	if namespace == "" {
		namespace = "ccoord"
	}

	return &PrometheusCollector{reg: reg, namespace: namespace}
}

func (p *PrometheusCollector) ensureRegistered() {
	p.once.Do(func() {
		p.leaseAcquired = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: p.namespace,
			Subsystem: "lease",
			Name:      "acquired_total",
			Help:      "Total transitions into LockAcquired by subscription.",
		}, []string{"subscription"})

		p.leaseLost = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: p.namespace,
			Subsystem: "lease",
			Name:      "lost_total",
			Help:      "Total transitions out of LockAcquired by subscription.",
		}, []string{"subscription"})

		p.renewals = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: p.namespace,
			Subsystem: "lease",
			Name:      "renewals_total",
			Help:      "Total background renewal attempts by result (success,failure).",
		}, []string{"result"})

		p.storeOpLatency = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: p.namespace,
			Subsystem: "store",
			Name:      "operation_seconds",
			Help:      "Latency of lease store operations in seconds, including retries.",
			Buckets:   prometheus.ExponentialBuckets(0.001, 2, 12), // 1ms .. ~4s
		}, []string{"op"})

		p.notifications = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: p.namespace,
			Subsystem: "listener",
			Name:      "notifications_total",
			Help:      "Total listener notifications delivered by kind (granted,prohibited).",
		}, []string{"kind"})

		p.registered = prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: p.namespace,
			Subsystem: "registry",
			Name:      "consumers",
			Help:      "Current number of locally registered competing consumers.",
		})

		p.heldLeases = prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: p.namespace,
			Subsystem: "registry",
			Name:      "held_leases",
			Help:      "Current number of leases held by this process.",
		})

		p.reg.MustRegister(
			p.leaseAcquired,
			p.leaseLost,
			p.renewals,
			p.storeOpLatency,
			p.notifications,
			p.registered,
			p.heldLeases,
		)
	})
}

// RecordLeaseAcquired increments the acquisition counter for the subscription.
func (p *PrometheusCollector) RecordLeaseAcquired(subscriptionID string) {
	p.ensureRegistered()
	p.leaseAcquired.WithLabelValues(subscriptionID).Inc()
}

// RecordLeaseLost increments the loss counter for the subscription.
func (p *PrometheusCollector) RecordLeaseLost(subscriptionID string) {
	p.ensureRegistered()
	p.leaseLost.WithLabelValues(subscriptionID).Inc()
}

// RecordRenewal increments the renewal counter by result.
func (p *PrometheusCollector) RecordRenewal(success bool) {
	p.ensureRegistered()
	result := "failure"
	if success {
		result = "success"
	}
	p.renewals.WithLabelValues(result).Inc()
}

// RecordStoreOperation observes the duration of one store operation.
func (p *PrometheusCollector) RecordStoreOperation(op string, seconds float64) {
	p.ensureRegistered()
	p.storeOpLatency.WithLabelValues(op).Observe(seconds)
}

// RecordNotification increments the notification counter by kind.
func (p *PrometheusCollector) RecordNotification(kind string) {
	p.ensureRegistered()
	p.notifications.WithLabelValues(kind).Inc()
}

// SetRegisteredConsumers sets the registered consumers gauge.
func (p *PrometheusCollector) SetRegisteredConsumers(count int) {
	p.ensureRegistered()
	p.registered.Set(float64(count))
}

// SetHeldLeases sets the held leases gauge.
func (p *PrometheusCollector) SetHeldLeases(count int) {
	p.ensureRegistered()
	p.heldLeases.Set(float64(count))
}
