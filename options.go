package ccoord

// Option configures a Coordinator with optional dependencies.
type Option func(*coordinatorOptions)

// coordinatorOptions holds optional Coordinator configuration.
type coordinatorOptions struct {
	clock     Clock
	logger    Logger
	metrics   MetricsCollector
	listeners []Listener
	retrySeed int64
}

// WithClock sets a custom clock for lease expiry arithmetic.
//
// Defaults to the system wall clock. Inject a fake clock in tests to drive
// simulated time through lease expiry without sleeping.
//
// Example:
//
//	clock := ccoordtest.NewFakeClock(time.Now())
//	coord, _ := ccoord.New(&cfg, st, ccoord.WithClock(clock))
func WithClock(clock Clock) Option {
	return func(o *coordinatorOptions) {
		o.clock = clock
	}
}

// WithLogger sets a logger.
//
// Example:
//
//	logger := logging.NewSlogDefault()
//	coord, _ := ccoord.New(&cfg, st, ccoord.WithLogger(logger))
func WithLogger(logger Logger) Option {
	return func(o *coordinatorOptions) {
		o.logger = logger
	}
}

// WithMetrics sets a metrics collector.
//
// Example:
//
//	collector := metrics.NewPrometheus(nil, "myservice")
//	coord, _ := ccoord.New(&cfg, st, ccoord.WithMetrics(collector))
func WithMetrics(metrics MetricsCollector) Option {
	return func(o *coordinatorOptions) {
		o.metrics = metrics
	}
}

// WithListener registers a listener at construction time, before any
// register call can fire a transition.
func WithListener(listener Listener) Option {
	return func(o *coordinatorOptions) {
		if listener != nil {
			o.listeners = append(o.listeners, listener)
		}
	}
}

// WithRetrySeed sets a deterministic seed for retry backoff jitter.
// Intended for tests; production should keep the default random jitter.
func WithRetrySeed(seed int64) Option {
	return func(o *coordinatorOptions) {
		o.retrySeed = seed
	}
}
