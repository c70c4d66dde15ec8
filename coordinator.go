package ccoord

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/puzpuzpuz/xsync/v4"

	"github.com/arloliu/ccoord/internal/logging"
	"github.com/arloliu/ccoord/internal/metrics"
	"github.com/arloliu/ccoord/internal/retry"
	"github.com/arloliu/ccoord/types"
)

// Listener notification kinds.
const (
	notifyGranted    = "granted"
	notifyProhibited = "prohibited"
)

// Coordinator arbitrates which subscriber instance, among several competing
// under the same subscription, currently owns the right to consume.
//
// It keeps a local registry of (subscription, subscriber) registrations with
// their cached lock status, drives lease acquisition and renewal against the
// injected LeaseStore, and notifies listeners on grant/revoke transitions.
// Cross-process mutual exclusion comes entirely from the store's atomic
// conditional updates; the Coordinator itself holds no cross-process state.
//
// Thread safety:
//   - All public methods are safe for concurrent use.
//   - Local status transitions are serialized per (subscription, subscriber)
//     pair, so a refresh sweep racing an unregister cannot resurrect or
//     double-notify an entry.
//
// Lifecycle:
//   - Create with New()
//   - Call ScheduleRefresh() to start the background renewal sweep
//   - Register consumers; react to transitions via listeners or HasLock
//   - Call Shutdown() to stop the sweep and disable further retries
type Coordinator struct {
	cfg     Config
	store   LeaseStore
	clock   Clock
	logger  Logger
	metrics MetricsCollector

	// Local registry: cached lock status per registration. Transitions go
	// through Compute so they are atomic per key.
	consumers *xsync.Map[ConsumerID, Status]
	held      atomic.Int64

	listenerMu sync.RWMutex
	listeners  map[Listener]struct{}

	retryer *retry.Executor
	running atomic.Bool

	// Lifecycle management
	ctx    context.Context
	cancel context.CancelFunc

	refreshMu  sync.Mutex
	refreshing bool
	stopCh     chan struct{}
	doneCh     chan struct{}
}

// New creates a Coordinator using the given lease store.
//
// A nil cfg uses DefaultConfig(); a partially filled cfg has missing values
// defaulted in place. The store is the only required collaborator; clock,
// logger, and metrics default to the system clock, a no-op logger, and a
// no-op collector.
//
// The coordinator is live immediately: register calls work before
// ScheduleRefresh() is called, they just won't be refreshed in the
// background until it is.
func New(cfg *Config, store LeaseStore, opts ...Option) (*Coordinator, error) {
	if store == nil {
		return nil, ErrLeaseStoreRequired
	}

	if cfg == nil {
		defaults := DefaultConfig()
		cfg = &defaults
	}

	SetDefaults(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}

	options := &coordinatorOptions{}
	for _, opt := range opts {
		opt(options)
	}

	// Provide safe defaults for optional dependencies to avoid nil checks everywhere
	clock := options.clock
	if clock == nil {
		clock = types.SystemClock{}
	}

	logger := options.logger
	if logger == nil {
		logger = logging.NewNop()
	}

	collector := options.metrics
	if collector == nil {
		collector = metrics.NewNop()
	}

	cfg.ValidateWithWarnings(logger)

	c := &Coordinator{
		cfg:       *cfg,
		store:     store,
		clock:     clock,
		logger:    logger,
		metrics:   collector,
		consumers: xsync.NewMap[ConsumerID, Status](),
		listeners: make(map[Listener]struct{}),
	}
	c.ctx, c.cancel = context.WithCancel(context.Background())
	c.running.Store(true)
	c.retryer = retry.New(retry.Config{
		MaxAttempts: cfg.Retry.MaxAttempts,
		BaseBackoff: cfg.Retry.BaseBackoff,
		MaxBackoff:  cfg.Retry.MaxBackoff,
		Multiplier:  cfg.Retry.Multiplier,
		Seed:        options.retrySeed,
	}, c.running.Load)

	for _, l := range options.listeners {
		c.listeners[l] = struct{}{}
	}

	return c, nil
}

// RegisterCompetingConsumer registers subscriberID as a competing consumer of
// subscriptionID and attempts to acquire (or refresh) the subscription lease.
//
// Returns whether the lease is now held. A store that cannot be reached
// after the retry schedule counts as "not held" rather than an error; the
// background sweep keeps retrying. Registering an already registered pair is
// valid and re-drives the acquire path.
//
// Fires OnConsumeGranted when the registration transitions into
// StatusLockAcquired; repeated successful refreshes stay silent.
func (c *Coordinator) RegisterCompetingConsumer(ctx context.Context, subscriptionID, subscriberID string) (bool, error) {
	if err := validateIDs(subscriptionID, subscriberID); err != nil {
		return false, err
	}

	acquired := c.acquireOrRefresh(ctx, subscriptionID, subscriberID)
	c.logger.Debug("registered competing consumer",
		"subscription_id", subscriptionID, "subscriber_id", subscriberID, "acquired", acquired)

	c.applyStatus(ConsumerID{SubscriptionID: subscriptionID, SubscriberID: subscriberID}, acquired)

	return acquired, nil
}

// UnregisterCompetingConsumer removes the registration and best-effort
// releases the subscription lease in the store.
//
// Fires OnConsumeProhibited when the removed registration held the lease.
// Unregistering an absent pair is a no-op that produces no notification. A
// failed store release is logged, not returned; the lease then simply
// expires on its own.
func (c *Coordinator) UnregisterCompetingConsumer(ctx context.Context, subscriptionID, subscriberID string) error {
	if err := validateIDs(subscriptionID, subscriberID); err != nil {
		return err
	}

	id := ConsumerID{SubscriptionID: subscriptionID, SubscriberID: subscriberID}
	old, loaded := c.consumers.LoadAndDelete(id)
	c.logger.Debug("unregistered competing consumer",
		"subscription_id", subscriptionID, "subscriber_id", subscriberID, "was_registered", loaded)

	start := time.Now()
	err := c.retryer.Execute(ctx, func(ctx context.Context) error {
		opCtx, opCancel := context.WithTimeout(ctx, c.cfg.OperationTimeout)
		defer opCancel()

		return c.store.Remove(opCtx, subscriptionID)
	})
	c.metrics.RecordStoreOperation("remove", time.Since(start).Seconds())
	if err != nil {
		c.logger.Warn("lease release failed, lease will expire on its own",
			"subscription_id", subscriptionID, "error", err)
	}

	if loaded && old == StatusLockAcquired {
		c.held.Add(-1)
		c.metrics.RecordLeaseLost(subscriptionID)
		c.notify(notifyProhibited, id)
	}
	c.updateGauges()

	return nil
}

// HasLock reports whether subscriberID currently holds the lease for
// subscriptionID, as cached by the most recent register call or refresh
// sweep. Pure local read, never blocks; may lag true store state by up to
// one refresh interval.
func (c *Coordinator) HasLock(subscriptionID, subscriberID string) bool {
	status, ok := c.consumers.Load(ConsumerID{SubscriptionID: subscriptionID, SubscriberID: subscriberID})

	return ok && status == StatusLockAcquired
}

// AddListener registers a listener for grant/revoke notifications.
// Adding a nil or already registered listener is a no-op.
func (c *Coordinator) AddListener(listener Listener) {
	if listener == nil {
		return
	}

	c.listenerMu.Lock()
	defer c.listenerMu.Unlock()

	c.listeners[listener] = struct{}{}
}

// RemoveListener removes a previously added listener.
// Removing an unknown listener is a no-op.
func (c *Coordinator) RemoveListener(listener Listener) {
	if listener == nil {
		return
	}

	c.listenerMu.Lock()
	defer c.listenerMu.Unlock()

	delete(c.listeners, listener)
}

// Registered returns the number of locally registered competing consumers.
func (c *Coordinator) Registered() int {
	return c.consumers.Size()
}

// HeldLeases returns a snapshot of the registrations currently holding their
// subscription lease.
func (c *Coordinator) HeldLeases() []ConsumerID {
	var held []ConsumerID
	c.consumers.Range(func(id ConsumerID, status Status) bool {
		if status == StatusLockAcquired {
			held = append(held, id)
		}

		return true
	})

	return held
}

// Shutdown stops the background refresh sweep and disables further retries.
//
// Fire-and-forget: in-flight retry schedules abort after their current
// attempt, so Shutdown never waits out a backoff ceiling. Idempotent. The
// local registry is left as-is; leases held by this process expire on their
// own unless unregistered first.
func (c *Coordinator) Shutdown() {
	if !c.running.CompareAndSwap(true, false) {
		return
	}

	c.logger.Debug("shutting down")
	c.cancel()

	c.refreshMu.Lock()
	var done chan struct{}
	if c.refreshing {
		close(c.stopCh)
		done = c.doneCh
		c.refreshing = false
	}
	c.refreshMu.Unlock()

	if done != nil {
		<-done
	}
}

// acquireOrRefresh drives one retried acquire-or-refresh store call and maps
// store unavailability to "not held".
func (c *Coordinator) acquireOrRefresh(ctx context.Context, subscriptionID, subscriberID string) bool {
	var acquired bool

	start := time.Now()
	err := c.retryer.Execute(ctx, func(ctx context.Context) error {
		opCtx, opCancel := context.WithTimeout(ctx, c.cfg.OperationTimeout)
		defer opCancel()

		ok, err := c.store.AcquireOrRefresh(opCtx, subscriptionID, subscriberID, c.clock.Now(), c.cfg.LeaseDuration)
		if err != nil {
			return err
		}
		acquired = ok

		return nil
	})
	c.metrics.RecordStoreOperation("acquire", time.Since(start).Seconds())

	if err != nil {
		c.logger.Warn("lease acquisition failed, treating lock as not held",
			"subscription_id", subscriptionID, "subscriber_id", subscriberID, "error", err)

		return false
	}

	return acquired
}

// applyStatus applies the observed acquire outcome for id, creating the
// registry entry if needed, and fires notifications on transitions.
func (c *Coordinator) applyStatus(id ConsumerID, acquired bool) {
	c.apply(id, acquired, false)
}

// applyStatusIfRegistered is the refresher variant of applyStatus: the
// outcome is dropped when the entry was unregistered while the store call
// was in flight, so a stale sweep result can never resurrect a registration.
func (c *Coordinator) applyStatusIfRegistered(id ConsumerID, acquired bool) {
	c.apply(id, acquired, true)
}

func (c *Coordinator) apply(id ConsumerID, acquired bool, onlyIfRegistered bool) {
	newStatus := StatusLockNotAcquired
	if acquired {
		newStatus = StatusLockAcquired
	}

	var (
		applied bool
		wasHeld bool
	)
	c.consumers.Compute(id, func(old Status, loaded bool) (Status, xsync.ComputeOp) {
		if !loaded && onlyIfRegistered {
			return old, xsync.CancelOp
		}

		applied = true
		wasHeld = loaded && old == StatusLockAcquired

		if loaded && old == newStatus {
			return old, xsync.CancelOp
		}

		return newStatus, xsync.UpdateOp
	})

	if !applied {
		return
	}

	switch {
	case !wasHeld && acquired:
		c.held.Add(1)
		c.metrics.RecordLeaseAcquired(id.SubscriptionID)
		c.logger.Debug("consumption granted",
			"subscription_id", id.SubscriptionID, "subscriber_id", id.SubscriberID)
		c.notify(notifyGranted, id)
	case wasHeld && !acquired:
		c.held.Add(-1)
		c.metrics.RecordLeaseLost(id.SubscriptionID)
		c.logger.Debug("consumption prohibited",
			"subscription_id", id.SubscriptionID, "subscriber_id", id.SubscriberID)
		c.notify(notifyProhibited, id)
	}
	c.updateGauges()
}

// notify delivers one transition to all listeners. Delivery is synchronous
// on the calling goroutine; a panicking listener is logged and does not
// suppress the remaining listeners.
func (c *Coordinator) notify(kind string, id ConsumerID) {
	c.listenerMu.RLock()
	snapshot := make([]Listener, 0, len(c.listeners))
	for l := range c.listeners {
		snapshot = append(snapshot, l)
	}
	c.listenerMu.RUnlock()

	for _, l := range snapshot {
		c.deliver(kind, l, id)
	}
}

func (c *Coordinator) deliver(kind string, l Listener, id ConsumerID) {
	defer func() {
		if r := recover(); r != nil {
			c.logger.Error("listener panicked",
				"kind", kind,
				"subscription_id", id.SubscriptionID,
				"subscriber_id", id.SubscriberID,
				"panic", r)
		}
	}()

	c.metrics.RecordNotification(kind)

	if kind == notifyGranted {
		l.OnConsumeGranted(id.SubscriptionID, id.SubscriberID)
	} else {
		l.OnConsumeProhibited(id.SubscriptionID, id.SubscriberID)
	}
}

func (c *Coordinator) updateGauges() {
	c.metrics.SetRegisteredConsumers(c.consumers.Size())
	c.metrics.SetHeldLeases(int(c.held.Load()))
}

func validateIDs(subscriptionID, subscriberID string) error {
	if subscriptionID == "" {
		return ErrEmptySubscriptionID
	}
	if subscriberID == "" {
		return ErrEmptySubscriberID
	}

	return nil
}
