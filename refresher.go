package ccoord

import (
	"context"
	"time"
)

// ScheduleRefresh starts the background refresh sweep and returns the
// coordinator for chaining.
//
// Every RefreshInterval the sweep walks all registered consumers: held
// leases are renewed, unheld ones re-attempt acquisition through the same
// path as RegisterCompetingConsumer. Lost leases are therefore detected, and
// freed leases picked up, within one interval even when no caller is
// actively registering.
//
// Idempotent; a no-op after Shutdown.
func (c *Coordinator) ScheduleRefresh() *Coordinator {
	c.refreshMu.Lock()
	defer c.refreshMu.Unlock()

	if c.refreshing || !c.running.Load() {
		return c
	}

	c.refreshing = true
	c.stopCh = make(chan struct{})
	c.doneCh = make(chan struct{})

	go c.refreshLoop(c.stopCh, c.doneCh)

	return c
}

// refreshLoop drives periodic sweeps until the coordinator shuts down.
func (c *Coordinator) refreshLoop(stopCh <-chan struct{}, doneCh chan<- struct{}) {
	defer close(doneCh)

	ticker := time.NewTicker(c.cfg.RefreshInterval)
	defer ticker.Stop()

	for {
		select {
		case <-stopCh:
			return
		case <-c.ctx.Done():
			return
		case <-ticker.C:
			c.sweep(stopCh)
		}
	}
}

// sweep runs one refresh cycle over every registered consumer.
//
// Failures are isolated per pair: one consumer's store trouble never skips
// the remaining entries. The walk aborts early only on shutdown.
func (c *Coordinator) sweep(stopCh <-chan struct{}) {
	c.logger.Debug("refresh sweep", "consumers", c.consumers.Size())

	c.consumers.Range(func(id ConsumerID, status Status) bool {
		select {
		case <-stopCh:
			return false
		default:
		}

		if status == StatusLockAcquired {
			c.renewHeld(id)
		} else {
			acquired := c.acquireOrRefresh(c.ctx, id.SubscriptionID, id.SubscriberID)
			c.applyStatusIfRegistered(id, acquired)
		}

		return true
	})
}

// renewHeld renews one held lease and downgrades the registration when the
// lease turns out to be lost.
func (c *Coordinator) renewHeld(id ConsumerID) {
	var renewed bool

	start := time.Now()
	err := c.retryer.Execute(c.ctx, func(ctx context.Context) error {
		opCtx, opCancel := context.WithTimeout(ctx, c.cfg.OperationTimeout)
		defer opCancel()

		ok, err := c.store.Renew(opCtx, id.SubscriptionID, id.SubscriberID, c.clock.Now(), c.cfg.LeaseDuration)
		if err != nil {
			return err
		}
		renewed = ok

		return nil
	})
	c.metrics.RecordStoreOperation("renew", time.Since(start).Seconds())

	if err != nil {
		// Shutdown cancels in-flight renewals; that is not a lost lease.
		if !c.running.Load() {
			return
		}

		c.logger.Warn("lease renewal failed",
			"subscription_id", id.SubscriptionID, "subscriber_id", id.SubscriberID, "error", err)
		renewed = false
	}

	c.metrics.RecordRenewal(renewed)

	if renewed {
		return
	}

	c.logger.Debug("lost lease",
		"subscription_id", id.SubscriptionID, "subscriber_id", id.SubscriberID)
	c.applyStatusIfRegistered(id, false)
}
