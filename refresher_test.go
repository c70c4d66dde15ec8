package ccoord

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/arloliu/ccoord/store"
	ccoordtest "github.com/arloliu/ccoord/testing"
)

// sweepNow runs one synchronous refresh cycle, bypassing the ticker.
func sweepNow(c *Coordinator) {
	c.sweep(make(chan struct{}))
}

func TestRefresh_LeaseTakeoverAfterExpiry(t *testing.T) {
	// Two processes compete for one subscription. A acquires at t=0, stops
	// renewing, and B takes over once the lease expires at t=20s. A's next
	// renewal then fails and A is prohibited, exactly once.
	st := store.NewMemoryStore()
	fc := ccoordtest.NewFakeClock(time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC))

	cfg := TestConfig()
	cfg.LeaseDuration = 20 * time.Second
	cfg.RefreshInterval = 10 * time.Second

	listenerA := &recordingListener{}
	cA, err := New(&cfg, st, WithClock(fc), WithListener(listenerA), WithRetrySeed(1))
	require.NoError(t, err)
	defer cA.Shutdown()

	listenerB := &recordingListener{}
	cB, err := New(&cfg, st, WithClock(fc), WithListener(listenerB), WithRetrySeed(2))
	require.NoError(t, err)
	defer cB.Shutdown()

	ok, err := cA.RegisterCompetingConsumer(t.Context(), "orders", "a")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, 1, listenerA.grantedCount())

	fc.Advance(5 * time.Second)
	ok, err = cB.RegisterCompetingConsumer(t.Context(), "orders", "b")
	require.NoError(t, err)
	require.False(t, ok)
	require.Zero(t, listenerB.grantedCount())

	// B's sweeps while A's lease is live change nothing.
	fc.Advance(5 * time.Second)
	sweepNow(cB)
	require.False(t, cB.HasLock("orders", "b"))

	// Past expiry B's sweep takes the lease over.
	fc.Advance(11 * time.Second)
	sweepNow(cB)
	require.True(t, cB.HasLock("orders", "b"))
	require.Equal(t, 1, listenerB.grantedCount())

	// A's renewal now fails against the new owner: prohibited, exactly once.
	sweepNow(cA)
	require.False(t, cA.HasLock("orders", "a"))
	require.Equal(t, 1, listenerA.prohibitedCount())

	// A stays registered and keeps competing, but silently.
	sweepNow(cA)
	require.Equal(t, 1, cA.Registered())
	require.Equal(t, 1, listenerA.prohibitedCount())
	require.Equal(t, 1, listenerA.grantedCount())
}

func TestRefresh_PicksUpFreedLease(t *testing.T) {
	st := store.NewMemoryStore()
	fc := ccoordtest.NewFakeClock(time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC))

	listenerA := &recordingListener{}
	cA := newTestCoordinator(t, st, WithClock(fc), WithListener(listenerA))

	listenerB := &recordingListener{}
	cB := newTestCoordinator(t, st, WithClock(fc), WithListener(listenerB))

	ok, err := cA.RegisterCompetingConsumer(t.Context(), "orders", "a")
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = cB.RegisterCompetingConsumer(t.Context(), "orders", "b")
	require.NoError(t, err)
	require.False(t, ok)

	// A steps down voluntarily; B's next sweep takes the lease without
	// waiting for expiry.
	require.NoError(t, cA.UnregisterCompetingConsumer(t.Context(), "orders", "a"))

	sweepNow(cB)
	require.True(t, cB.HasLock("orders", "b"))
	require.Equal(t, 1, listenerB.grantedCount())
}

func TestRefresh_RenewFailureProhibits(t *testing.T) {
	t.Run("clean renewal rejection", func(t *testing.T) {
		st := &stubStore{
			renewFn: func(string, string) (bool, error) { return false, nil },
		}
		listener := &recordingListener{}
		c := newTestCoordinator(t, st, WithListener(listener))

		ok, err := c.RegisterCompetingConsumer(t.Context(), "orders", "a")
		require.NoError(t, err)
		require.True(t, ok)

		sweepNow(c)
		require.False(t, c.HasLock("orders", "a"))
		require.Equal(t, 1, listener.prohibitedCount())
	})

	t.Run("renewal errors count as a lost lease", func(t *testing.T) {
		st := &stubStore{
			renewFn: func(string, string) (bool, error) { return false, errStoreDown },
		}
		listener := &recordingListener{}
		c := newTestCoordinator(t, st, WithListener(listener))

		ok, err := c.RegisterCompetingConsumer(t.Context(), "orders", "a")
		require.NoError(t, err)
		require.True(t, ok)

		sweepNow(c)
		require.False(t, c.HasLock("orders", "a"))
		require.Equal(t, 1, listener.prohibitedCount())
	})
}

func TestRefresh_FailureIsolationBetweenConsumers(t *testing.T) {
	// One consumer's store trouble must not skip the rest of the sweep.
	granted := false
	st := &stubStore{
		acquireFn: func(subscriptionID, _ string) (bool, error) {
			if subscriptionID == "flaky" {
				return false, errStoreDown
			}

			return granted, nil
		},
	}
	listener := &recordingListener{}
	c := newTestCoordinator(t, st, WithListener(listener))

	ok, err := c.RegisterCompetingConsumer(t.Context(), "flaky", "x")
	require.NoError(t, err)
	require.False(t, ok)

	ok, err = c.RegisterCompetingConsumer(t.Context(), "healthy", "x")
	require.NoError(t, err)
	require.False(t, ok)

	granted = true
	sweepNow(c)

	require.True(t, c.HasLock("healthy", "x"))
	require.False(t, c.HasLock("flaky", "x"))
	require.Equal(t, 1, listener.grantedCount())
}

func TestRefresh_SweepCannotResurrectUnregistered(t *testing.T) {
	listener := &recordingListener{}
	c := newTestCoordinator(t, store.NewMemoryStore(), WithListener(listener))

	// A sweep outcome arriving after unregister must be dropped.
	id := ConsumerID{SubscriptionID: "orders", SubscriberID: "a"}
	c.applyStatusIfRegistered(id, true)

	require.Zero(t, c.Registered())
	require.False(t, c.HasLock("orders", "a"))
	require.Zero(t, listener.grantedCount())
}

func TestScheduleRefresh(t *testing.T) {
	t.Run("background sweep renews held leases", func(t *testing.T) {
		st := &stubStore{}
		c := newTestCoordinator(t, st)

		ok, err := c.RegisterCompetingConsumer(t.Context(), "orders", "a")
		require.NoError(t, err)
		require.True(t, ok)

		c.ScheduleRefresh()

		require.Eventually(t, func() bool {
			st.mu.Lock()
			defer st.mu.Unlock()

			return st.renews >= 2
		}, 5*time.Second, 10*time.Millisecond)
	})

	t.Run("idempotent", func(t *testing.T) {
		c := newTestCoordinator(t, store.NewMemoryStore())

		require.Same(t, c, c.ScheduleRefresh())
		require.Same(t, c, c.ScheduleRefresh())
	})

	t.Run("no-op after shutdown", func(t *testing.T) {
		st := &stubStore{}
		c := newTestCoordinator(t, st)

		ok, err := c.RegisterCompetingConsumer(t.Context(), "orders", "a")
		require.NoError(t, err)
		require.True(t, ok)

		c.Shutdown()
		c.ScheduleRefresh()

		time.Sleep(4 * c.cfg.RefreshInterval)

		st.mu.Lock()
		defer st.mu.Unlock()
		require.Zero(t, st.renews)
	})

	t.Run("shutdown halts the sweep", func(t *testing.T) {
		st := &stubStore{}
		c := newTestCoordinator(t, st)

		ok, err := c.RegisterCompetingConsumer(t.Context(), "orders", "a")
		require.NoError(t, err)
		require.True(t, ok)

		c.ScheduleRefresh()

		require.Eventually(t, func() bool {
			st.mu.Lock()
			defer st.mu.Unlock()

			return st.renews >= 1
		}, 5*time.Second, 10*time.Millisecond)

		c.Shutdown()

		st.mu.Lock()
		after := st.renews
		st.mu.Unlock()

		time.Sleep(4 * c.cfg.RefreshInterval)

		st.mu.Lock()
		defer st.mu.Unlock()
		require.Equal(t, after, st.renews)
	})
}
