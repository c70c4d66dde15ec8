// Package ccoord provides lease-based competing-consumer coordination for
// event subscriptions.
//
// When several instances of the same service subscribe under one logical
// subscription, only one of them should actively consume at a time so that
// per-subscription ordering is preserved. ccoord arbitrates this with
// time-bounded leases in a shared store: each process registers its
// (subscription, subscriber) pairs with a Coordinator, which acquires and
// renews leases through atomic conditional updates and tells the process --
// via HasLock and listener callbacks -- whether it currently owns the right
// to consume.
//
// # Quick Start
//
//	kv, _ := store.EnsureLockBucket(ctx, js, store.DefaultBucket, 3)
//	coord, err := ccoord.New(nil, store.NewNATSStore(kv))
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer coord.Shutdown()
//
//	coord.AddListener(myListener)
//	coord.ScheduleRefresh()
//
//	subscriberID := ccoord.NewSubscriberID()
//	acquired, err := coord.RegisterCompetingConsumer(ctx, "orders", subscriberID)
//
// # Key Properties
//
//   - At most one subscriber per subscription holds the lease at any instant,
//     enforced by the store's atomic conditional updates; no central
//     coordinator process and no consensus protocol.
//   - Lost leases are detected within one refresh interval by a background
//     sweep; listeners see exactly one notification per transition.
//   - Store outages degrade to "lock not held" and are retried on later
//     cycles; they never crash the coordinator.
//   - Shutdown aborts in-flight retry schedules promptly, so process exit is
//     never delayed by a backoff ceiling.
//
// # Backends
//
// The shared store is abstracted behind the LeaseStore interface. The store
// subpackage ships NATS JetStream KV, Redis, and in-memory backends; any
// backend offering an atomic acquire-or-refresh primitive can be plugged in.
package ccoord
