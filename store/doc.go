// Package store provides LeaseStore backends for the ccoord coordinator.
//
// Three implementations are included:
//
//   - NATSStore: leases in a NATS JetStream KV bucket, using Create and
//     Update-with-revision for atomic conditional updates. Recommended for
//     deployments already running NATS.
//   - RedisStore: leases as Redis keys with server-side TTL, using Lua
//     scripts for owner-conditional set and extend.
//   - MemoryStore: in-process map, honoring the injected clock. Intended for
//     tests and single-process use.
//
// All backends implement the same contract: at most one subscriber owns a
// subscription's lease at any instant the backend considers "now", and
// ownership changes only through the atomic operations of types.LeaseStore.
package store
