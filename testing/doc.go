// Package testing provides helpers for testing code that depends on ccoord:
// an embedded NATS server with JetStream, an in-process Redis, a fake clock
// for driving lease expiry without sleeping, and a testing.T-backed logger.
//
// Import it with an alias to avoid clashing with the standard library:
//
//	ccoordtest "github.com/arloliu/ccoord/testing"
package testing
