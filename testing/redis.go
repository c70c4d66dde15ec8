package testing

import (
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

// StartMiniredis starts an in-process Redis server for testing the Redis
// lease store.
//
// miniredis executes the store's Lua scripts and supports TTL expiry via
// FastForward, so lease takeover scenarios run without sleeping. Server and
// client are cleaned up automatically when the test completes.
//
// Example:
//
//	func TestRedisStore(t *testing.T) {
//	    mr, client := ccoordtest.StartMiniredis(t)
//	    st := store.NewRedisStore(client, "")
//	    // ...
//	    mr.FastForward(21 * time.Second) // expire the lease
//	}
func StartMiniredis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("Failed to start miniredis: %v", err)
	}

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})

	t.Cleanup(func() {
		_ = client.Close()
		mr.Close()
	})

	return mr, client
}
