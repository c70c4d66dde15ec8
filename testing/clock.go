package testing

import (
	"sync"
	"time"

	"github.com/arloliu/ccoord/types"
)

// FakeClock is a manually advanced Clock for simulated-time tests.
//
// Lease expiry in the coordinator and the memory store is computed from the
// injected clock, so tests can walk through whole lease lifetimes by calling
// Advance instead of sleeping. Safe for concurrent use.
type FakeClock struct {
	mu  sync.Mutex
	now time.Time
}

// Compile-time assertion that FakeClock implements Clock.
var _ types.Clock = (*FakeClock)(nil)

// NewFakeClock creates a fake clock frozen at the given instant.
func NewFakeClock(now time.Time) *FakeClock {
	return &FakeClock{now: now}
}

// Now returns the current simulated instant.
func (c *FakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.now
}

// Advance moves the simulated time forward by d.
func (c *FakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.now = c.now.Add(d)
}

// Set moves the simulated time to the given instant.
func (c *FakeClock) Set(now time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.now = now
}
