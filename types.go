package ccoord

import "github.com/arloliu/ccoord/types"

// Re-export types from the types subpackage.
//
// This file provides a stable public API for the library's core types and
// interfaces via type aliases. Internal packages depend on the `types`
// subpackage directly, which avoids import cycles while still giving users
// the convenient ccoord.Status, ccoord.LeaseStore, etc.
type (
	ConsumerID = types.ConsumerID
	Status     = types.Status
)

// Re-export interfaces from the types subpackage for convenience.
type (
	LeaseStore       = types.LeaseStore
	Listener         = types.Listener
	Clock            = types.Clock
	Logger           = types.Logger
	MetricsCollector = types.MetricsCollector
)

// Re-export Status constants from the types subpackage.
const (
	StatusLockAcquired    = types.StatusLockAcquired
	StatusLockNotAcquired = types.StatusLockNotAcquired
)
