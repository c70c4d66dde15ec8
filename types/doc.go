// Package types contains the shared value types and collaborator interfaces
// of the ccoord library.
//
// It exists as a separate package so internal packages can depend on these
// definitions without importing the root ccoord package, avoiding import
// cycles. The root package re-exports everything here via type aliases, so
// library users normally reference ccoord.LeaseStore, ccoord.Listener, etc.
package types
