// Package registry holds the gateway's live mapping of open devices.
//
// The registry is keyed by host name and stores one presence.View per device.
// It is created empty when the gateway starts and discarded on shutdown; it
// is never persisted.
//
// # Ownership
//
// The gateway dispatcher is the only writer. Other components (the status
// API, tests) read through Snapshot or Get, which copy under a read lock and
// hold it only for the duration of the copy.
//
// # No-op Semantics
//
// UpsertOpen on a present host and Remove on an absent host both succeed
// without changing anything. Neither ever returns an error; the boolean
// results report whether membership changed.
package registry
