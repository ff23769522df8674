// Package store provides durable storage for the oracle registry.
//
// The package defines the RecordStore, OwnerStore and Backend contracts and
// the default SQLite implementation. Sub-packages provide the in-memory
// (memstore) and Postgres (pgstore) backends; storetest holds the shared
// conformance suite.
//
// # Ordering
//
// Every id is assigned a slot on first insertion. Listings are ORDER BY slot
// ASC. Overwrites update text, timestamp and creator but never the slot, so
// an id keeps its position for the life of the store.
//
// # Ownership
//
// The owner is written once to the meta table. A second InitOwner returns
// ErrOwnerAlreadySet and leaves the stored owner untouched.
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
package store
