// Package oracle implements the prophecy registry service.
//
// A Service has exactly one owner, fixed when it is initialized and
// persisted in the backend. Only the owner may store; anyone may read.
//
// Lifecycle:
//
//	Uninitialized --Initialize(owner)--> Ready
//
// Initialize against a backend that already has an owner fails with
// ALREADY_INITIALIZED. Open resumes a Ready service from such a backend.
//
// Every operation receives its caller and logical time through an explicit
// Call value rather than ambient state, so tests can drive the service with
// synthetic identities and clocks.
//
// Writes are serialised by the service. A Store call either passes the owner
// check and writes the complete record, or fails and writes nothing.
package oracle
