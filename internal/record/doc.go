// Package record defines the values held by the oracle registry.
//
// This package contains type definitions and their encodings only. Every
// other internal package imports record; record imports nothing internal.
//
// Key constraints:
//   - Record fields serialise in the fixed order text, timestamp, creator
//   - Timestamps are unsigned nanosecond values, never floats
//   - A listing is a sequence of [id, record] pairs in first-insertion order
//   - Digests use canonical JSON, never the wire encoding
package record
