// Package harness runs oracle scenarios and compares their traces against
// golden files.
//
// # Scenario Format
//
// Scenarios are YAML files:
//
//	name: owner_stores_prophecy
//	description: "The owner writes a prophecy and reads it back"
//	owner: oracle.near
//	steps:
//	  - op: store
//	    caller: oracle.near
//	    id: test_prophecy
//	    text: "The future of Web3 is bright!"
//	  - op: get
//	    id: test_prophecy
//	    expect:
//	      found: true
//	      creator: oracle.near
//	  - op: store
//	    caller: eve.near
//	    id: x
//	    text: hack
//	    expect:
//	      error: UNAUTHORIZED
//	assertions:
//	  - type: absent
//	    id: x
//
// Step ops are store, get, list and init. init attempts a second
// initialization with caller as the proposed owner.
//
// # Assertion Types
//
//   - record_count: the store holds exactly count identifiers
//   - list_order: the full listing has exactly ids, in order
//   - absent: id was never stored
//   - event_count: exactly count record.stored events were published
//
// # Deterministic Testing
//
// Every scenario runs against a fresh in-memory backend with a
// testutil.DeterministicClock starting at 0, so each store step is stamped
// with the next integer and traces are identical across runs.
package harness
