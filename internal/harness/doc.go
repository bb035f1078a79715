// Package harness provides scenario-based conformance testing for the
// record store.
//
// Scenarios are defined in YAML files with the following structure:
//
//	name: scenario_name
//	description: "What this scenario validates"
//	entities: |
//	  entity: booking: {
//	    fields: {
//	      id: { type: "integer", pk: true, auto: true }
//	      name: "text"
//	      price: "decimal"
//	    }
//	  }
//	steps:
//	  - op: create
//	    entity: booking
//	    actor: alice
//	    args: { name: "Room A", price: 100 }
//	    expect:
//	      result: { id: 1 }
//	  - op: update
//	    entity: booking
//	    key: 1
//	    args: { price: 120 }
//	  - op: delete
//	    entity: booking
//	    key: 1
//	    expect:
//	      error: NOT_FOUND
//	assertions:
//	  - type: event_count
//	    entity: booking
//	    key: "1"
//	    count: 3
//	  - type: event_contains
//	    entity: booking
//	    key: "1"
//	    kind: updated
//	    payload: '{"price":{"new":120,"old":100}}'
//	  - type: final_state
//	    entity: booking
//	    key: 1
//	    expect: { price: 120 }
//
// # Assertion Types
//
//   - event_count: Verifies a record's history has exactly N events
//   - event_contains: Verifies an event of the given kind exists for the
//     record, optionally with an exact payload
//   - final_state: Reads the record and verifies expected field values
//     (subset match); expect absent verifies the record is gone
//
// # Deterministic Execution
//
// Every scenario runs against a fresh in-memory database with a fixed
// starting instant and sequential event IDs, so repeated runs produce
// identical event traces. Golden files under testdata/golden capture
// those traces; regenerate them with:
//
//	go test ./internal/harness -update
package harness
