// Package harness runs conformance scenarios against the query engine.
//
// # Scenario Format
//
// Scenarios are YAML files:
//
//	name: order_flow
//	description: "What this scenario validates"
//	activities: [Register, Check, Ship]
//	variants:
//	  - id: 1
//	    graphs:
//	      g0: { chain: [Register, Check, Ship] }
//	default_query_type: BFS
//	queries:
//	  - name: register_then_ship
//	    textual: "Register -> Ship"
//	    expect: { ids: [1] }
//	  - name: pattern
//	    pattern: { follows: [{ leaf: [Register] }, { leaf: [Ship] }] }
//	    query_type: VM
//	    expect: { ids: [1] }
//	  - name: composite
//	    logical:
//	      type: and
//	      children:
//	        - { type: query, pattern: { leaf: [Register] } }
//	    expect: { ids: [1] }
//	  - name: bad_syntax
//	    textual: "Register ->> Ship"
//	    expect:
//	      error: { code: LEX_ERROR, position: 11 }
//
// Variants use the variant.Fixture form. Every query names exactly one of
// textual, pattern or logical. query_type applies to pattern queries and
// is the default leaf type for logical ones; it falls back to
// default_query_type and then BFS.
//
// # Deterministic Testing
//
// Each run gets its own snapshot and a SequentialRequestIDs generator, and
// results are compared as canonical JSON, so the same scenario always
// produces byte-identical golden output.
package harness
