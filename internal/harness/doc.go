// Package harness runs catalog scenarios described in YAML.
//
// A scenario seeds a fresh in-memory store, drives the catalog through a
// flow of steps (sessions, mutations and reads), checks per-step
// expectations, and evaluates assertions on the final state. Every
// dispatcher transition is recorded in a trace with deterministic tokens so
// that runs can be compared against golden files.
//
// Example:
//
//	name: add_then_list
//	description: a created recipe is listed
//	flow:
//	  - do: add
//	    edits:
//	      - {op: set_name, value: Soup}
//	    expect: {navigated: /recipe/1}
//	  - do: list
//	    expect: {names: [Soup]}
//	assertions:
//	  - {type: version, equals: 1}
package harness
