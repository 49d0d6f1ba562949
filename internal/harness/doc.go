// Package harness provides conformance testing for interface definitions.
//
// The harness compiles CUE interface sources, checks one interface for
// consistency and inheritance, and compares the findings with what the
// scenario expects.
//
// # Scenario Format
//
// Scenarios are defined in YAML files with the following structure:
//
//	name: scenario_name
//	description: "What this scenario validates"
//	specs:
//	  - testdata/specs/assets
//	interface: BurnableAsset
//	run_id: test-run-0001
//	expect:
//	  valid: false
//	  violations:
//	    - code: E203
//	      op: transition 'transfer'
//	      field: beneficiary
//	  inheritance:
//	    - code: E305
//	      field: FungibleAsset
//	assertions:
//	  - type: declares
//	    table: transition
//	    name: burn
//	  - type: violation_count
//	    code: E203
//	    count: 1
//	  - type: inherits
//	    parent: FungibleAsset
//
// # Assertion Types
//
//   - declares: the interface declares a name in one of its tables
//   - violation_count: a code is reported exactly N times
//   - inherits: the interface inherits a compiled interface by name
//
// # Deterministic Testing
//
// Every run uses a fresh in-memory registry. The trace records only names
// and codes, so it is stable across runs; with a fixed run_id the whole
// snapshot compares byte-for-byte against a golden file.
//
// # Usage
//
//	scenario, err := harness.LoadScenario("testdata/scenarios/burnable.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	result, err := harness.Run(scenario)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if !result.Pass {
//	    for _, msg := range result.Errors {
//	        log.Println(msg)
//	    }
//	}
package harness
