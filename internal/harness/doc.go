// Package harness runs YAML conformance scenarios against a CUE schema.
//
// # Scenario Format
//
//	name: workspace_shapes
//	description: "What this scenario validates"
//	schema: ../../testdata/schema/workspace   # relative to this file
//	shapes:
//	  - from: workspaces
//	    select: "id, team:members(user:users(id))"
//	    expect:
//	      shape: "{id: string, team: Array<{user: {id: string}}>}"
//	      degraded: []
//	filters:
//	  - from: workspaces
//	    path: members.users.id
//	    expect:
//	      type: "Array<string>"
//	requests:
//	  - from: users
//	    select: "id"
//	    where:
//	      - {path: email, op: eq, value: 1}
//	    expect:
//	      error: type
//
// Expected errors are named by kind: parse, unknown_table,
// unknown_segment, incomplete_path, empty_path, type, or error for
// anything else.
//
// # Deterministic Testing
//
// Every run compiles the schema afresh and records shapes into an
// in-memory SQLite catalog driven by testutil.DeterministicClock, with
// sequential request IDs. Snapshots are canonical JSON, so identical
// scenarios give byte-identical golden files.
//
// # Usage
//
//	scenario, err := harness.LoadScenario("testdata/scenarios/workspace_shapes.yaml")
//	if err != nil {
//		return err
//	}
//	result, err := harness.Run(scenario)
//	if err != nil {
//		return err
//	}
//	if !result.Pass {
//		for _, msg := range result.Errors {
//			fmt.Println(msg)
//		}
//	}
package harness
