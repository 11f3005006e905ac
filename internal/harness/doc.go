// Package harness provides conformance testing for the escrow state machine.
//
// The harness runs YAML scenarios against the real engine: a fresh in-memory
// database, a manually advanced clock, and deterministic event ids per run.
// Scenarios fund accounts, execute timed operation steps with expected
// outcomes, and assert on final record state, balances, and the audit trace.
//
// # Scenario Format
//
//	name: scenario_name
//	description: "What this scenario validates"
//	funding:
//	  - account: alice
//	    amount: 1000
//	steps:
//	  - op: create
//	    caller: alice
//	    title: "morning run"
//	    window_days: 5
//	    loss_recipient: bob
//	    deposit: 100
//	    expect: { id: 0 }
//	  - advance: 24h
//	    op: checkin
//	    caller: alice
//	    id: 0
//	    expect: { count: 1 }
//	  - op: checkin
//	    caller: alice
//	    id: 0
//	    expect: { error: TOO_SOON }
//	assertions:
//	  - type: record_state
//	    owner: alice
//	    id: 0
//	    expect: { checked_in_days: 1, completed: false }
//	  - type: balance
//	    account: escrow
//	    amount: 100
//	  - type: event_count
//	    kind: check_in
//	    count: 1
//	  - type: event_order
//	    kinds: [habit_created, check_in]
//
// A step's advance is applied before its operation; a step may also be
// advance-only. Expected errors name codes from the habit error taxonomy.
//
// # Deterministic Testing
//
// Every run starts the clock at testutil.BaseTime and numbers event ids
// evt-0001, evt-0002, ... so the resulting trace is identical across runs
// and comparable against golden files (see RunWithGolden).
package harness
