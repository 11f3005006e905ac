// Package engine implements the commitment-escrow state machine.
//
// The engine is the only entry point for mutations: every external call
// resolves its target record through the store, validates preconditions
// against current record state and the injected clock and caller identity,
// mutates the record, and - for the two claim operations - performs exactly
// one outbound value transfer.
//
// ARCHITECTURE:
//
// Single-Writer Discipline:
// The engine processes all calls from a single goroutine. Each call runs to
// completion (success or rejection) before the next begins; no operation
// suspends mid-execution. This gives a total order over mutations without
// internal locking.
//
// Operation Flow:
// 1. Re-entrancy guard taken (busy flag; nested calls rejected)
// 2. One SQLite transaction opened
// 3. Record loaded and preconditions checked (typed rejection on violation)
// 4. Record mutated; for claims, terminal flags written BEFORE the transfer
// 5. Audit event appended in the same transaction
// 6. Commit; any failure along the way rolls back to unchanged state
//
// CRITICAL PATTERNS:
//
// Checks-Effects-Interactions:
// Claim operations flip completed/successful/failed before issuing the
// outbound transfer, so a re-entrant call can never observe an unresolved
// record mid-payout. The busy guard backs this up by rejecting any nested
// call outright, and is released unconditionally on every exit path.
//
// Zero-State Rejection:
// Every precondition violation is terminal and synchronous. The transaction
// boundary guarantees a rejected call leaves the database byte-for-byte
// unchanged, including TRANSFER_FAILED after flags were already written.
package engine
