// Package habit defines the domain model for the commitment-escrow engine:
// the per-user habit record, the error taxonomy shared by every operation,
// the audit event types, and the injected clock and token abstractions.
//
// The package carries no behavior beyond derived state - the state machine
// itself lives in internal/engine, and persistence in internal/store. Keeping
// the types dependency-free lets both of those packages (and the ledger)
// share them without import cycles.
package habit
