package habit

import (
	"time"

	"github.com/google/uuid"
)

// EventKind names an audit event type.
type EventKind string

const (
	// EventHabitCreated records a new commitment and its captured deposit.
	EventHabitCreated EventKind = "habit_created"

	// EventCheckIn records an accepted check-in with the new count.
	EventCheckIn EventKind = "check_in"

	// EventFundsReturned records a successful claim paying the proposer back.
	EventFundsReturned EventKind = "funds_returned"

	// EventForfeitClaimed records a forfeit claim paying the loss recipient.
	EventForfeitClaimed EventKind = "forfeit_claimed"
)

// Event is one entry in the append-only audit log.
//
// Events are the system's only observable record of what happened: they are
// written in the same transaction as the state change they describe, ordered
// by Seq, and never updated or deleted. They carry no behavior.
type Event struct {
	// Seq is the store-assigned position in the global log.
	Seq int64 `json:"seq"`

	// ID is a unique token for external correlation (UUIDv7 in production,
	// deterministic in tests).
	ID string `json:"id"`

	// Kind is the event type.
	Kind EventKind `json:"kind"`

	// Owner and HabitID locate the record the event describes.
	Owner   Identity `json:"owner"`
	HabitID uint64   `json:"habit_id"`

	// Actor is the identity whose call produced the event. For forfeit
	// claims this is the loss recipient, not the owner.
	Actor Identity `json:"actor"`

	// Amount is the value moved by the event, zero for check-ins.
	Amount uint64 `json:"amount"`

	// Detail is a short human-readable annotation (e.g. the habit title on
	// creation, "day 3 of 5" on a check-in).
	Detail string `json:"detail,omitempty"`

	// OccurredAt is the clock reading at the time of the call.
	OccurredAt time.Time `json:"occurred_at"`
}

// TokenGenerator produces unique event ids.
// Implemented by UUIDv7Generator (production) and the deterministic
// generators in internal/testutil (tests, golden traces).
type TokenGenerator interface {
	Generate() string
}

// UUIDv7Generator generates time-sortable UUIDv7 event ids.
//
// UUIDv7 embeds a timestamp in the most significant bits, so ids sort by
// creation time - helpful when correlating the event log externally.
//
// Thread-safety: stateless, safe for concurrent use.
type UUIDv7Generator struct{}

// Generate returns a new UUIDv7 as a hyphenated string.
// Panics if UUID generation fails (should never happen in practice).
func (UUIDv7Generator) Generate() string {
	return uuid.Must(uuid.NewV7()).String()
}
