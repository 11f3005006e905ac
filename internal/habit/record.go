package habit

import "time"

// Identity is an authenticated account name supplied by the calling
// environment. The engine trusts it as-is; there is no further verification.
type Identity string

// Value and cadence constants.
//
// Deposits are denominated in abstract integer value units: 1 coin = 10,000
// units. MinLockup is therefore 0.01 of a whole coin.
const (
	// MinLockup is the smallest deposit accepted at creation, in value units.
	MinLockup uint64 = 100

	// MinHabitDays is the shortest commitment window accepted at creation.
	MinHabitDays uint64 = 3

	// Day is the cadence unit. One check-in is accepted per rolling Day,
	// measured from the last accepted check-in, not from midnight.
	Day = 24 * time.Hour
)

// Status is the derived lifecycle state of a record.
type Status string

const (
	// StatusInProgress means the record has not been resolved by either
	// claim path. A record can be successful (target met) and still
	// in progress until the proposer claims.
	StatusInProgress Status = "in_progress"

	// StatusSuccessful means the proposer claimed the deposit back.
	StatusSuccessful Status = "successful"

	// StatusFailed means the loss recipient claimed the forfeited deposit.
	StatusFailed Status = "failed"
)

// Record is one habit commitment. One record exists per (owner, id); ids are
// dense per-owner indexes assigned at creation and never reused or reordered.
//
// INVARIANTS (hold at every observable point):
//   - Amount is deposited exactly once (at creation) and withdrawn exactly
//     once, by whichever claim path fires first.
//   - Completed is true iff exactly one of Successful/Failed resolved the
//     record; Successful and Failed are mutually exclusive once terminal.
//   - LastCheckIn strictly increases on each accepted check-in and is never
//     earlier than CreatedAt - Day (the creation sentinel).
type Record struct {
	// ID is the record's position in its owner's collection.
	ID uint64

	// Title is a user-supplied label, opaque to all logic.
	// NFC-normalized at creation.
	Title string

	// Proposer is the user who created and owns the record.
	Proposer Identity

	// LossRecipient receives the deposit if the habit is not completed in
	// time. Fixed at creation.
	LossRecipient Identity

	// Amount is the locked deposit in value units. Fixed at creation and
	// paid out exactly once.
	Amount uint64

	// WindowDays is the target number of daily check-ins.
	WindowDays uint64

	// Expiry is the earliest instant the success claim may be exercised:
	// CreatedAt + WindowDays days.
	Expiry time.Time

	// CheckedInDays counts accepted check-ins. Monotonically non-decreasing
	// and never exceeds WindowDays (check-ins are rejected once the target
	// is reached).
	CheckedInDays uint64

	// LastCheckIn is the time of the most recent accepted check-in. At
	// creation it is set to CreatedAt - Day so the first check-in is
	// immediately eligible.
	LastCheckIn time.Time

	// Completed is the single terminal flag, set exactly once by whichever
	// claim path fires first.
	Completed bool

	// Successful is set when CheckedInDays reaches WindowDays. It does NOT
	// imply Completed - a record can be successful yet unclaimed.
	Successful bool

	// Failed is set by the forfeit path.
	Failed bool

	// CreatedAt is the creation time reported by the injected clock.
	CreatedAt time.Time
}

// Status derives the lifecycle state from the terminal flags.
func (r Record) Status() Status {
	switch {
	case r.Completed && r.Failed:
		return StatusFailed
	case r.Completed && r.Successful:
		return StatusSuccessful
	default:
		return StatusInProgress
	}
}

// TargetMet reports whether the check-in target has been reached,
// independent of whether the record has been claimed.
func (r Record) TargetMet() bool {
	return r.CheckedInDays >= r.WindowDays
}
