package habit

import (
	"errors"
	"fmt"
)

// Code categorizes operation rejections. Every precondition violation maps to
// exactly one code; callers branch on codes, never on message text.
type Code string

const (
	// CodeInsufficientLockup rejects a creation deposit below MinLockup.
	CodeInsufficientLockup Code = "INSUFFICIENT_LOCKUP"

	// CodeInsufficientDuration rejects a window shorter than MinHabitDays.
	CodeInsufficientDuration Code = "INSUFFICIENT_DURATION"

	// CodeCallerNotOwner rejects a call from anyone but the record's proposer.
	CodeCallerNotOwner Code = "CALLER_NOT_OWNER"

	// CodeCallerNotLossRecipient rejects a forfeit claim from anyone but the
	// record's designated loss recipient.
	CodeCallerNotLossRecipient Code = "CALLER_NOT_LOSS_RECIPIENT"

	// CodeTooSoon rejects a check-in before a full day has elapsed since the
	// last accepted check-in.
	CodeTooSoon Code = "TOO_SOON"

	// CodeTooEarly rejects a success claim before the record's expiry.
	CodeTooEarly Code = "TOO_EARLY"

	// CodeCheckInWindowStillOpen rejects a forfeit claim while the proposer
	// has not yet missed a cadence beat.
	CodeCheckInWindowStillOpen Code = "CHECKIN_WINDOW_STILL_OPEN"

	// CodeAlreadyResolved rejects any mutation of a completed record.
	CodeAlreadyResolved Code = "ALREADY_RESOLVED"

	// CodeInsufficientCheckIns rejects a success claim before the target is met.
	CodeInsufficientCheckIns Code = "INSUFFICIENT_CHECKINS"

	// CodeAlreadySucceeded rejects a forfeit claim (or a further check-in)
	// once the check-in target has been met.
	CodeAlreadySucceeded Code = "ALREADY_SUCCEEDED"

	// CodeTransferFailed reports a ledger transfer failure. The entire call
	// rolls back; the record is never left completed with funds unmoved.
	CodeTransferFailed Code = "TRANSFER_FAILED"

	// CodeNotFound reports an id out of bounds for the given owner.
	CodeNotFound Code = "NOT_FOUND"

	// CodeReentrantCall rejects a nested call made while an outer engine
	// call is still executing (e.g. from a transfer callback).
	CodeReentrantCall Code = "REENTRANT_CALL"
)

// Error is a terminal, synchronous rejection of an engine operation.
//
// Every rejection leaves state byte-for-byte unchanged: validation happens
// before mutation, and mutations run inside a transaction that rolls back on
// any failure. There is no internal retry - callers re-invoke after
// satisfying the violated precondition.
type Error struct {
	// Code identifies the rejection category.
	Code Code

	// Op names the rejected operation ("create", "checkin", ...).
	Op string

	// Owner and HabitID locate the record, when one was addressed.
	Owner   Identity
	HabitID uint64

	// Message is a human-readable description.
	Message string

	// Err is the underlying cause, if any (e.g. a ledger failure behind
	// TRANSFER_FAILED).
	Err error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Owner != "" {
		return fmt.Sprintf("%s: %s: %s (owner=%s, id=%d)", e.Op, e.Code, e.Message, e.Owner, e.HabitID)
	}
	return fmt.Sprintf("%s: %s: %s", e.Op, e.Code, e.Message)
}

// Unwrap exposes the underlying cause for errors.Is/As chains.
func (e *Error) Unwrap() error {
	return e.Err
}

// CodeOf extracts the rejection code from err, unwrapping as needed.
// Returns "" for nil or foreign errors.
func CodeOf(err error) Code {
	var he *Error
	if errors.As(err, &he) {
		return he.Code
	}
	return ""
}

// IsCode reports whether err carries the given rejection code.
func IsCode(err error, code Code) bool {
	return CodeOf(err) == code
}
