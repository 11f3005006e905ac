package engine

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/text/unicode/norm"

	"github.com/spencerwilf/proof-of-habit/internal/habit"
	"github.com/spencerwilf/proof-of-habit/internal/ledger"
	"github.com/spencerwilf/proof-of-habit/internal/store"
)

// EscrowAccount is the engine's custody account. Deposits enter it at
// creation and leave it through exactly one claim per record.
const EscrowAccount habit.Identity = "escrow"

// Engine is the commitment-escrow state machine.
//
// CRITICAL: All mutating methods must be driven from a single goroutine.
// The busy guard detects re-entrant invocation (a transfer callback calling
// back into the engine); it is not a substitute for external serialization.
type Engine struct {
	store  *store.Store
	ledger ledger.Ledger
	clock  habit.Clock
	tokens habit.TokenGenerator

	// busy is the re-entrancy guard. Set for the duration of every mutating
	// call and cleared unconditionally on exit.
	busy bool
}

// New creates an Engine over the given store, ledger, clock, and event id
// generator.
func New(s *store.Store, l ledger.Ledger, clock habit.Clock, tokens habit.TokenGenerator) *Engine {
	return &Engine{
		store:  s,
		ledger: l,
		clock:  clock,
		tokens: tokens,
	}
}

// Create allocates a new habit record for caller and captures the deposit.
//
// Preconditions: deposit >= MinLockup (INSUFFICIENT_LOCKUP), windowDays >=
// MinHabitDays (INSUFFICIENT_DURATION). The deposit moves caller -> escrow
// in the same transaction as the insert, so creation and capture cannot
// partially apply; a ledger failure rejects the call with TRANSFER_FAILED.
//
// The new record starts with lastCheckIn = now - Day, a sentinel that makes
// the first check-in immediately eligible.
//
// Returns the new dense id: the size of the owner's collection immediately
// before the call.
func (e *Engine) Create(ctx context.Context, caller habit.Identity, title string, windowDays uint64, lossRecipient habit.Identity, deposit uint64) (uint64, error) {
	const op = "create"
	if err := e.enter(op, caller, 0); err != nil {
		return 0, err
	}
	defer e.leave()

	if deposit < habit.MinLockup {
		return 0, &habit.Error{
			Code:    habit.CodeInsufficientLockup,
			Op:      op,
			Owner:   caller,
			Message: fmt.Sprintf("deposit %d below minimum lockup %d", deposit, habit.MinLockup),
		}
	}
	if windowDays < habit.MinHabitDays {
		return 0, &habit.Error{
			Code:    habit.CodeInsufficientDuration,
			Op:      op,
			Owner:   caller,
			Message: fmt.Sprintf("window of %d days below minimum %d", windowDays, habit.MinHabitDays),
		}
	}

	now := e.clock.Now()
	rec := habit.Record{
		Title:         norm.NFC.String(title),
		Proposer:      caller,
		LossRecipient: lossRecipient,
		Amount:        deposit,
		WindowDays:    windowDays,
		Expiry:        now.Add(time.Duration(windowDays) * habit.Day),
		LastCheckIn:   now.Add(-habit.Day),
		CreatedAt:     now,
	}

	tx, err := e.store.Begin(ctx)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback() // No-op if committed

	id, err := e.store.CreateHabit(ctx, tx, rec)
	if err != nil {
		return 0, err
	}

	if err := e.ledger.Transfer(ctx, tx, caller, EscrowAccount, deposit); err != nil {
		return 0, &habit.Error{
			Code:    habit.CodeTransferFailed,
			Op:      op,
			Owner:   caller,
			HabitID: id,
			Message: "deposit capture failed",
			Err:     err,
		}
	}

	if err := e.appendEvent(ctx, tx, habit.Event{
		Kind:       habit.EventHabitCreated,
		Owner:      caller,
		HabitID:    id,
		Actor:      caller,
		Amount:     deposit,
		Detail:     rec.Title,
		OccurredAt: now,
	}); err != nil {
		return 0, err
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("%s: commit: %w", op, err)
	}

	slog.Info("habit created",
		"owner", caller,
		"id", id,
		"window_days", windowDays,
		"deposit", deposit,
	)
	return id, nil
}

// CheckIn records one cadence beat for the caller's record at id and returns
// the new count.
//
// Preconditions, in order: record exists (NOT_FOUND); caller is the proposer
// (CALLER_NOT_OWNER); record unresolved (ALREADY_RESOLVED); target not yet
// met (ALREADY_SUCCEEDED - further check-ins after success are rejected);
// a full day elapsed since the last accepted check-in (TOO_SOON).
//
// When the new count reaches the window target the record becomes
// successful, but NOT completed - completion is reserved for the explicit
// claim operations.
func (e *Engine) CheckIn(ctx context.Context, caller habit.Identity, id uint64) (uint64, error) {
	const op = "checkin"
	if err := e.enter(op, caller, id); err != nil {
		return 0, err
	}
	defer e.leave()

	now := e.clock.Now()

	tx, err := e.store.Begin(ctx)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	rec, err := e.store.GetHabit(ctx, tx, caller, id)
	if err != nil {
		return 0, err
	}
	if rec.Proposer != caller {
		return 0, e.reject(habit.CodeCallerNotOwner, op, caller, id, "only the proposer may check in")
	}
	if rec.Completed {
		return 0, e.reject(habit.CodeAlreadyResolved, op, caller, id, "record already resolved")
	}
	if rec.TargetMet() {
		return 0, e.reject(habit.CodeAlreadySucceeded, op, caller, id, "check-in target already met; claim the deposit instead")
	}
	if now.Sub(rec.LastCheckIn) < habit.Day {
		return 0, e.reject(habit.CodeTooSoon, op, caller, id,
			fmt.Sprintf("next check-in eligible at %s", rec.LastCheckIn.Add(habit.Day).Format(time.RFC3339)))
	}

	days := rec.CheckedInDays + 1
	successful := days >= rec.WindowDays
	if err := e.store.RecordCheckIn(ctx, tx, caller, id, days, now, successful); err != nil {
		return 0, err
	}

	if err := e.appendEvent(ctx, tx, habit.Event{
		Kind:       habit.EventCheckIn,
		Owner:      caller,
		HabitID:    id,
		Actor:      caller,
		Detail:     fmt.Sprintf("day %d of %d", days, rec.WindowDays),
		OccurredAt: now,
	}); err != nil {
		return 0, err
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("%s: commit: %w", op, err)
	}

	slog.Info("check-in accepted",
		"owner", caller,
		"id", id,
		"days", days,
		"target_met", successful,
	)
	return days, nil
}

// ClaimSuccess releases the deposit back to the proposer after a met target.
//
// Preconditions, in order: record exists (NOT_FOUND); window expired
// (TOO_EARLY); caller is the proposer (CALLER_NOT_OWNER); record unresolved
// (ALREADY_RESOLVED); target met (INSUFFICIENT_CHECKINS).
//
// Terminal flags are written before the transfer is issued.
func (e *Engine) ClaimSuccess(ctx context.Context, caller habit.Identity, id uint64) error {
	const op = "claim_success"
	if err := e.enter(op, caller, id); err != nil {
		return err
	}
	defer e.leave()

	now := e.clock.Now()

	tx, err := e.store.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	rec, err := e.store.GetHabit(ctx, tx, caller, id)
	if err != nil {
		return err
	}
	if now.Before(rec.Expiry) {
		return e.reject(habit.CodeTooEarly, op, caller, id,
			fmt.Sprintf("window expires at %s", rec.Expiry.Format(time.RFC3339)))
	}
	if rec.Proposer != caller {
		return e.reject(habit.CodeCallerNotOwner, op, caller, id, "only the proposer may claim success")
	}
	if rec.Completed {
		return e.reject(habit.CodeAlreadyResolved, op, caller, id, "record already resolved")
	}
	if !rec.TargetMet() {
		return e.reject(habit.CodeInsufficientCheckIns, op, caller, id,
			fmt.Sprintf("%d of %d check-ins completed", rec.CheckedInDays, rec.WindowDays))
	}

	// Effects before interaction: the record is terminal before any value moves.
	if err := e.store.MarkResolved(ctx, tx, caller, id, true, false); err != nil {
		return err
	}

	if err := e.ledger.Transfer(ctx, tx, EscrowAccount, caller, rec.Amount); err != nil {
		return &habit.Error{
			Code:    habit.CodeTransferFailed,
			Op:      op,
			Owner:   caller,
			HabitID: id,
			Message: "deposit release failed",
			Err:     err,
		}
	}

	if err := e.appendEvent(ctx, tx, habit.Event{
		Kind:       habit.EventFundsReturned,
		Owner:      caller,
		HabitID:    id,
		Actor:      caller,
		Amount:     rec.Amount,
		OccurredAt: now,
	}); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%s: commit: %w", op, err)
	}

	slog.Info("deposit returned",
		"owner", caller,
		"id", id,
		"amount", rec.Amount,
	)
	return nil
}

// ClaimForfeit releases a missed commitment's deposit to the loss recipient.
// The record is addressed by (owner, id); caller must be the record's
// designated loss recipient.
//
// Preconditions, in order: record exists (NOT_FOUND); caller is the loss
// recipient (CALLER_NOT_LOSS_RECIPIENT); the proposer has missed a cadence
// beat, i.e. a full day elapsed since the last check-in
// (CHECKIN_WINDOW_STILL_OPEN); record unresolved (ALREADY_RESOLVED); target
// not met (ALREADY_SUCCEEDED - forfeiture is blocked once the target has
// been met, even if unclaimed).
func (e *Engine) ClaimForfeit(ctx context.Context, caller, owner habit.Identity, id uint64) error {
	const op = "claim_forfeit"
	if err := e.enter(op, owner, id); err != nil {
		return err
	}
	defer e.leave()

	now := e.clock.Now()

	tx, err := e.store.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	rec, err := e.store.GetHabit(ctx, tx, owner, id)
	if err != nil {
		return err
	}
	if rec.LossRecipient != caller {
		return e.reject(habit.CodeCallerNotLossRecipient, op, owner, id, "only the designated loss recipient may claim a forfeit")
	}
	if now.Sub(rec.LastCheckIn) < habit.Day {
		return e.reject(habit.CodeCheckInWindowStillOpen, op, owner, id,
			fmt.Sprintf("proposer may still check in until %s", rec.LastCheckIn.Add(habit.Day).Format(time.RFC3339)))
	}
	if rec.Completed {
		return e.reject(habit.CodeAlreadyResolved, op, owner, id, "record already resolved")
	}
	if rec.TargetMet() {
		return e.reject(habit.CodeAlreadySucceeded, op, owner, id, "target was met; the deposit belongs to the proposer")
	}

	// Effects before interaction: the record is terminal before any value moves.
	if err := e.store.MarkResolved(ctx, tx, owner, id, false, true); err != nil {
		return err
	}

	if err := e.ledger.Transfer(ctx, tx, EscrowAccount, caller, rec.Amount); err != nil {
		return &habit.Error{
			Code:    habit.CodeTransferFailed,
			Op:      op,
			Owner:   owner,
			HabitID: id,
			Message: "forfeit release failed",
			Err:     err,
		}
	}

	if err := e.appendEvent(ctx, tx, habit.Event{
		Kind:       habit.EventForfeitClaimed,
		Owner:      owner,
		HabitID:    id,
		Actor:      caller,
		Amount:     rec.Amount,
		Detail:     fmt.Sprintf("claimed by %s", caller),
		OccurredAt: now,
	}); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%s: commit: %w", op, err)
	}

	slog.Info("forfeit claimed",
		"owner", owner,
		"id", id,
		"claimant", caller,
		"amount", rec.Amount,
	)
	return nil
}

// Fund credits an account out of thin air. This is a host-side funding
// concern (demo accounts, scenario setup); the engine itself never mints.
func (e *Engine) Fund(ctx context.Context, account habit.Identity, amount uint64) error {
	const op = "fund"
	if err := e.enter(op, account, 0); err != nil {
		return err
	}
	defer e.leave()

	tx, err := e.store.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if err := e.ledger.Mint(ctx, tx, account, amount); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%s: commit: %w", op, err)
	}
	return nil
}

// Habit returns one record by (owner, id).
func (e *Engine) Habit(ctx context.Context, owner habit.Identity, id uint64) (habit.Record, error) {
	return e.store.GetHabit(ctx, e.store.DB(), owner, id)
}

// Habits returns an owner's full collection in id order.
func (e *Engine) Habits(ctx context.Context, owner habit.Identity) ([]habit.Record, error) {
	return e.store.ListHabits(ctx, e.store.DB(), owner)
}

// Trace returns one record's audit trail in log order.
func (e *Engine) Trace(ctx context.Context, owner habit.Identity, id uint64) ([]habit.Event, error) {
	return e.store.EventsForHabit(ctx, e.store.DB(), owner, id)
}

// Log returns the complete audit log in log order.
func (e *Engine) Log(ctx context.Context) ([]habit.Event, error) {
	return e.store.AllEvents(ctx, e.store.DB())
}

// enter takes the re-entrancy guard. A nested call - typically a transfer
// callback invoking the engine before the outer call returns - is rejected
// with REENTRANT_CALL and no state change.
func (e *Engine) enter(op string, owner habit.Identity, id uint64) error {
	if e.busy {
		slog.Warn("re-entrant call rejected", "op", op, "owner", owner, "id", id)
		return &habit.Error{
			Code:    habit.CodeReentrantCall,
			Op:      op,
			Owner:   owner,
			HabitID: id,
			Message: "engine call already in progress",
		}
	}
	e.busy = true
	return nil
}

// leave releases the re-entrancy guard. Deferred on every mutating path so
// the guard clears on normal return and rejection alike.
func (e *Engine) leave() {
	e.busy = false
}

// reject builds a typed precondition rejection.
func (e *Engine) reject(code habit.Code, op string, owner habit.Identity, id uint64, msg string) error {
	return &habit.Error{
		Code:    code,
		Op:      op,
		Owner:   owner,
		HabitID: id,
		Message: msg,
	}
}

// appendEvent stamps and writes an audit event inside the operation's
// transaction.
func (e *Engine) appendEvent(ctx context.Context, tx *sql.Tx, ev habit.Event) error {
	ev.ID = e.tokens.Generate()
	return e.store.AppendEvent(ctx, tx, ev)
}
