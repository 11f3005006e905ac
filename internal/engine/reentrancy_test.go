package engine

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spencerwilf/proof-of-habit/internal/habit"
	"github.com/spencerwilf/proof-of-habit/internal/ledger"
)

// reentrantLedger calls back into the engine from inside an escrow payout,
// modeling a transfer hook that tries to re-drive the state machine.
type reentrantLedger struct {
	inner     ledger.Ledger
	reenter   func(ctx context.Context) error
	nestedErr error
}

func (l *reentrantLedger) Transfer(ctx context.Context, tx *sql.Tx, from, to habit.Identity, amount uint64) error {
	if from == EscrowAccount && l.reenter != nil {
		l.nestedErr = l.reenter(ctx)
		l.reenter = nil
	}
	return l.inner.Transfer(ctx, tx, from, to, amount)
}

func (l *reentrantLedger) Mint(ctx context.Context, tx *sql.Tx, account habit.Identity, amount uint64) error {
	return l.inner.Mint(ctx, tx, account, amount)
}

// failingLedger refuses escrow payouts, modeling a recipient that cannot
// accept value. Everything else delegates.
type failingLedger struct {
	inner ledger.Ledger
}

var errPayoutRefused = errors.New("payout refused")

func (l *failingLedger) Transfer(ctx context.Context, tx *sql.Tx, from, to habit.Identity, amount uint64) error {
	if from == EscrowAccount {
		return errPayoutRefused
	}
	return l.inner.Transfer(ctx, tx, from, to, amount)
}

func (l *failingLedger) Mint(ctx context.Context, tx *sql.Tx, account habit.Identity, amount uint64) error {
	return l.inner.Mint(ctx, tx, account, amount)
}

func TestClaimSuccess_ReentrantCallRejected(t *testing.T) {
	f := newFixture(t)
	rl := &reentrantLedger{inner: f.bank}
	f.engine.ledger = rl

	f.fund(t, "alice", 500)
	id := f.create(t, "alice", "run", 3, 100)
	f.completeWindow(t, "alice", id, 3)
	f.clock.Advance(habit.Day)

	// The payout hook tries to claim again before the outer call finishes.
	rl.reenter = func(ctx context.Context) error {
		return f.engine.ClaimSuccess(ctx, "alice", id)
	}
	require.NoError(t, f.engine.ClaimSuccess(context.Background(), "alice", id))

	assertCode(t, rl.nestedErr, habit.CodeReentrantCall)
	assert.Equal(t, uint64(500), f.balance(t, "alice"), "payout happens once")
	assert.Equal(t, uint64(0), f.balance(t, EscrowAccount))
}

func TestClaimForfeit_ReentrantCallRejected(t *testing.T) {
	f := newFixture(t)
	rl := &reentrantLedger{inner: f.bank}
	f.engine.ledger = rl

	f.fund(t, "alice", 500)
	id := f.create(t, "alice", "run", 5, 100)
	f.clock.Advance(habit.Day)

	rl.reenter = func(ctx context.Context) error {
		return f.engine.ClaimForfeit(ctx, "bob", "alice", id)
	}
	require.NoError(t, f.engine.ClaimForfeit(context.Background(), "bob", "alice", id))

	assertCode(t, rl.nestedErr, habit.CodeReentrantCall)
	assert.Equal(t, uint64(100), f.balance(t, "bob"), "payout happens once")
}

func TestClaimSuccess_TransferFailureRollsBack(t *testing.T) {
	f := newFixture(t)
	f.fund(t, "alice", 500)
	id := f.create(t, "alice", "run", 3, 100)
	f.completeWindow(t, "alice", id, 3)
	f.clock.Advance(habit.Day)

	f.engine.ledger = &failingLedger{inner: f.bank}
	err := f.engine.ClaimSuccess(context.Background(), "alice", id)
	assertCode(t, err, habit.CodeTransferFailed)
	assert.ErrorIs(t, err, errPayoutRefused)

	// The resolution rolled back with the failed payout; the record is still
	// claimable and the deposit is still in custody.
	rec, getErr := f.engine.Habit(context.Background(), "alice", id)
	require.NoError(t, getErr)
	assert.Equal(t, habit.StatusInProgress, rec.Status())
	assert.Equal(t, uint64(100), f.balance(t, EscrowAccount))

	// Once the ledger recovers, the claim goes through.
	f.engine.ledger = f.bank
	require.NoError(t, f.engine.ClaimSuccess(context.Background(), "alice", id))
	assert.Equal(t, uint64(500), f.balance(t, "alice"))
}

func TestClaimForfeit_TransferFailureRollsBack(t *testing.T) {
	f := newFixture(t)
	f.fund(t, "alice", 500)
	id := f.create(t, "alice", "run", 5, 100)
	f.clock.Advance(habit.Day)

	f.engine.ledger = &failingLedger{inner: f.bank}
	err := f.engine.ClaimForfeit(context.Background(), "bob", "alice", id)
	assertCode(t, err, habit.CodeTransferFailed)

	rec, getErr := f.engine.Habit(context.Background(), "alice", id)
	require.NoError(t, getErr)
	assert.Equal(t, habit.StatusInProgress, rec.Status())
	assert.Equal(t, uint64(0), f.balance(t, "bob"))
	assert.Equal(t, uint64(100), f.balance(t, EscrowAccount))
}

func TestGuard_ClearsAfterRejection(t *testing.T) {
	f := newFixture(t)
	f.fund(t, "alice", 500)
	id := f.create(t, "alice", "run", 5, 100)

	// A rejected call must release the guard for the next one.
	_, err := f.engine.CheckIn(context.Background(), "alice", 99)
	assertCode(t, err, habit.CodeNotFound)

	_, err = f.engine.CheckIn(context.Background(), "alice", id)
	assert.NoError(t, err)
}
