// Package ledger models the host environment's atomic value transfer.
//
// Balances live in the accounts table of the engine's database, so a
// transfer executes inside the engine's transaction: if any later step of
// the operation fails, the transfer rolls back with everything else, and if
// the transfer itself fails the engine aborts the whole call. This is the
// "atomic value transfer" guarantee the state machine depends on.
//
// The only account the engine writes on its own behalf is the escrow custody
// account; funds enter it via deposit capture at creation and leave it via
// exactly one claim. There is no path for unattributed credits.
package ledger

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/spencerwilf/proof-of-habit/internal/habit"
)

// ErrInsufficientFunds reports a debit larger than the source balance.
var ErrInsufficientFunds = errors.New("insufficient funds")

// Ledger moves value between accounts inside the caller's transaction.
//
// Implemented by SQLLedger (production) and by the failing/re-entrant fakes
// in the engine tests.
type Ledger interface {
	// Transfer moves amount from one account to another. Fails with
	// ErrInsufficientFunds when the source balance is too small; any failure
	// leaves both balances unchanged (the caller rolls back the transaction).
	Transfer(ctx context.Context, tx *sql.Tx, from, to habit.Identity, amount uint64) error

	// Mint credits an account out of thin air. Host-side funding concern
	// (demo accounts, test setup) - the engine never mints.
	Mint(ctx context.Context, tx *sql.Tx, account habit.Identity, amount uint64) error
}

// queryer is the subset of *sql.DB / *sql.Tx needed for balance reads.
type queryer interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// SQLLedger is the production Ledger, backed by the accounts table.
// Stateless; safe to share.
type SQLLedger struct{}

// NewSQLLedger returns the production ledger.
func NewSQLLedger() *SQLLedger {
	return &SQLLedger{}
}

// Transfer implements Ledger.
//
// The debit and credit are two statements in the caller's transaction. The
// debit's WHERE clause doubles as the balance check: zero rows affected
// means the account is missing or short, and the transfer fails without
// touching either balance.
func (l *SQLLedger) Transfer(ctx context.Context, tx *sql.Tx, from, to habit.Identity, amount uint64) error {
	res, err := tx.ExecContext(ctx, `
		UPDATE accounts SET balance = balance - ?
		WHERE identity = ? AND balance >= ?
	`, amount, string(from), amount)
	if err != nil {
		return fmt.Errorf("transfer: debit %s: %w", from, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("transfer: debit %s: rows affected: %w", from, err)
	}
	if n == 0 {
		return fmt.Errorf("transfer: debit %s: %w", from, ErrInsufficientFunds)
	}

	if err := credit(ctx, tx, to, amount); err != nil {
		return fmt.Errorf("transfer: credit %s: %w", to, err)
	}
	return nil
}

// Mint implements Ledger.
func (l *SQLLedger) Mint(ctx context.Context, tx *sql.Tx, account habit.Identity, amount uint64) error {
	if err := credit(ctx, tx, account, amount); err != nil {
		return fmt.Errorf("mint: credit %s: %w", account, err)
	}
	return nil
}

// Balance reads an account's balance. Unknown accounts read as zero.
func (l *SQLLedger) Balance(ctx context.Context, q queryer, account habit.Identity) (uint64, error) {
	var balance uint64
	err := q.QueryRowContext(ctx,
		`SELECT balance FROM accounts WHERE identity = ?`, string(account),
	).Scan(&balance)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("balance %s: %w", account, err)
	}
	return balance, nil
}

func credit(ctx context.Context, tx *sql.Tx, account habit.Identity, amount uint64) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO accounts (identity, balance) VALUES (?, ?)
		ON CONFLICT(identity) DO UPDATE SET balance = balance + excluded.balance
	`, string(account), amount)
	return err
}
