package ledger

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spencerwilf/proof-of-habit/internal/habit"
	"github.com/spencerwilf/proof-of-habit/internal/store"
)

func openTestStore(t *testing.T) *store.Store {
	t.Helper()
	s, err := store.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func inTx(t *testing.T, s *store.Store, fn func(tx *sql.Tx) error) error {
	t.Helper()
	tx, err := s.Begin(context.Background())
	require.NoError(t, err)
	if err := fn(tx); err != nil {
		tx.Rollback()
		return err
	}
	require.NoError(t, tx.Commit())
	return nil
}

func balance(t *testing.T, l *SQLLedger, s *store.Store, account habit.Identity) uint64 {
	t.Helper()
	b, err := l.Balance(context.Background(), s.DB(), account)
	require.NoError(t, err)
	return b
}

func TestMint_CreatesAndAccumulates(t *testing.T) {
	s := openTestStore(t)
	l := NewSQLLedger()
	ctx := context.Background()

	require.NoError(t, inTx(t, s, func(tx *sql.Tx) error {
		return l.Mint(ctx, tx, "alice", 500)
	}))
	assert.Equal(t, uint64(500), balance(t, l, s, "alice"))

	require.NoError(t, inTx(t, s, func(tx *sql.Tx) error {
		return l.Mint(ctx, tx, "alice", 250)
	}))
	assert.Equal(t, uint64(750), balance(t, l, s, "alice"))
}

func TestTransfer_MovesFunds(t *testing.T) {
	s := openTestStore(t)
	l := NewSQLLedger()
	ctx := context.Background()

	require.NoError(t, inTx(t, s, func(tx *sql.Tx) error {
		return l.Mint(ctx, tx, "alice", 500)
	}))
	require.NoError(t, inTx(t, s, func(tx *sql.Tx) error {
		return l.Transfer(ctx, tx, "alice", "escrow", 100)
	}))

	assert.Equal(t, uint64(400), balance(t, l, s, "alice"))
	assert.Equal(t, uint64(100), balance(t, l, s, "escrow"))
}

func TestTransfer_InsufficientFunds(t *testing.T) {
	s := openTestStore(t)
	l := NewSQLLedger()
	ctx := context.Background()

	require.NoError(t, inTx(t, s, func(tx *sql.Tx) error {
		return l.Mint(ctx, tx, "alice", 50)
	}))

	err := inTx(t, s, func(tx *sql.Tx) error {
		return l.Transfer(ctx, tx, "alice", "escrow", 100)
	})
	assert.ErrorIs(t, err, ErrInsufficientFunds)

	// Rolled back: neither side moved.
	assert.Equal(t, uint64(50), balance(t, l, s, "alice"))
	assert.Equal(t, uint64(0), balance(t, l, s, "escrow"))
}

func TestTransfer_UnknownSource(t *testing.T) {
	s := openTestStore(t)
	l := NewSQLLedger()

	err := inTx(t, s, func(tx *sql.Tx) error {
		return l.Transfer(context.Background(), tx, "ghost", "escrow", 1)
	})
	assert.ErrorIs(t, err, ErrInsufficientFunds)
}

func TestTransfer_ExactBalance(t *testing.T) {
	s := openTestStore(t)
	l := NewSQLLedger()
	ctx := context.Background()

	require.NoError(t, inTx(t, s, func(tx *sql.Tx) error {
		return l.Mint(ctx, tx, "alice", 100)
	}))
	require.NoError(t, inTx(t, s, func(tx *sql.Tx) error {
		return l.Transfer(ctx, tx, "alice", "escrow", 100)
	}))

	assert.Equal(t, uint64(0), balance(t, l, s, "alice"))
	assert.Equal(t, uint64(100), balance(t, l, s, "escrow"))
}

func TestTransfer_RollsBackWithTransaction(t *testing.T) {
	s := openTestStore(t)
	l := NewSQLLedger()
	ctx := context.Background()

	require.NoError(t, inTx(t, s, func(tx *sql.Tx) error {
		return l.Mint(ctx, tx, "alice", 500)
	}))

	// A successful transfer inside an aborted transaction leaves no trace.
	tx, err := s.Begin(ctx)
	require.NoError(t, err)
	require.NoError(t, l.Transfer(ctx, tx, "alice", "escrow", 200))
	require.NoError(t, tx.Rollback())

	assert.Equal(t, uint64(500), balance(t, l, s, "alice"))
	assert.Equal(t, uint64(0), balance(t, l, s, "escrow"))
}

func TestBalance_UnknownAccountZero(t *testing.T) {
	s := openTestStore(t)
	l := NewSQLLedger()
	assert.Equal(t, uint64(0), balance(t, l, s, "nobody"))
}
