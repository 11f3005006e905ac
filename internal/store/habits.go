package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/spencerwilf/proof-of-habit/internal/habit"
)

// habitColumns is the canonical column order for habit scans.
const habitColumns = `habit_id, title, loss_recipient, amount, window_days,
	expiry, checked_in_days, last_check_in, completed, successful, failed, created_at`

// CreateHabit appends a record to its owner's collection and returns the new
// dense index: the count of the owner's existing records at the moment of
// insertion. Ids are never reused or reordered; the caller's transaction
// makes count-then-insert atomic.
//
// The record's ID field is ignored; all other fields are stored as given.
func (s *Store) CreateHabit(ctx context.Context, tx *sql.Tx, rec habit.Record) (uint64, error) {
	var id uint64
	err := tx.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM habits WHERE owner = ?`, string(rec.Proposer),
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("create habit: next id: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO habits
		(owner, habit_id, title, loss_recipient, amount, window_days,
		 expiry, checked_in_days, last_check_in, completed, successful, failed, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		string(rec.Proposer),
		id,
		rec.Title,
		string(rec.LossRecipient),
		rec.Amount,
		rec.WindowDays,
		rec.Expiry.Unix(),
		rec.CheckedInDays,
		rec.LastCheckIn.Unix(),
		rec.Completed,
		rec.Successful,
		rec.Failed,
		rec.CreatedAt.Unix(),
	)
	if err != nil {
		return 0, fmt.Errorf("create habit: insert: %w", err)
	}

	return id, nil
}

// GetHabit looks up a record by (owner, id).
// Returns a NOT_FOUND habit.Error when the id is out of bounds for that owner.
func (s *Store) GetHabit(ctx context.Context, q Queryer, owner habit.Identity, id uint64) (habit.Record, error) {
	row := q.QueryRowContext(ctx, `
		SELECT `+habitColumns+`
		FROM habits WHERE owner = ? AND habit_id = ?
	`, string(owner), id)

	rec, err := scanHabit(row, owner)
	if errors.Is(err, sql.ErrNoRows) {
		return habit.Record{}, &habit.Error{
			Code:    habit.CodeNotFound,
			Op:      "get",
			Owner:   owner,
			HabitID: id,
			Message: "no habit at this id for this owner",
		}
	}
	if err != nil {
		return habit.Record{}, fmt.Errorf("get habit: %w", err)
	}
	return rec, nil
}

// ListHabits returns the owner's full collection in insertion order
// (id order). An owner with no records gets an empty slice, not an error.
func (s *Store) ListHabits(ctx context.Context, q Queryer, owner habit.Identity) ([]habit.Record, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT `+habitColumns+`
		FROM habits WHERE owner = ? ORDER BY habit_id
	`, string(owner))
	if err != nil {
		return nil, fmt.Errorf("list habits: %w", err)
	}
	defer rows.Close()

	var recs []habit.Record
	for rows.Next() {
		rec, err := scanHabit(rows, owner)
		if err != nil {
			return nil, fmt.Errorf("list habits: %w", err)
		}
		recs = append(recs, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list habits: %w", err)
	}
	return recs, nil
}

// RecordCheckIn advances a record's check-in state: the new count, the new
// last-check-in time, and the successful flag (set when the count reaches the
// window target). The terminal flags are untouched.
func (s *Store) RecordCheckIn(ctx context.Context, tx *sql.Tx, owner habit.Identity, id uint64, days uint64, lastCheckIn time.Time, successful bool) error {
	res, err := tx.ExecContext(ctx, `
		UPDATE habits
		SET checked_in_days = ?, last_check_in = ?, successful = ?
		WHERE owner = ? AND habit_id = ?
	`, days, lastCheckIn.Unix(), successful, string(owner), id)
	if err != nil {
		return fmt.Errorf("record check-in: %w", err)
	}
	return expectOneRow(res, "record check-in", owner, id)
}

// MarkResolved flips a record's terminal flags. Exactly one of successful or
// failed must be true; completed is always set. The engine calls this at most
// once per record - resolution is guarded by the ALREADY_RESOLVED check.
func (s *Store) MarkResolved(ctx context.Context, tx *sql.Tx, owner habit.Identity, id uint64, successful, failed bool) error {
	if successful == failed {
		return fmt.Errorf("mark resolved: exactly one of successful/failed must be set (owner=%s, id=%d)", owner, id)
	}
	res, err := tx.ExecContext(ctx, `
		UPDATE habits
		SET completed = 1, successful = ?, failed = ?
		WHERE owner = ? AND habit_id = ?
	`, successful, failed, string(owner), id)
	if err != nil {
		return fmt.Errorf("mark resolved: %w", err)
	}
	return expectOneRow(res, "mark resolved", owner, id)
}

// CountHabits returns the size of an owner's collection.
func (s *Store) CountHabits(ctx context.Context, q Queryer, owner habit.Identity) (uint64, error) {
	var n uint64
	err := q.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM habits WHERE owner = ?`, string(owner),
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count habits: %w", err)
	}
	return n, nil
}

// scanner abstracts *sql.Row and *sql.Rows for shared scan logic.
type scanner interface {
	Scan(dest ...any) error
}

func scanHabit(sc scanner, owner habit.Identity) (habit.Record, error) {
	var (
		rec                            habit.Record
		lossRecipient                  string
		expiry, lastCheckIn, createdAt int64
	)
	err := sc.Scan(
		&rec.ID,
		&rec.Title,
		&lossRecipient,
		&rec.Amount,
		&rec.WindowDays,
		&expiry,
		&rec.CheckedInDays,
		&lastCheckIn,
		&rec.Completed,
		&rec.Successful,
		&rec.Failed,
		&createdAt,
	)
	if err != nil {
		return habit.Record{}, err
	}

	rec.Proposer = owner
	rec.LossRecipient = habit.Identity(lossRecipient)
	rec.Expiry = time.Unix(expiry, 0).UTC()
	rec.LastCheckIn = time.Unix(lastCheckIn, 0).UTC()
	rec.CreatedAt = time.Unix(createdAt, 0).UTC()
	return rec, nil
}

// expectOneRow converts a zero-row UPDATE into a NOT_FOUND error.
// The engine always loads the record first, so this only fires on misuse.
func expectOneRow(res sql.Result, op string, owner habit.Identity, id uint64) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: rows affected: %w", op, err)
	}
	if n == 0 {
		return &habit.Error{
			Code:    habit.CodeNotFound,
			Op:      op,
			Owner:   owner,
			HabitID: id,
			Message: "no habit at this id for this owner",
		}
	}
	return nil
}
