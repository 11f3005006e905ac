package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/spencerwilf/proof-of-habit/internal/habit"
)

// AppendEvent writes an audit event in the caller's transaction, so the
// event commits atomically with the state change it describes. Seq is
// assigned by the store; the event's Seq field is ignored.
func (s *Store) AppendEvent(ctx context.Context, tx *sql.Tx, ev habit.Event) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO events
		(id, kind, owner, habit_id, actor, amount, detail, occurred_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`,
		ev.ID,
		string(ev.Kind),
		string(ev.Owner),
		ev.HabitID,
		string(ev.Actor),
		ev.Amount,
		ev.Detail,
		ev.OccurredAt.Unix(),
	)
	if err != nil {
		return fmt.Errorf("append event: %w", err)
	}
	return nil
}

// EventsForHabit returns the audit trail of one record, in log order.
func (s *Store) EventsForHabit(ctx context.Context, q Queryer, owner habit.Identity, id uint64) ([]habit.Event, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT seq, id, kind, owner, habit_id, actor, amount, detail, occurred_at
		FROM events WHERE owner = ? AND habit_id = ? ORDER BY seq
	`, string(owner), id)
	if err != nil {
		return nil, fmt.Errorf("events for habit: %w", err)
	}
	return collectEvents(rows)
}

// AllEvents returns the complete audit log, in log order.
func (s *Store) AllEvents(ctx context.Context, q Queryer) ([]habit.Event, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT seq, id, kind, owner, habit_id, actor, amount, detail, occurred_at
		FROM events ORDER BY seq
	`)
	if err != nil {
		return nil, fmt.Errorf("all events: %w", err)
	}
	return collectEvents(rows)
}

func collectEvents(rows *sql.Rows) ([]habit.Event, error) {
	defer rows.Close()

	var events []habit.Event
	for rows.Next() {
		var (
			ev                 habit.Event
			kind, owner, actor string
			occurredAt         int64
		)
		err := rows.Scan(&ev.Seq, &ev.ID, &kind, &owner, &ev.HabitID, &actor, &ev.Amount, &ev.Detail, &occurredAt)
		if err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		ev.Kind = habit.EventKind(kind)
		ev.Owner = habit.Identity(owner)
		ev.Actor = habit.Identity(actor)
		ev.OccurredAt = time.Unix(occurredAt, 0).UTC()
		events = append(events, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate events: %w", err)
	}
	return events, nil
}
