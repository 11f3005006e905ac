package harness

import (
	"context"
	"fmt"

	"github.com/spencerwilf/proof-of-habit/internal/habit"
)

// Assertion type constants.
const (
	// AssertRecordState compares a record's fields against expected values
	// (subset match - only the listed fields are checked).
	AssertRecordState = "record_state"

	// AssertBalance checks an account's ledger balance.
	AssertBalance = "balance"

	// AssertEventCount checks how often an event kind appears in the trace.
	AssertEventCount = "event_count"

	// AssertEventOrder checks that event kinds first appear in the given
	// relative order (intervening events are allowed).
	AssertEventOrder = "event_order"
)

// Assertion validates final state or the audit trace after the last step.
type Assertion struct {
	// Type is one of the Assert* constants.
	Type string `yaml:"type"`

	// Owner and ID locate a record (record_state).
	Owner string `yaml:"owner,omitempty"`
	ID    uint64 `yaml:"id,omitempty"`

	// Expect maps record field names to expected values (record_state).
	// Supported fields: title, amount, window_days, checked_in_days,
	// completed, successful, failed, status.
	Expect map[string]any `yaml:"expect,omitempty"`

	// Account and Amount specify a balance check (balance).
	Account string `yaml:"account,omitempty"`
	Amount  uint64 `yaml:"amount,omitempty"`

	// Kind and Count specify an occurrence check (event_count).
	Kind  string `yaml:"kind,omitempty"`
	Count int    `yaml:"count,omitempty"`

	// Kinds is the expected relative order (event_order).
	Kinds []string `yaml:"kinds,omitempty"`
}

// validateAssertion checks an assertion's type and required parameters.
func validateAssertion(a Assertion) error {
	switch a.Type {
	case AssertRecordState:
		if a.Owner == "" {
			return fmt.Errorf("record_state needs an owner")
		}
		if len(a.Expect) == 0 {
			return fmt.Errorf("record_state needs expected fields")
		}
		for field := range a.Expect {
			if !knownRecordField(field) {
				return fmt.Errorf("record_state: unknown field %q", field)
			}
		}
	case AssertBalance:
		if a.Account == "" {
			return fmt.Errorf("balance needs an account")
		}
	case AssertEventCount:
		if a.Kind == "" {
			return fmt.Errorf("event_count needs a kind")
		}
	case AssertEventOrder:
		if len(a.Kinds) < 2 {
			return fmt.Errorf("event_order needs at least two kinds")
		}
	default:
		return fmt.Errorf("unknown assertion type %q", a.Type)
	}
	return nil
}

// evaluateAssertions runs every assertion and records failures in result.
func (h *Harness) evaluateAssertions(ctx context.Context, assertions []Assertion, result *Result) {
	for i, a := range assertions {
		var err error
		switch a.Type {
		case AssertRecordState:
			err = h.assertRecordState(ctx, a)
		case AssertBalance:
			err = h.assertBalance(ctx, a)
		case AssertEventCount:
			err = assertEventCount(result.Trace, a)
		case AssertEventOrder:
			err = assertEventOrder(result.Trace, a)
		default:
			err = fmt.Errorf("unknown assertion type %q", a.Type)
		}
		if err != nil {
			result.AddError(fmt.Sprintf("assertion %d (%s): %v", i, a.Type, err))
		}
	}
}

func (h *Harness) assertRecordState(ctx context.Context, a Assertion) error {
	rec, err := h.engine.Habit(ctx, habit.Identity(a.Owner), a.ID)
	if err != nil {
		return err
	}

	for field, want := range a.Expect {
		got := recordField(rec, field)
		if fmt.Sprintf("%v", got) != fmt.Sprintf("%v", want) {
			return fmt.Errorf("field %s: expected %v, got %v", field, want, got)
		}
	}
	return nil
}

func (h *Harness) assertBalance(ctx context.Context, a Assertion) error {
	balance, err := h.bank.Balance(ctx, h.store.DB(), habit.Identity(a.Account))
	if err != nil {
		return err
	}
	if balance != a.Amount {
		return fmt.Errorf("account %s: expected balance %d, got %d", a.Account, a.Amount, balance)
	}
	return nil
}

func assertEventCount(trace []habit.Event, a Assertion) error {
	count := 0
	for _, ev := range trace {
		if string(ev.Kind) == a.Kind {
			count++
		}
	}
	if count != a.Count {
		return fmt.Errorf("kind %s: expected %d events, got %d", a.Kind, a.Count, count)
	}
	return nil
}

func assertEventOrder(trace []habit.Event, a Assertion) error {
	// First position of each expected kind, 1-indexed; 0 means absent.
	positions := make(map[string]int)
	for i, ev := range trace {
		kind := string(ev.Kind)
		if positions[kind] == 0 {
			positions[kind] = i + 1
		}
	}

	for _, kind := range a.Kinds {
		if positions[kind] == 0 {
			return fmt.Errorf("kind %s missing from trace", kind)
		}
	}
	for i := 1; i < len(a.Kinds); i++ {
		prev, curr := a.Kinds[i-1], a.Kinds[i]
		if positions[prev] >= positions[curr] {
			return fmt.Errorf("%s (pos %d) should appear before %s (pos %d)",
				prev, positions[prev], curr, positions[curr])
		}
	}
	return nil
}

func knownRecordField(field string) bool {
	switch field {
	case "title", "amount", "window_days", "checked_in_days",
		"completed", "successful", "failed", "status":
		return true
	}
	return false
}

func recordField(rec habit.Record, field string) any {
	switch field {
	case "title":
		return rec.Title
	case "amount":
		return rec.Amount
	case "window_days":
		return rec.WindowDays
	case "checked_in_days":
		return rec.CheckedInDays
	case "completed":
		return rec.Completed
	case "successful":
		return rec.Successful
	case "failed":
		return rec.Failed
	case "status":
		return string(rec.Status())
	default:
		return nil
	}
}
