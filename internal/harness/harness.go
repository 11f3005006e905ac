package harness

import (
	"context"
	"fmt"
	"time"

	"github.com/spencerwilf/proof-of-habit/internal/engine"
	"github.com/spencerwilf/proof-of-habit/internal/habit"
	"github.com/spencerwilf/proof-of-habit/internal/ledger"
	"github.com/spencerwilf/proof-of-habit/internal/store"
	"github.com/spencerwilf/proof-of-habit/internal/testutil"
)

// Harness drives one scenario against a real engine with deterministic
// clock and event ids.
type Harness struct {
	store  *store.Store
	engine *engine.Engine
	clock  *testutil.ManualClock
	bank   *ledger.SQLLedger
}

// Result is the outcome of a scenario run.
type Result struct {
	// ScenarioName echoes the scenario's name.
	ScenarioName string

	// Errors lists every step or assertion failure. Empty means pass.
	Errors []string

	// Trace is the complete audit log after the final step.
	Trace []habit.Event
}

// Pass reports whether the scenario ran without failures.
func (r *Result) Pass() bool {
	return len(r.Errors) == 0
}

// AddError records a failure.
func (r *Result) AddError(msg string) {
	r.Errors = append(r.Errors, msg)
}

// Run executes a scenario and returns the result.
//
// Each scenario runs in a fresh in-memory database for isolation. The clock
// starts at testutil.BaseTime and only moves via step advances; event ids
// are numbered evt-0001, evt-0002, ... so traces are reproducible.
//
// A returned error means the harness itself failed (bad scenario, broken
// store); step and assertion failures land in Result.Errors instead.
func Run(scenario *Scenario) (*Result, error) {
	st, err := store.Open(":memory:")
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory store: %w", err)
	}
	defer st.Close()

	h := &Harness{
		store: st,
		clock: testutil.NewManualClock(),
		bank:  ledger.NewSQLLedger(),
	}
	h.engine = engine.New(st, h.bank, h.clock, testutil.NewSequenceGenerator("evt"))

	ctx := context.Background()
	result := &Result{ScenarioName: scenario.Name}

	for i, f := range scenario.Funding {
		if err := h.engine.Fund(ctx, habit.Identity(f.Account), f.Amount); err != nil {
			return nil, fmt.Errorf("funding %d (%s): %w", i, f.Account, err)
		}
	}

	for i, step := range scenario.Steps {
		if step.Advance != "" {
			d, err := time.ParseDuration(step.Advance)
			if err != nil {
				return nil, fmt.Errorf("step %d: bad advance %q: %w", i, step.Advance, err)
			}
			h.clock.Advance(d)
		}
		if step.Op == "" {
			continue
		}
		h.executeStep(ctx, i, step, result)
	}

	result.Trace, err = h.engine.Log(ctx)
	if err != nil {
		return nil, fmt.Errorf("read trace: %w", err)
	}

	h.evaluateAssertions(ctx, scenario.Assertions, result)

	return result, nil
}

// executeStep runs one operation and validates its outcome against the
// step's expect clause. Failures are recorded, not returned - later steps
// still run, so a single broken expectation shows its downstream effects.
func (h *Harness) executeStep(ctx context.Context, i int, step Step, result *Result) {
	var (
		err   error
		newID uint64
		count uint64
	)

	switch step.Op {
	case OpCreate:
		newID, err = h.engine.Create(ctx,
			habit.Identity(step.Caller),
			step.Title,
			step.WindowDays,
			habit.Identity(step.LossRecipient),
			step.Deposit,
		)
	case OpCheckIn:
		count, err = h.engine.CheckIn(ctx, habit.Identity(step.Caller), step.ID)
	case OpClaimSuccess:
		err = h.engine.ClaimSuccess(ctx, habit.Identity(step.Caller), step.ID)
	case OpClaimForfeit:
		err = h.engine.ClaimForfeit(ctx, habit.Identity(step.Caller), habit.Identity(step.Owner), step.ID)
	case OpFund:
		err = h.engine.Fund(ctx, habit.Identity(step.Account), step.Amount)
	default:
		result.AddError(fmt.Sprintf("step %d: unknown op %q", i, step.Op))
		return
	}

	wantCode := habit.Code("")
	if step.Expect != nil {
		wantCode = habit.Code(step.Expect.Error)
	}

	switch {
	case wantCode == "" && err != nil:
		result.AddError(fmt.Sprintf("step %d (%s): unexpected error: %v", i, step.Op, err))
		return
	case wantCode != "" && err == nil:
		result.AddError(fmt.Sprintf("step %d (%s): expected %s, call succeeded", i, step.Op, wantCode))
		return
	case wantCode != "" && habit.CodeOf(err) != wantCode:
		result.AddError(fmt.Sprintf("step %d (%s): expected %s, got: %v", i, step.Op, wantCode, err))
		return
	}

	if step.Expect == nil || err != nil {
		return
	}
	if step.Expect.ID != nil && newID != *step.Expect.ID {
		result.AddError(fmt.Sprintf("step %d (%s): expected id %d, got %d", i, step.Op, *step.Expect.ID, newID))
	}
	if step.Expect.Count != nil && count != *step.Expect.Count {
		result.AddError(fmt.Sprintf("step %d (%s): expected count %d, got %d", i, step.Op, *step.Expect.Count, count))
	}
}
