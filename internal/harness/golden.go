package harness

import (
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/sebdah/goldie/v2"

	"github.com/spencerwilf/proof-of-habit/internal/habit"
)

// TraceSnapshot captures the complete trace of a scenario execution in a
// stable JSON shape for golden comparison.
type TraceSnapshot struct {
	ScenarioName string       `json:"scenario_name"`
	Trace        []TraceEvent `json:"trace"`
}

// TraceEvent is one audit event in golden form. Timestamps are RFC 3339 so
// golden files stay human-readable.
type TraceEvent struct {
	Seq        int64  `json:"seq"`
	ID         string `json:"id"`
	Kind       string `json:"kind"`
	Owner      string `json:"owner"`
	HabitID    uint64 `json:"habit_id"`
	Actor      string `json:"actor"`
	Amount     uint64 `json:"amount"`
	Detail     string `json:"detail,omitempty"`
	OccurredAt string `json:"occurred_at"`
}

// snapshotTrace converts engine events to golden form.
func snapshotTrace(name string, trace []habit.Event) TraceSnapshot {
	events := make([]TraceEvent, len(trace))
	for i, ev := range trace {
		events[i] = TraceEvent{
			Seq:        ev.Seq,
			ID:         ev.ID,
			Kind:       string(ev.Kind),
			Owner:      string(ev.Owner),
			HabitID:    ev.HabitID,
			Actor:      string(ev.Actor),
			Amount:     ev.Amount,
			Detail:     ev.Detail,
			OccurredAt: ev.OccurredAt.UTC().Format(time.RFC3339),
		}
	}
	return TraceSnapshot{ScenarioName: name, Trace: events}
}

// RunWithGolden executes a scenario and compares its trace against a golden
// file in testdata/golden/{scenario.Name}.golden.
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
//
// Returns an error if the scenario itself fails; trace mismatches fail the
// test via goldie.
func RunWithGolden(t *testing.T, scenario *Scenario) error {
	t.Helper()

	result, err := Run(scenario)
	if err != nil {
		return err
	}
	if !result.Pass() {
		return fmt.Errorf("scenario %s failed: %v", scenario.Name, result.Errors)
	}

	snapshot := snapshotTrace(scenario.Name, result.Trace)
	data, err := json.MarshalIndent(snapshot, "", "  ")
	if err != nil {
		return err
	}
	data = append(data, '\n')

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, scenario.Name, data)

	return nil
}
