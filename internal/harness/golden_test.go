package harness

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

// Golden traces pin the exact event log of the two full-lifecycle scenarios:
// ids, sequence numbers, amounts, and timestamps.
func TestGoldenTraces(t *testing.T) {
	for _, name := range []string{
		"success_window_met",
		"forfeit_after_missed_beat",
	} {
		name := name
		t.Run(name, func(t *testing.T) {
			scenario, err := LoadScenario(filepath.Join("testdata", "scenarios", name+".yaml"))
			require.NoError(t, err)
			require.NoError(t, RunWithGolden(t, scenario))
		})
	}
}
