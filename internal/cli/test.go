package cli

import (
	"fmt"

	"github.com/spencerwilf/proof-of-habit/internal/harness"
	"github.com/spf13/cobra"
)

// NewTestCommand creates the test command.
func NewTestCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "test <scenario.yaml>...",
		Short: "Run conformance scenarios",
		Long: `Run conformance scenarios against a fresh in-memory engine.

Each scenario file funds accounts, executes a timed sequence of operations
with expected outcomes, and asserts on the final records, balances, and
audit trace. See internal/harness for the scenario format.

Example:
  poh test scenarios/success.yaml scenarios/forfeit.yaml`,
		Args:         cobra.MinimumNArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTest(rootOpts, args, cmd)
		},
	}

	return cmd
}

func runTest(opts *RootOptions, paths []string, cmd *cobra.Command) error {
	failed := 0

	for _, path := range paths {
		scenario, err := harness.LoadScenario(path)
		if err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}

		result, err := harness.Run(scenario)
		if err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}

		if result.Pass() {
			fmt.Fprintf(cmd.OutOrStdout(), "PASS %s (%d events)\n", scenario.Name, len(result.Trace))
			continue
		}

		failed++
		fmt.Fprintf(cmd.OutOrStdout(), "FAIL %s\n", scenario.Name)
		for _, msg := range result.Errors {
			fmt.Fprintf(cmd.OutOrStdout(), "  %s\n", msg)
		}
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d scenarios failed", failed, len(paths))
	}
	return nil
}
