package cli

import (
	"fmt"

	"github.com/spencerwilf/proof-of-habit/internal/habit"
	"github.com/spf13/cobra"
)

// NewForfeitCommand creates the forfeit command.
func NewForfeitCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "forfeit <owner> <id>",
		Short: "Claim a missed commitment's deposit as its loss recipient",
		Long: `Claim a missed commitment's deposit as its loss recipient.

Only valid once the owner has missed a cadence beat (a full day without a
check-in) and only while the check-in target is unmet. The full deposit
moves to you.

Example:
  poh forfeit alice 0 --as bob`,
		Args:         cobra.ExactArgs(2),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runForfeit(rootOpts, args[0], args[1], cmd)
		},
	}

	return cmd
}

func runForfeit(opts *RootOptions, ownerArg, idArg string, cmd *cobra.Command) error {
	who, err := caller(opts)
	if err != nil {
		return err
	}
	id, err := parseID(idArg)
	if err != nil {
		return err
	}
	owner := habit.Identity(ownerArg)

	rt, err := openRuntime(opts)
	if err != nil {
		return err
	}
	defer rt.Close()

	if err := rt.engine.ClaimForfeit(cmd.Context(), who, owner, id); err != nil {
		return err
	}

	rec, err := rt.engine.Habit(cmd.Context(), owner, id)
	if err != nil {
		return err
	}

	if opts.Format == "json" {
		return printJSON(cmd.OutOrStdout(), map[string]any{
			"owner":    owner,
			"id":       id,
			"claimant": who,
			"amount":   rec.Amount,
			"status":   rec.Status(),
		})
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Forfeited deposit of %d units from %s's habit %d moved to %s.\n",
		rec.Amount, owner, id, who)
	return nil
}
