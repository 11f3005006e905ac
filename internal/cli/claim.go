package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// NewClaimCommand creates the claim command.
func NewClaimCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "claim <id>",
		Short: "Claim your deposit back after a met goal",
		Long: `Claim your deposit back after a met goal.

Only valid at or after the window's expiry, and only when every check-in
was made. The deposit returns to you in full.

Example:
  poh claim 0 --as alice`,
		Args:         cobra.ExactArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runClaim(rootOpts, args[0], cmd)
		},
	}

	return cmd
}

func runClaim(opts *RootOptions, idArg string, cmd *cobra.Command) error {
	who, err := caller(opts)
	if err != nil {
		return err
	}
	id, err := parseID(idArg)
	if err != nil {
		return err
	}

	rt, err := openRuntime(opts)
	if err != nil {
		return err
	}
	defer rt.Close()

	if err := rt.engine.ClaimSuccess(cmd.Context(), who, id); err != nil {
		return err
	}

	rec, err := rt.engine.Habit(cmd.Context(), who, id)
	if err != nil {
		return err
	}

	if opts.Format == "json" {
		return printJSON(cmd.OutOrStdout(), map[string]any{
			"owner":  who,
			"id":     id,
			"amount": rec.Amount,
			"status": rec.Status(),
		})
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Deposit of %d units returned to %s.\n", rec.Amount, who)
	return nil
}
