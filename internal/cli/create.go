package cli

import (
	"fmt"

	"github.com/spencerwilf/proof-of-habit/internal/habit"
	"github.com/spf13/cobra"
)

// CreateOptions holds flags for the create command.
type CreateOptions struct {
	*RootOptions
	Title         string
	Days          uint64
	LossRecipient string
	Deposit       uint64
}

// NewCreateCommand creates the create command.
func NewCreateCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &CreateOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Lock a deposit against a new habit goal",
		Long: `Lock a deposit against a new habit goal.

The deposit moves into escrow immediately. Check in once per day; after the
window expires, claim the deposit back with 'poh claim'. Miss a day and the
loss recipient can take it with 'poh forfeit'.

Example:
  poh create --as alice --title "morning run" --days 30 --loss-to bob --deposit 500`,
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCreate(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Title, "title", "", "habit label")
	cmd.Flags().Uint64Var(&opts.Days, "days", 0, "commitment window in days (minimum 3)")
	cmd.Flags().StringVar(&opts.LossRecipient, "loss-to", "", "identity that receives the deposit on failure")
	cmd.Flags().Uint64Var(&opts.Deposit, "deposit", 0, "deposit in value units (minimum 100)")
	cmd.MarkFlagRequired("days")
	cmd.MarkFlagRequired("loss-to")
	cmd.MarkFlagRequired("deposit")

	return cmd
}

func runCreate(opts *CreateOptions, cmd *cobra.Command) error {
	who, err := caller(opts.RootOptions)
	if err != nil {
		return err
	}

	rt, err := openRuntime(opts.RootOptions)
	if err != nil {
		return err
	}
	defer rt.Close()

	id, err := rt.engine.Create(cmd.Context(), who, opts.Title, opts.Days, habit.Identity(opts.LossRecipient), opts.Deposit)
	if err != nil {
		return err
	}

	if opts.Format == "json" {
		return printJSON(cmd.OutOrStdout(), map[string]any{
			"owner": who,
			"id":    id,
		})
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Created habit %d for %s: %d units in escrow for %d days.\n",
		id, who, opts.Deposit, opts.Days)
	return nil
}
