package cli

import (
	"fmt"

	"github.com/spencerwilf/proof-of-habit/internal/habit"
	"github.com/spf13/cobra"
)

// NewBalanceCommand creates the balance command.
func NewBalanceCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "balance [account]",
		Short: "Show an account's balance",
		Long: `Show an account's balance in value units.

Defaults to the caller identity. Unknown accounts read as zero.

Example:
  poh balance --as alice
  poh balance escrow`,
		Args:         cobra.MaximumNArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			account := ""
			if len(args) == 1 {
				account = args[0]
			}
			return runBalance(rootOpts, account, cmd)
		},
	}

	return cmd
}

func runBalance(opts *RootOptions, account string, cmd *cobra.Command) error {
	if account == "" {
		who, err := caller(opts)
		if err != nil {
			return err
		}
		account = string(who)
	}

	rt, err := openRuntime(opts)
	if err != nil {
		return err
	}
	defer rt.Close()

	balance, err := rt.bank.Balance(cmd.Context(), rt.store.DB(), habit.Identity(account))
	if err != nil {
		return err
	}

	if opts.Format == "json" {
		return printJSON(cmd.OutOrStdout(), map[string]any{
			"account": account,
			"balance": balance,
		})
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s: %d units\n", account, balance)
	return nil
}
