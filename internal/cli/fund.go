package cli

import (
	"fmt"

	"github.com/spencerwilf/proof-of-habit/internal/habit"
	"github.com/spf13/cobra"
)

// NewFundCommand creates the fund command.
func NewFundCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "fund <account> <amount>",
		Short: "Credit an account (demo funding)",
		Long: `Credit an account with value units.

This stands in for the host environment's funding path so local demos have
balances to deposit from. The engine itself never mints.

Example:
  poh fund alice 1000`,
		Args:         cobra.ExactArgs(2),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runFund(rootOpts, args[0], args[1], cmd)
		},
	}

	return cmd
}

func runFund(opts *RootOptions, account, amountArg string, cmd *cobra.Command) error {
	amount, err := parseAmount(amountArg)
	if err != nil {
		return err
	}

	rt, err := openRuntime(opts)
	if err != nil {
		return err
	}
	defer rt.Close()

	if err := rt.engine.Fund(cmd.Context(), habit.Identity(account), amount); err != nil {
		return err
	}

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
	fmt.Fprintf(cmd.OutOrStdout(), "Credited %d units to %s (balance %d).\n", amount, account, balance)
	return nil
}
