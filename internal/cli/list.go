package cli

import (
	"fmt"
	"text/tabwriter"

	"github.com/spencerwilf/proof-of-habit/internal/habit"
	"github.com/spf13/cobra"
)

// ListOptions holds flags for the list command.
type ListOptions struct {
	*RootOptions
	Owner string
}

// NewListCommand creates the list command.
func NewListCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ListOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List habit records",
		Long: `List habit records in id order.

Defaults to your own records; records never disappear, so resolved
commitments stay visible as an audit trail.

Example:
  poh list --as alice
  poh list --owner alice --format json`,
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runList(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Owner, "owner", "", "list another user's records (defaults to --as)")

	return cmd
}

func runList(opts *ListOptions, cmd *cobra.Command) error {
	owner := habit.Identity(opts.Owner)
	if owner == "" {
		who, err := caller(opts.RootOptions)
		if err != nil {
			return err
		}
		owner = who
	}

	rt, err := openRuntime(opts.RootOptions)
	if err != nil {
		return err
	}
	defer rt.Close()

	recs, err := rt.engine.Habits(cmd.Context(), owner)
	if err != nil {
		return err
	}

	if opts.Format == "json" {
		return printJSON(cmd.OutOrStdout(), recs)
	}

	if len(recs) == 0 {
		fmt.Fprintf(cmd.OutOrStdout(), "No habits for %s.\n", owner)
		return nil
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tTITLE\tDAYS\tDEPOSIT\tLOSS TO\tSTATUS")
	for _, rec := range recs {
		fmt.Fprintf(w, "%d\t%s\t%d/%d\t%d\t%s\t%s\n",
			rec.ID, rec.Title, rec.CheckedInDays, rec.WindowDays, rec.Amount, rec.LossRecipient, rec.Status())
	}
	return w.Flush()
}
