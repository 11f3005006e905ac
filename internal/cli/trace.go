package cli

import (
	"fmt"
	"text/tabwriter"

	"github.com/spencerwilf/proof-of-habit/internal/habit"
	"github.com/spf13/cobra"
)

// TraceOptions holds flags for the trace command.
type TraceOptions struct {
	*RootOptions
	Owner string
	ID    int64
}

// NewTraceCommand creates the trace command.
func NewTraceCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &TraceOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "trace",
		Short: "Show the audit event log",
		Long: `Show the audit event log.

Without flags, prints the complete log. With --owner and --id, prints one
record's trail: creation, every check-in, and the resolving claim.

Example:
  poh trace
  poh trace --owner alice --id 0`,
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTrace(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Owner, "owner", "", "filter to one owner's record (requires --id)")
	cmd.Flags().Int64Var(&opts.ID, "id", -1, "record id (requires --owner)")

	return cmd
}

func runTrace(opts *TraceOptions, cmd *cobra.Command) error {
	if (opts.Owner == "") != (opts.ID < 0) {
		return fmt.Errorf("--owner and --id must be used together")
	}

	rt, err := openRuntime(opts.RootOptions)
	if err != nil {
		return err
	}
	defer rt.Close()

	var events []habit.Event
	if opts.Owner != "" {
		events, err = rt.engine.Trace(cmd.Context(), habit.Identity(opts.Owner), uint64(opts.ID))
	} else {
		events, err = rt.engine.Log(cmd.Context())
	}
	if err != nil {
		return err
	}

	if opts.Format == "json" {
		return printJSON(cmd.OutOrStdout(), events)
	}

	if len(events) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No events.")
		return nil
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "SEQ\tTIME\tKIND\tOWNER\tID\tACTOR\tAMOUNT\tDETAIL")
	for _, ev := range events {
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%d\t%s\t%d\t%s\n",
			ev.Seq, ev.OccurredAt.Format("2006-01-02 15:04:05"), ev.Kind,
			ev.Owner, ev.HabitID, ev.Actor, ev.Amount, ev.Detail)
	}
	return w.Flush()
}
