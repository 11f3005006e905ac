package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// NewCheckInCommand creates the checkin command.
func NewCheckInCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "checkin <id>",
		Short: "Record today's check-in for one of your habits",
		Long: `Record today's check-in for one of your habits.

At most one check-in is accepted per rolling 24-hour period, measured from
the last accepted check-in.

Example:
  poh checkin 0 --as alice`,
		Args:         cobra.ExactArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCheckIn(rootOpts, args[0], cmd)
		},
	}

	return cmd
}

func runCheckIn(opts *RootOptions, idArg string, cmd *cobra.Command) error {
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

	count, err := rt.engine.CheckIn(cmd.Context(), who, id)
	if err != nil {
		return err
	}

	rec, err := rt.engine.Habit(cmd.Context(), who, id)
	if err != nil {
		return err
	}

	if opts.Format == "json" {
		return printJSON(cmd.OutOrStdout(), map[string]any{
			"owner":      who,
			"id":         id,
			"count":      count,
			"target":     rec.WindowDays,
			"target_met": rec.TargetMet(),
		})
	}
	if rec.TargetMet() {
		fmt.Fprintf(cmd.OutOrStdout(), "Check-in %d of %d recorded - target met! Claim after %s.\n",
			count, rec.WindowDays, rec.Expiry.Format("2006-01-02 15:04"))
	} else {
		fmt.Fprintf(cmd.OutOrStdout(), "Check-in %d of %d recorded.\n", count, rec.WindowDays)
	}
	return nil
}
