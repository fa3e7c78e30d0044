package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// NewUnitsCommand creates the units command.
func NewUnitsCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "units <symbol>",
		Short: "Show how a unit symbol resolves in the unit index",
		Long: `Show the unit group, reference flow property and conversion factor
the session unit index resolves a unit symbol to.

Example:
  flowlink units t`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := openSession(cmd.Context(), rootOpts, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer sess.Close()

			entry, err := sess.resolver.Units().EntryOf(args[0])
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "unit: %s\n", entry.Unit.Name)
			fmt.Fprintf(out, "unit group: %s\n", entry.UnitGroup.Name)
			fmt.Fprintf(out, "flow property: %s\n", entry.FlowProperty.Name)
			fmt.Fprintf(out, "conversion factor: %v\n", entry.Factor)
			return nil
		},
	}
}
