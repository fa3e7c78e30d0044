package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// NewMappingsCommand creates the mappings command.
func NewMappingsCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "mappings",
		Short: "List the persisted flow mappings",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := openSession(cmd.Context(), rootOpts, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer sess.Close()

			out := cmd.OutOrStdout()
			entries := sess.resolver.Cache().Entries()
			for _, entry := range entries {
				fmt.Fprintf(out, "%s -> %s (factor %v)\n",
					entry.From.String(), entry.To.Flow.Name, entry.ConversionFactor)
			}
			fmt.Fprintf(out, "%d mapping(s) in %s\n", len(entries), sess.cfg.MappingFile)
			return nil
		},
	}
}
