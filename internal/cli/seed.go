package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/lcatools/flowlink/internal/refdata"
)

// NewSeedCommand creates the seed command.
func NewSeedCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "seed <seed.yaml>",
		Short: "Load reference data into the local database",
		Long: `Load unit groups, flows and locations from a YAML seed file into
the reference database. Identities are derived from the defining fields,
so re-seeding the same file is a no-op.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := LoadConfig(rootOpts.ConfigPath)
			if err != nil {
				return err
			}

			data, err := refdata.LoadSeed(args[0])
			if err != nil {
				return err
			}

			store, err := refdata.Open(cfg.Database)
			if err != nil {
				return err
			}
			defer store.Close()

			if err := store.Seed(cmd.Context(), data); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(),
				"seeded %d unit group(s), %d flow(s), %d location(s) into %s\n",
				len(data.UnitGroups), len(data.Flows), len(data.Locations), cfg.Database)
			return nil
		},
	}
}
