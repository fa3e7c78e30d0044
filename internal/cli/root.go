// Package cli implements the flowlink command line interface.
//
// The CLI is a thin shell around the resolution engine: it opens the local
// reference database and mapping file named by the config, builds a session
// resolver, and renders results. All interesting behavior lives in the
// resolver and its collaborators.
package cli

import (
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Verbose    bool
	ConfigPath string
}

// Logger builds the logger commands hand to the resolver. Verbose enables
// debug-level resolution tracing; otherwise only info and above is shown.
func (o *RootOptions) Logger(stderr io.Writer) *slog.Logger {
	level := slog.LevelInfo
	if o.Verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: level}))
}

// NewRootCommand creates the root command for the flowlink CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "flowlink",
		Short: "flowlink - flow mapping against a reference data store",
		Long: `flowlink resolves flow descriptions (name, unit, category, type,
optional location) to canonical flows in a reference data store, caching
every resolution in a mapping file for reuse.`,
		SilenceUsage: true,
	}

	// Global flags
	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().StringVar(&opts.ConfigPath, "config", "flowlink.yaml", "config file path")

	// Add subcommands
	cmd.AddCommand(NewResolveCommand(opts))
	cmd.AddCommand(NewUnitsCommand(opts))
	cmd.AddCommand(NewMappingsCommand(opts))
	cmd.AddCommand(NewSeedCommand(opts))

	return cmd
}

// Execute runs the root command against os.Args.
func Execute() error {
	cmd := NewRootCommand()
	cmd.SetOut(os.Stdout)
	cmd.SetErr(os.Stderr)
	return cmd.Execute()
}
