package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/lcatools/flowlink/internal/flowmap"
	"github.com/lcatools/flowlink/internal/refdata"
)

// ResolveOptions holds flags for the resolve command.
type ResolveOptions struct {
	*RootOptions
	FlowType string
	Unit     string
	Category string
	Location string
	Queries  string
}

// NewResolveCommand creates the resolve command.
func NewResolveCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ResolveOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "resolve [flow name]",
		Short: "Resolve a flow description to a canonical flow",
		Long: `Resolve a flow description to a canonical flow in the reference
database, creating one when nothing matches. The resolution is cached in
the mapping file; repeating it answers from the cache.

Examples:
  flowlink resolve "Carbon dioxide" --unit g --category air/unspecified
  flowlink resolve "Steel" --type product --unit kg --location FI
  flowlink resolve --queries exchanges.cue`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runResolve(cmd, opts, args)
		},
	}

	cmd.Flags().StringVar(&opts.FlowType, "type", "elementary", "flow type (elementary|product|waste)")
	cmd.Flags().StringVar(&opts.Unit, "unit", "", "unit symbol the amount is expressed in")
	cmd.Flags().StringVar(&opts.Category, "category", "", "slash-delimited category path")
	cmd.Flags().StringVar(&opts.Location, "location", "", "location name (product/waste flows)")
	cmd.Flags().StringVar(&opts.Queries, "queries", "", "CUE file with a batch of queries")

	return cmd
}

func runResolve(cmd *cobra.Command, opts *ResolveOptions, args []string) error {
	var queries []flowmap.Query
	switch {
	case opts.Queries != "":
		loaded, err := LoadQueries(opts.Queries)
		if err != nil {
			return err
		}
		queries = loaded
	case len(args) == 1:
		flowType, ok := refdata.ParseFlowType(opts.FlowType)
		if !ok {
			return fmt.Errorf("unknown flow type %q", opts.FlowType)
		}
		queries = []flowmap.Query{
			flowmap.For(flowType, args[0]).
				WithUnit(opts.Unit).
				WithCategory(opts.Category).
				WithLocation(opts.Location),
		}
	default:
		return fmt.Errorf("either a flow name or --queries is required")
	}

	sess, err := openSession(cmd.Context(), opts.RootOptions, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	defer sess.Close()

	// Batch callers skip failed items instead of aborting the batch;
	// failures still decide the exit status.
	failed := 0
	for _, query := range queries {
		entry, err := sess.resolver.Resolve(cmd.Context(), query)
		if err != nil {
			failed++
			fmt.Fprintf(cmd.ErrOrStderr(), "FAILED %s: %v\n", query.String(), err)
			continue
		}
		printEntry(cmd.OutOrStdout(), entry)
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d queries failed", failed, len(queries))
	}
	return nil
}

// printEntry renders a mapping entry the way mapping tables are usually
// read: the query line, then the resolved flow.
func printEntry(w io.Writer, entry flowmap.Entry) {
	fmt.Fprintf(w, "%s is mapped to:\n", entry.From.String())
	fmt.Fprintf(w, "  flow: %s\n", entry.To.Flow.Name)
	fmt.Fprintf(w, "  id: %s\n", entry.To.Flow.ID)
	if entry.To.Flow.Category != "" {
		fmt.Fprintf(w, "  category: %s\n", entry.To.Flow.Category)
	}
	if !entry.To.Provider.IsZero() {
		fmt.Fprintf(w, "  provider: %s\n", entry.To.Provider.ID)
	}
	fmt.Fprintf(w, "  conversion factor: %v\n", entry.ConversionFactor)
}
