package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dharmasatrya/flightwatch/internal/expander"
)

func newPlanCommand(root *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "plan",
		Short: "List the query tuples a run would search",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := root.loadConfig()
			if err != nil {
				return err
			}

			spec, err := cfg.TripSpecification()
			if err != nil {
				return err
			}

			tuples, err := expander.ExpandWithLimit(spec, cfg.Search.MaxQueries)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			for _, q := range tuples {
				fmt.Fprintln(out, q.Key())
			}
			fmt.Fprintf(out, "%d queries\n", len(tuples))
			return nil
		},
	}
}
