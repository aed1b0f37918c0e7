package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dharmasatrya/flightwatch/internal/app"
)

type runOptions struct {
	dryRun     bool
	offersFile string
	jsonOutput bool
}

func newRunCommand(root *rootOptions) *cobra.Command {
	opts := &runOptions{}

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Search every query tuple once and send alerts",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runOnce(cmd, root, opts)
		},
	}

	cmd.Flags().BoolVar(&opts.dryRun, "dry-run", false, "print alerts instead of sending them")
	cmd.Flags().StringVar(&opts.offersFile, "offers-file", "", "read offers from a JSON file instead of Amadeus")
	cmd.Flags().BoolVar(&opts.jsonOutput, "json", false, "print the per-query results as JSON")

	return cmd
}

func runOnce(cmd *cobra.Command, root *rootOptions, opts *runOptions) error {
	cfg, err := root.loadConfig()
	if err != nil {
		return err
	}

	a, err := app.New(cfg, app.Options{
		OffersFile: opts.offersFile,
		DryRun:     opts.dryRun,
		UserAgent:  userAgent(),
		Stdout:     cmd.OutOrStdout(),
		Stderr:     cmd.ErrOrStderr(),
	})
	if err != nil {
		return err
	}
	defer a.Close()

	ctx := cmd.Context()
	report, err := a.Runner.Run(ctx, a.Spec)
	if err != nil {
		return err
	}

	if opts.jsonOutput {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		if err := enc.Encode(report.Results()); err != nil {
			return fmt.Errorf("encode results: %w", err)
		}
	}

	// Alerts that fail to deliver do not fail the run.
	if err := a.Runner.Notify(ctx, report, a.Sink); err != nil {
		a.Logger.Warn("run finished with undelivered alerts", "run_id", report.RunID, "error", err)
	}

	return nil
}
