package cli

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/dharmasatrya/flightwatch/internal/config"
)

// Version is set at build time via ldflags.
var Version = "dev"

type rootOptions struct {
	configFile string
}

// NewRootCommand builds the flightwatch command tree.
func NewRootCommand() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:   "flightwatch",
		Short: "Flightwatch - cheapest round-trip finder with price alerts",
		Long: `Flightwatch expands a trip into every origin and date combination,
searches each one, keeps the cheapest offer that satisfies the trip's
constraints, and sends an alert for winners under the price threshold.`,
		SilenceUsage: true,
	}

	cmd.PersistentFlags().StringVar(&opts.configFile, "config", "", "config file (default: ./flightwatch.yaml)")

	cmd.AddCommand(
		newRunCommand(opts),
		newPlanCommand(opts),
		newServeCommand(opts),
		newVersionCommand(),
	)

	return cmd
}

// Execute runs the CLI.
func Execute() {
	if err := NewRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}

func (o *rootOptions) loadConfig() (*config.Config, error) {
	return config.Load(o.configFile)
}

func userAgent() string {
	return "flightwatch/" + Version
}
