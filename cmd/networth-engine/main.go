// Command networth-engine runs retirement projections from the terminal and
// serves the HTTP API the Networth Pro web UI talks to.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/networthpro/retirement-engine/internal/config"
	"github.com/networthpro/retirement-engine/internal/output"
)

var verbose bool

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "networth-engine",
		Short: "Retirement projection engine for Networth Pro",
		Long: `networth-engine projects household net worth year by year through
retirement, runs Monte Carlo analysis over randomized market histories, and
serves the HTTP API behind the Networth Pro web UI.`,
		SilenceUsage:  true,
		SilenceErrors: false,
	}

	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")

	root.AddCommand(
		newSimulateCmd(),
		newMonteCarloCmd(),
		newExampleCmd(),
		newPlansCmd(),
		newServeCmd(),
	)
	return root
}

func newExampleCmd() *cobra.Command {
	var outFile string

	cmd := &cobra.Command{
		Use:   "example",
		Short: "Write an example plan YAML to get started",
		RunE: func(cmd *cobra.Command, args []string) error {
			plan := config.NewInputParser().CreateExamplePlan()
			if err := output.SavePlan(plan, outFile); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Example plan written to %s\n", outFile)
			return nil
		},
	}

	cmd.Flags().StringVarP(&outFile, "output", "o", "networth_plan.yaml", "destination file")
	return cmd
}
