package main

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/networthpro/retirement-engine/internal/calculation"
	"github.com/networthpro/retirement-engine/internal/config"
	"github.com/networthpro/retirement-engine/internal/logging"
	"github.com/networthpro/retirement-engine/internal/output"
)

func newMonteCarloCmd() *cobra.Command {
	var (
		inputFile  string
		iterations int
		provider   string
		seed       int64
		noStress   bool
		csvDir     string
	)

	cmd := &cobra.Command{
		Use:   "montecarlo",
		Short: "Run Monte Carlo analysis over randomized market histories",
		RunE: func(cmd *cobra.Command, args []string) error {
			log := logging.NewForVerbosity(verbose)
			defer log.Sync()

			plan, err := config.NewInputParser().LoadFromFile(inputFile)
			if err != nil {
				return err
			}
			data, err := calculation.LoadEmbeddedReturns()
			if err != nil {
				return err
			}

			// Flags override the defaults of the plan's mode
			cfg := calculation.ConfigForMode(plan.Mode)
			if iterations > 0 {
				cfg.Iterations = iterations
			}
			if provider != "" {
				cfg.Provider = provider
			}
			if seed != 0 {
				cfg.Seed = seed
			}
			cfg.DisableStressTest = noStress

			sim := calculation.NewMonteCarloSimulator(config.ToSimulationInput(plan), data, cfg)
			sim.SetLogger(log.Sugar())

			result, err := sim.Run()
			if err != nil {
				return err
			}

			console := &output.MonteCarloConsoleReport{Result: result}
			if _, err := cmd.OutOrStdout().Write(console.Render()); err != nil {
				return err
			}

			if csvDir != "" {
				csvReport := &output.MonteCarloCSVReport{Result: result}
				if err := csvReport.GenerateAllCSVReports(csvDir); err != nil {
					return err
				}
				log.Info("csv reports written", zap.String("dir", csvDir))
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&inputFile, "input", "i", "", "plan YAML file (required)")
	cmd.Flags().IntVarP(&iterations, "iterations", "n", 0, "iteration count (0 uses the plan mode's default)")
	cmd.Flags().StringVar(&provider, "provider", "", "return provider: fixed, historical_bootstrap, normal_perturbation")
	cmd.Flags().Int64Var(&seed, "seed", 0, "base random seed for reproducible runs")
	cmd.Flags().BoolVar(&noStress, "no-stress-test", false, "drop the plan's deterministic crash from the iterations")
	cmd.Flags().StringVar(&csvDir, "csv-dir", "", "also write summary/fan/iteration CSVs to this directory")
	cmd.MarkFlagRequired("input")
	return cmd
}
