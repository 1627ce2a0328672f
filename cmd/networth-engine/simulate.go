package main

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/networthpro/retirement-engine/internal/calculation"
	"github.com/networthpro/retirement-engine/internal/config"
	"github.com/networthpro/retirement-engine/internal/logging"
	"github.com/networthpro/retirement-engine/internal/output"
)

func newSimulateCmd() *cobra.Command {
	var (
		inputFile string
		format    string
	)

	cmd := &cobra.Command{
		Use:   "simulate",
		Short: "Run the deterministic projection for a plan",
		RunE: func(cmd *cobra.Command, args []string) error {
			log := logging.NewForVerbosity(verbose)
			defer log.Sync()

			plan, err := config.NewInputParser().LoadFromFile(inputFile)
			if err != nil {
				return err
			}
			input := config.ToSimulationInput(plan)

			engine, err := calculation.NewEngine(input)
			if err != nil {
				return err
			}
			engine.SetLogger(log.Sugar())
			result := engine.Run()

			report := &output.Report{
				PlanName:    plan.Name,
				Assumptions: output.GenerateAssumptions(input.Assumptions),
				Result:      result,
			}

			// Console formats print to stdout, the rest write timestamped files
			switch n := output.NormalizeFormatName(format); n {
			case "console", "console-lite":
				data, err := output.GetFormatterByName(n).Format(report)
				if err != nil {
					return err
				}
				_, err = cmd.OutOrStdout().Write(data)
				return err
			default:
				if err := output.GenerateReport(report, format); err != nil {
					return err
				}
				log.Info("report written", zap.String("format", n))
				return nil
			}
		},
	}

	cmd.Flags().StringVarP(&inputFile, "input", "i", "", "plan YAML file (required)")
	cmd.Flags().StringVarP(&format, "format", "f", "console", "output format: console, console-lite, csv, json, all")
	cmd.MarkFlagRequired("input")
	return cmd
}
