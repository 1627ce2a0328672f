package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/networthpro/retirement-engine/internal/config"
	"github.com/networthpro/retirement-engine/internal/output"
	"github.com/networthpro/retirement-engine/internal/store"
)

func newPlansCmd() *cobra.Command {
	var dbPath string

	plans := &cobra.Command{
		Use:   "plans",
		Short: "Manage the local plan store",
	}
	plans.PersistentFlags().StringVar(&dbPath, "db", "networth.db", "plan store database file")

	withStore := func(run func(cmd *cobra.Command, args []string, ps *store.PlanStore) error) func(*cobra.Command, []string) error {
		return func(cmd *cobra.Command, args []string) error {
			ps, err := store.NewPlanStore(dbPath)
			if err != nil {
				return err
			}
			defer ps.Close()
			return run(cmd, args, ps)
		}
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "List stored plans",
		RunE: withStore(func(cmd *cobra.Command, args []string, ps *store.PlanStore) error {
			stored, err := ps.List()
			if err != nil {
				return err
			}
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tNAME\tMODE\tACTIVE\tUPDATED")
			for _, p := range stored {
				active := ""
				if p.Active {
					active = "yes"
				}
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", p.ID, p.Name, p.Mode, active, p.UpdatedAt.Format("2006-01-02 15:04"))
			}
			return w.Flush()
		}),
	}

	add := &cobra.Command{
		Use:   "add",
		Short: "Add a plan from a YAML file",
		RunE: withStore(func(cmd *cobra.Command, args []string, ps *store.PlanStore) error {
			inputFile, err := cmd.Flags().GetString("input")
			if err != nil {
				return err
			}
			plan, err := config.NewInputParser().LoadFromFile(inputFile)
			if err != nil {
				return err
			}
			stored, err := ps.Save(plan)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Stored plan %q as %s\n", stored.Name, stored.ID)
			return nil
		}),
	}
	add.Flags().StringP("input", "i", "", "plan YAML file (required)")
	add.MarkFlagRequired("input")

	show := &cobra.Command{
		Use:   "show <id>",
		Short: "Print a stored plan as YAML",
		Args:  cobra.ExactArgs(1),
		RunE: withStore(func(cmd *cobra.Command, args []string, ps *store.PlanStore) error {
			id, err := uuid.Parse(args[0])
			if err != nil {
				return fmt.Errorf("invalid plan id %q", args[0])
			}
			stored, err := ps.Get(id)
			if err != nil {
				return err
			}
			b, err := yaml.Marshal(stored.Plan)
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(b)
			return err
		}),
	}

	remove := &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a stored plan",
		Args:  cobra.ExactArgs(1),
		RunE: withStore(func(cmd *cobra.Command, args []string, ps *store.PlanStore) error {
			id, err := uuid.Parse(args[0])
			if err != nil {
				return fmt.Errorf("invalid plan id %q", args[0])
			}
			if err := ps.Delete(id); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted plan %s\n", id)
			return nil
		}),
	}

	activate := &cobra.Command{
		Use:   "activate <id>",
		Short: "Mark a stored plan as the active one",
		Args:  cobra.ExactArgs(1),
		RunE: withStore(func(cmd *cobra.Command, args []string, ps *store.PlanStore) error {
			id, err := uuid.Parse(args[0])
			if err != nil {
				return fmt.Errorf("invalid plan id %q", args[0])
			}
			stored, err := ps.Activate(id)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Plan %q is now active\n", stored.Name)
			return nil
		}),
	}

	export := &cobra.Command{
		Use:   "export <id>",
		Short: "Write a stored plan back out as a YAML file",
		Args:  cobra.ExactArgs(1),
		RunE: withStore(func(cmd *cobra.Command, args []string, ps *store.PlanStore) error {
			id, err := uuid.Parse(args[0])
			if err != nil {
				return fmt.Errorf("invalid plan id %q", args[0])
			}
			outFile, err := cmd.Flags().GetString("output")
			if err != nil {
				return err
			}
			stored, err := ps.Get(id)
			if err != nil {
				return err
			}
			if err := output.SavePlan(stored.Plan, outFile); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Plan %q written to %s\n", stored.Name, outFile)
			return nil
		}),
	}
	export.Flags().StringP("output", "o", "plan.yaml", "destination file")

	plans.AddCommand(list, add, show, remove, activate, export)
	return plans
}
