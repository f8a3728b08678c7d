package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kilianp07/fieldsched/app"
	"github.com/kilianp07/fieldsched/core/planner"
	"github.com/kilianp07/fieldsched/infra/logger"
	"github.com/kilianp07/fieldsched/qa/scenarios"
)

var (
	scenarioPath string
	runScenario  bool
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Load a scenario fixture into the configured store",
	Long: "Seed writes the fixture's roster, availability and jobs into the configured store.\n" +
		"With --run the fixture's actions are executed and its expectations checked.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		sc, err := scenarios.Load(scenarioPath)
		if err != nil {
			return err
		}
		return withService(cmd, func(ctx context.Context, svc *app.Service) error {
			summary := fmt.Sprintf("seeded %s: %d technicians, %d jobs on %s",
				sc.Name, len(sc.Technicians), len(sc.Jobs), sc.Date)
			if !runScenario {
				if err := sc.Seed(ctx, svc.Store); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), summary)
				return nil
			}
			out, err := scenarios.ExecuteOn(ctx, sc, svc.Store, svc.Planner.Config(), logger.New("scenario"),
				planner.WithPlanLog(svc.PlanLog))
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), summary)
			failures := out.Failures
			for _, f := range failures {
				fmt.Fprintln(cmd.OutOrStdout(), "FAIL", f)
			}
			if len(failures) > 0 {
				return fmt.Errorf("scenario %s: %d expectations failed", sc.Name, len(failures))
			}
			fmt.Fprintf(cmd.OutOrStdout(), "scenario %s passed\n", sc.Name)
			return nil
		})
	},
}

func init() {
	seedCmd.Flags().StringVar(&scenarioPath, "scenario", "", "scenario YAML file")
	seedCmd.Flags().BoolVar(&runScenario, "run", false, "run the scenario actions and check expectations")
	_ = seedCmd.MarkFlagRequired("scenario")
	rootCmd.AddCommand(seedCmd)
}
