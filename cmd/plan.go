package cmd

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/kilianp07/fieldsched/app"
	"github.com/kilianp07/fieldsched/core/model"
	"github.com/kilianp07/fieldsched/core/planner"
	"github.com/kilianp07/fieldsched/pkg/export"
)

var (
	date      string
	noAutoFix bool
	startAt   string
	jobID     string
	techID    string
	limit     int
	format    string
)

type planOpts struct {
	day  string
	opts planner.PlanOptions
}

var planCmd = &cobra.Command{
	Use:   "plan",
	Short: "Balance and sequence every job of a day",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return runPlan(cmd, func(ctx context.Context, p *planner.Planner, o planOpts) (*planner.Plan, error) {
			day, err := dayFlag(o.day)
			if err != nil {
				return nil, err
			}
			return p.PlanDay(ctx, day, o.opts)
		})
	},
}

var fillCmd = &cobra.Command{
	Use:   "fill",
	Short: "Assign the day's unassigned jobs to their best technician",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return runPlan(cmd, func(ctx context.Context, p *planner.Planner, o planOpts) (*planner.Plan, error) {
			day, err := dayFlag(o.day)
			if err != nil {
				return nil, err
			}
			return p.SmartFill(ctx, day, o.opts)
		})
	},
}

var resequenceCmd = &cobra.Command{
	Use:   "resequence",
	Short: "Order one technician's stored route again",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return runPlan(cmd, func(ctx context.Context, p *planner.Planner, o planOpts) (*planner.Plan, error) {
			day, err := dayFlag(o.day)
			if err != nil {
				return nil, err
			}
			return p.Resequence(ctx, day, model.TechnicianID(techID))
		})
	},
}

var conflictsCmd = &cobra.Command{
	Use:   "conflicts",
	Short: "List the violations in a stored day",
	RunE: func(cmd *cobra.Command, _ []string) error {
		day, err := dayFlag(date)
		if err != nil {
			return err
		}
		return withService(cmd, func(ctx context.Context, svc *app.Service) error {
			cs, err := svc.Planner.Conflicts(ctx, day)
			if err != nil {
				return err
			}
			return printJSON(cmd, cs)
		})
	},
}

var recommendCmd = &cobra.Command{
	Use:   "recommend",
	Short: "Rank technicians for one job",
	RunE: func(cmd *cobra.Command, _ []string) error {
		day, err := dayFlag(date)
		if err != nil {
			return err
		}
		return withService(cmd, func(ctx context.Context, svc *app.Service) error {
			cands, err := svc.Planner.Recommend(ctx, day, model.JobID(jobID), limit)
			if err != nil {
				return err
			}
			return printJSON(cmd, cands)
		})
	},
}

func init() {
	for _, c := range []*cobra.Command{planCmd, fillCmd, resequenceCmd, conflictsCmd, recommendCmd} {
		c.Flags().StringVar(&date, "date", "", "day to work on (YYYY-MM-DD, default today)")
		rootCmd.AddCommand(c)
	}
	for _, c := range []*cobra.Command{planCmd, fillCmd} {
		c.Flags().BoolVar(&noAutoFix, "no-autofix", false, "leave detected conflicts unresolved")
		c.Flags().StringVar(&startAt, "start", "", "override every shift start (HH:MM)")
	}
	for _, c := range []*cobra.Command{planCmd, fillCmd, resequenceCmd} {
		c.Flags().StringVar(&format, "format", "plan", "output: plan (full JSON), json (routes) or csv (routes)")
	}
	resequenceCmd.Flags().StringVar(&techID, "tech", "", "technician whose route is resequenced")
	_ = resequenceCmd.MarkFlagRequired("tech")
	recommendCmd.Flags().StringVar(&jobID, "job", "", "job to rank technicians for")
	recommendCmd.Flags().IntVar(&limit, "limit", 0, "number of candidates (0 uses the configured default)")
	_ = recommendCmd.MarkFlagRequired("job")
}

func runPlan(cmd *cobra.Command, fn func(context.Context, *planner.Planner, planOpts) (*planner.Plan, error)) error {
	opts := planner.PlanOptions{AutoFix: cfg.Scheduling.AutoFix && !noAutoFix}
	if startAt != "" {
		c, err := model.ParseClock(startAt)
		if err != nil {
			return err
		}
		opts.Start = &c
	}
	return withService(cmd, func(ctx context.Context, svc *app.Service) error {
		plan, err := fn(ctx, svc.Planner, planOpts{day: date, opts: opts})
		if err != nil {
			return err
		}
		if format == "plan" {
			return printJSON(cmd, plan)
		}
		return export.Write(cmd.OutOrStdout(), format, plan.Routes)
	})
}
