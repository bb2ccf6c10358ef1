package main

import (
	"time"

	"github.com/carlitos-finanzas/carlitos/pkg/constants"
	"github.com/carlitos-finanzas/carlitos/pkg/output"
	"github.com/carlitos-finanzas/carlitos/pkg/projection"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func (a *app) newSimulateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "simulate",
		Short: "Run the savings simulators",
	}
	cmd.AddCommand(a.newFutureValueCmd(), a.newTimeToTargetCmd())
	return cmd
}

func (a *app) newFutureValueCmd() *cobra.Command {
	var (
		monthly     float64
		ratePercent float64
		years       int
		start       string
	)

	cmd := &cobra.Command{
		Use:   "future-value",
		Short: "Project the value of a monthly contribution plan",
		Example: `  carlitos simulate future-value --monthly 100000 --rate 6 --years 20
  carlitos simulate future-value --monthly 50 --output-format csv`,
		RunE: func(cmd *cobra.Command, args []string) error {
			plan := a.conf.ContributionPlan(monthly)
			if cmd.Flags().Changed("rate") {
				plan.AnnualRate = projection.PercentToRate(ratePercent)
			}
			if cmd.Flags().Changed("years") {
				plan.Years = years
			}
			if err := plan.Validate(); err != nil {
				return err
			}

			if start == "" {
				start = time.Now().Format(constants.DateTimeLayout)
			}
			schedule, err := projection.Schedule(plan, start)
			if err != nil {
				return err
			}

			fv := plan.FutureValue()
			contributed := plan.TotalContributed()
			if err := projection.CheckFinite(fv, contributed); err != nil {
				return err
			}
			a.logger.Debug("computed future value",
				zap.String("op", "main.futureValue"),
				zap.Float64("futureValue", fv),
				zap.Int("years", plan.Years),
			)

			w, err := a.writer()
			if err != nil {
				return err
			}
			return w.FutureValue(output.FutureValueResult{
				Plan:        plan,
				FutureValue: fv,
				Contributed: contributed,
				Interest:    fv - contributed,
				Schedule:    schedule,
			})
		},
	}

	cmd.Flags().Float64Var(&monthly, "monthly", 0, "monthly contribution")
	cmd.Flags().Float64Var(&ratePercent, "rate", 0, "annual rate in percent (defaults to simulator.ratePercent)")
	cmd.Flags().IntVar(&years, "years", 0, "plan length in years (defaults to simulator.years)")
	cmd.Flags().StringVar(&start, "start", "", "month of the first contribution, YYYY-MM (defaults to this month)")
	_ = cmd.MarkFlagRequired("monthly")
	return cmd
}

func (a *app) newTimeToTargetCmd() *cobra.Command {
	var (
		monthly     float64
		ratePercent float64
		target      float64
	)

	cmd := &cobra.Command{
		Use:   "time-to-target",
		Short: "Count the months a monthly contribution needs to reach a target",
		RunE: func(cmd *cobra.Command, args []string) error {
			st := a.conf.SavingsTarget(monthly)
			if cmd.Flags().Changed("rate") {
				st.AnnualRate = projection.PercentToRate(ratePercent)
			}
			if cmd.Flags().Changed("target") {
				st.Target = target
			}
			if st.Target == 0 {
				st.Target = projection.MillionTarget
			}
			if err := st.Validate(); err != nil {
				return err
			}

			duration := st.Duration()
			if duration.Saturated {
				a.logger.Info("target not reachable within the simulation horizon",
					zap.String("op", "main.timeToTarget"),
					zap.Float64("monthly", st.Monthly),
					zap.Float64("target", st.Target),
				)
			}

			w, err := a.writer()
			if err != nil {
				return err
			}
			return w.TimeToTarget(output.TimeToTargetResult{Target: st, Duration: duration})
		},
	}

	cmd.Flags().Float64Var(&monthly, "monthly", 0, "monthly contribution")
	cmd.Flags().Float64Var(&ratePercent, "rate", 0, "annual rate in percent (defaults to simulator.ratePercent)")
	cmd.Flags().Float64Var(&target, "target", 0, "target balance (defaults to simulator.target)")
	_ = cmd.MarkFlagRequired("monthly")
	return cmd
}
