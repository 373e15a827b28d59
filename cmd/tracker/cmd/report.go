package cmd

import (
	"github.com/spf13/cobra"
)

var tradesCmd = &cobra.Command{
	Use:   "trades",
	Short: "List stored flips, most recently imported first",
	Args:  cobra.NoArgs,
	RunE:  runTrades,
}

var dashboardCmd = &cobra.Command{
	Use:   "dashboard",
	Short: "Show total profit, completed flips and top-ten rankings",
	Args:  cobra.NoArgs,
	RunE:  runDashboard,
}

var dailyCmd = &cobra.Command{
	Use:   "daily",
	Short: "Show the per-day rollup, newest day first",
	Args:  cobra.NoArgs,
	RunE:  runDaily,
}

var timelineCmd = &cobra.Command{
	Use:   "timeline",
	Short: "Show cumulative net worth per day, newest day first",
	Args:  cobra.NoArgs,
	RunE:  runTimeline,
}

var tradesStatus string

func init() {
	rootCmd.AddCommand(tradesCmd, dashboardCmd, dailyCmd, timelineCmd)
	tradesCmd.Flags().StringVarP(&tradesStatus, "status", "s", "", "only flips with this status (case-insensitive)")
}

func runTrades(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.close()

	trades, err := a.store.List(cmd.Context(), tradesStatus)
	if err != nil {
		return err
	}
	return printJSON(cmd.OutOrStdout(), trades)
}

func runDashboard(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.close()

	d, err := a.engine.Dashboard(cmd.Context())
	if err != nil {
		return err
	}
	return printJSON(cmd.OutOrStdout(), d)
}

func runDaily(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.close()

	buckets, err := a.engine.DailyReturns(cmd.Context())
	if err != nil {
		return err
	}
	return printJSON(cmd.OutOrStdout(), buckets)
}

func runTimeline(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.close()

	points, err := a.engine.Timeline(cmd.Context())
	if err != nil {
		return err
	}
	return printJSON(cmd.OutOrStdout(), points)
}
