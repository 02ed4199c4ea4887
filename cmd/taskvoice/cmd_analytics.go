package main

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/GoCodeAlone/taskvoice/command"
	"github.com/GoCodeAlone/taskvoice/task"
)

var analyticsCmd = &cobra.Command{
	Use:   "analytics",
	Short: "Productivity insights from your completed tasks",
}

var patternsCmd = &cobra.Command{
	Use:   "patterns",
	Short: "Completions per hour of day",
	RunE:  showPatterns,
}

var energyCmd = &cobra.Command{
	Use:   "energy",
	Short: "High, medium and low energy windows",
	RunE:  showEnergy,
}

var estimateCmd = &cobra.Command{
	Use:   "estimate [task]",
	Short: "Estimate how long the best matching task will take",
	Args:  cobra.MinimumNArgs(1),
	RunE:  showEstimate,
}

var recommendCmd = &cobra.Command{
	Use:   "recommend",
	Short: "Rank pending tasks for right now",
	RunE:  showRecommendations,
}

var summaryCmd = &cobra.Command{
	Use:   "summary",
	Short: "Status report and completion totals",
	RunE:  showSummary,
}

func init() {
	analyticsCmd.AddCommand(patternsCmd, energyCmd, estimateCmd, recommendCmd, summaryCmd)
	rootCmd.AddCommand(analyticsCmd)
}

func showPatterns(cmd *cobra.Command, args []string) error {
	a, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	patterns, err := a.analytics.ProductivityPatterns(cmd.Context())
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	if jsonOutput {
		return printJSON(out, patterns)
	}
	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "HOUR\tTASKS\tAVG MIN")
	rows := 0
	for _, p := range patterns {
		if p.TaskCount == 0 {
			continue
		}
		rows++
		fmt.Fprintf(w, "%02d:00\t%d\t%.0f\n", p.HourOfDay, p.TaskCount, p.AvgCompletionTime)
	}
	if rows == 0 {
		fmt.Fprintln(out, "No completions recorded yet.")
		return nil
	}
	return w.Flush()
}

func showEnergy(cmd *cobra.Command, args []string) error {
	a, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	windows, err := a.analytics.EnergyWindows(cmd.Context())
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	if jsonOutput {
		return printJSON(out, windows)
	}
	if len(windows) == 0 {
		fmt.Fprintln(out, "Not enough history to find energy windows yet.")
		return nil
	}
	for _, win := range windows {
		fmt.Fprintf(out, "%02d:00-%02d:59  %-6s  (confidence %.0f%%)\n",
			win.StartHour, win.EndHour, win.Level, win.Confidence*100)
	}
	return nil
}

func showEstimate(cmd *cobra.Command, args []string) error {
	a, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	ctx := cmd.Context()
	tasks, err := a.tasks.List(ctx, task.Filter{})
	if err != nil {
		return err
	}
	identifier := strings.Join(args, " ")
	matches := command.FindTasksByIdentifier(tasks, identifier)
	if len(matches) == 0 {
		return fmt.Errorf("no task matches %q", identifier)
	}
	t := matches[0].Task
	est, err := a.analytics.EstimateTaskTime(ctx, t)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	if jsonOutput {
		return printJSON(out, est)
	}
	fmt.Fprintf(out, "%q should take about %d min (confidence %.0f%%", t.Title, est.EstimatedMinutes, est.Confidence*100)
	if n := len(est.BasedOnSimilar); n > 0 {
		fmt.Fprintf(out, ", based on %d similar", n)
	}
	fmt.Fprintln(out, ").")
	return nil
}

func showRecommendations(cmd *cobra.Command, args []string) error {
	a, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	recs, err := a.assistant.Recommend(cmd.Context())
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	if jsonOutput {
		return printJSON(out, recs)
	}
	if len(recs) == 0 {
		fmt.Fprintln(out, "Nothing pending.")
		return nil
	}
	for i, r := range recs {
		fmt.Fprintf(out, "%d. %s [%d]", i+1, r.Task.Title, r.Score)
		if len(r.Reasons) > 0 {
			fmt.Fprintf(out, " - %s", strings.Join(r.Reasons, ", "))
		}
		fmt.Fprintln(out)
	}
	return nil
}

func showSummary(cmd *cobra.Command, args []string) error {
	a, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	ctx := cmd.Context()
	out := cmd.OutOrStdout()
	if jsonOutput {
		sum, err := a.analytics.Summary(ctx)
		if err != nil {
			return err
		}
		return printJSON(out, sum)
	}
	report, err := a.assistant.StatusReport(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintln(out, report)
	return nil
}
