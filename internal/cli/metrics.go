package cli

import (
	"fmt"
	"os"
	"sort"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/taskhook-project/taskhook/internal/audit"
	"github.com/taskhook-project/taskhook/internal/metrics"
	"github.com/taskhook-project/taskhook/pkg/config"
	"github.com/taskhook-project/taskhook/pkg/model"
)

var (
	metricsWindow string
	metricsTrend  bool
	metricsWrite  bool
)

var metricsCmd = &cobra.Command{
	Use:   "metrics",
	Short: "Aggregate hook execution metrics from the audit log",
	Long: `Aggregate hook execution metrics from the audit log.

Rebuilds the current fixed-period window from audit records: execution
counters per hook and per event type, and exact p50/p95/p99 durations.
Identical audit logs always produce identical numbers.

Examples:
  taskhook metrics
  taskhook metrics --window 1h
  taskhook metrics --trend            # compare against the previous window
  taskhook metrics --write            # persist the window as a JSON artifact`,
	Run: func(cmd *cobra.Command, args []string) {
		root, cfg := requireProject()

		windowStr := metricsWindow
		if windowStr == "" {
			windowStr = cfg.Metrics.Window
		}
		window, err := time.ParseDuration(windowStr)
		if err != nil {
			fmtErr("invalid window %q: %v", windowStr, err)
			os.Exit(1)
		}

		agg := metrics.NewAggregator(audit.NewReader(config.AuditLogPath(root)), window)
		now := time.Now()

		if metricsTrend {
			trend, err := agg.TrendAt(now)
			if err != nil {
				fmtErr("metrics: %v", err)
				os.Exit(1)
			}
			if jsonOutput {
				outputJSON(trend)
				return
			}
			printWindow(trend.Current)
			fmt.Printf("\nSuccess rate vs previous window: %+.1f%%\n", trend.SuccessRateDelta*100)
			return
		}

		w, err := agg.Current(now)
		if err != nil {
			fmtErr("metrics: %v", err)
			os.Exit(1)
		}

		if metricsWrite {
			path, err := metrics.WriteArtifact(config.MetricsDir(root), w)
			if err != nil {
				fmtErr("write artifact: %v", err)
				os.Exit(1)
			}
			if !jsonOutput {
				fmt.Printf("Wrote %s\n", path)
			}
		}

		if jsonOutput {
			outputJSON(w)
			return
		}
		printWindow(w)
	},
}

func printWindow(w *model.MetricsWindow) {
	fmt.Printf("Window %s .. %s\n",
		w.PeriodStart.Format(time.RFC3339), w.PeriodEnd.Format(time.RFC3339))

	tw := table.NewWriter()
	tw.SetOutputMirror(os.Stdout)
	tw.AppendHeader(table.Row{"Hook", "Exec", "OK", "Fail", "Timeout", "Err", "Viol", "p50", "p95", "p99"})
	tw.AppendRow(statsRow("(all)", w.Global))
	names := make([]string, 0, len(w.ByHook))
	for name := range w.ByHook {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		tw.AppendRow(statsRow(name, *w.ByHook[name]))
	}
	tw.Render()
}

func statsRow(name string, s model.ExecStats) table.Row {
	return table.Row{
		name, s.Executions, s.Successes, s.Failures, s.Timeouts, s.Errors, s.Violations,
		s.Durations.P50.Round(time.Millisecond),
		s.Durations.P95.Round(time.Millisecond),
		s.Durations.P99.Round(time.Millisecond),
	}
}

func init() {
	metricsCmd.Flags().StringVar(&metricsWindow, "window", "", "aggregation window, e.g. 24h (default from config)")
	metricsCmd.Flags().BoolVar(&metricsTrend, "trend", false, "compare against the previous window")
	metricsCmd.Flags().BoolVar(&metricsWrite, "write", false, "persist the window under .taskhook/metrics/")
	rootCmd.AddCommand(metricsCmd)
}
