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
	"github.com/taskhook-project/taskhook/internal/registry"
	"github.com/taskhook-project/taskhook/pkg/color"
	"github.com/taskhook-project/taskhook/pkg/config"
)

var (
	healthMinSuccessRate   float64
	healthNearTimeoutRatio float64
)

// hookHealth is the per-hook health verdict over the current window.
type hookHealth struct {
	Hook        string        `json:"hook"`
	Executions  int           `json:"executions"`
	SuccessRate float64       `json:"success_rate"`
	P95         time.Duration `json:"p95_ns"`
	Timeout     time.Duration `json:"timeout_ns,omitempty"`
	NearTimeout bool          `json:"near_timeout"`
	Healthy     bool          `json:"healthy"`
}

var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Report per-hook health over the current metrics window",
	Long: `Report per-hook health over the current metrics window.

A hook is unhealthy when its success rate drops below the configured
minimum, and flagged near-timeout when its p95 duration exceeds the
configured fraction of its timeout. Exits non-zero if any hook is
unhealthy.`,
	Run: func(cmd *cobra.Command, args []string) {
		root, cfg := requireProject()

		if cmd.Flags().Changed("min-success-rate") {
			cfg.Health.MinSuccessRate = healthMinSuccessRate
		}
		if cmd.Flags().Changed("near-timeout-ratio") {
			cfg.Health.NearTimeoutRatio = healthNearTimeoutRatio
		}

		window, err := time.ParseDuration(cfg.Metrics.Window)
		if err != nil {
			fmtErr("invalid metrics window %q: %v", cfg.Metrics.Window, err)
			os.Exit(1)
		}

		agg := metrics.NewAggregator(audit.NewReader(config.AuditLogPath(root)), window)
		w, err := agg.Current(time.Now())
		if err != nil {
			fmtErr("health: %v", err)
			os.Exit(1)
		}

		// Timeouts come from the registry; hooks removed since the window
		// started simply have no configured timeout to compare against.
		timeouts := map[string]time.Duration{}
		if reg, err := registry.Load(config.HooksPath(root)); err == nil {
			for _, h := range reg.Hooks {
				timeouts[h.Name] = h.Timeout
			}
		}

		names := make([]string, 0, len(w.ByHook))
		for name := range w.ByHook {
			names = append(names, name)
		}
		sort.Strings(names)

		allHealthy := true
		report := make([]hookHealth, 0, len(names))
		for _, name := range names {
			s := w.ByHook[name]
			h := hookHealth{
				Hook:        name,
				Executions:  s.Executions,
				SuccessRate: s.SuccessRate(),
				P95:         s.Durations.P95,
				Timeout:     timeouts[name],
				Healthy:     s.SuccessRate() >= cfg.Health.MinSuccessRate,
			}
			if h.Timeout > 0 {
				h.NearTimeout = float64(h.P95) > cfg.Health.NearTimeoutRatio*float64(h.Timeout)
			}
			if !h.Healthy {
				allHealthy = false
			}
			report = append(report, h)
		}

		if jsonOutput {
			outputJSON(map[string]any{"healthy": allHealthy, "hooks": report})
		} else {
			printHealth(report, allHealthy)
		}

		if !allHealthy {
			os.Exit(1)
		}
	},
}

func printHealth(report []hookHealth, allHealthy bool) {
	if len(report) == 0 {
		fmt.Println("No hook executions in the current window.")
		return
	}

	tw := table.NewWriter()
	tw.SetOutputMirror(os.Stdout)
	tw.AppendHeader(table.Row{"Hook", "Exec", "Success Rate", "p95", "Near Timeout", "Healthy"})
	for _, h := range report {
		verdict := color.Success("yes")
		if !h.Healthy {
			verdict = color.Error("NO")
		}
		near := ""
		if h.NearTimeout {
			near = color.Warning(fmt.Sprintf("p95 %v vs timeout %v", h.P95.Round(time.Millisecond), h.Timeout))
		}
		tw.AppendRow(table.Row{
			h.Hook, h.Executions,
			fmt.Sprintf("%.1f%%", h.SuccessRate*100),
			h.P95.Round(time.Millisecond),
			near, verdict,
		})
	}
	tw.Render()

	if !allHealthy {
		fmt.Println(color.Error("one or more hooks are unhealthy"))
	}
}

func init() {
	healthCmd.Flags().Float64Var(&healthMinSuccessRate, "min-success-rate", 0.9, "success rate below which a hook is unhealthy")
	healthCmd.Flags().Float64Var(&healthNearTimeoutRatio, "near-timeout-ratio", 0.8, "flag hooks whose p95 exceeds this fraction of their timeout")
	rootCmd.AddCommand(healthCmd)
}
