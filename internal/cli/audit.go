package cli

import (
	"fmt"
	"os"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/taskhook-project/taskhook/internal/audit"
	"github.com/taskhook-project/taskhook/pkg/color"
	"github.com/taskhook-project/taskhook/pkg/config"
	"github.com/taskhook-project/taskhook/pkg/model"
)

var (
	auditHook   string
	auditEvent  string
	auditStatus string
	auditSince  time.Duration
	auditTail   int
	auditVerify bool
)

var auditCmd = &cobra.Command{
	Use:   "audit",
	Short: "Query or verify the hook execution audit log",
	Long: `Query or verify the hook execution audit log.

Lists execution records oldest first, filtered by hook name, event type,
status, or age. With --verify, recomputes the record hash chain and
reports the first tampered or broken link.

Examples:
  taskhook audit --tail 20
  taskhook audit --hook notify --status failed
  taskhook audit --since 24h
  taskhook audit --verify`,
	Run: func(cmd *cobra.Command, args []string) {
		root, _ := requireProject()
		reader := audit.NewReader(config.AuditLogPath(root))

		if auditVerify {
			runAuditVerify(reader)
			return
		}

		var records []model.HookExecutionRecord
		var err error
		if auditTail > 0 {
			records, err = reader.Tail(auditTail)
		} else {
			f := audit.Filter{
				HookName:  auditHook,
				EventType: auditEvent,
				Status:    auditStatus,
			}
			if auditSince > 0 {
				f.Since = time.Now().Add(-auditSince)
			}
			records, err = reader.List(f)
		}
		if err != nil {
			fmtErr("audit: %v", err)
			os.Exit(1)
		}

		if jsonOutput {
			outputJSON(records)
			return
		}

		if len(records) == 0 {
			fmt.Println("No audit records.")
			return
		}

		tw := table.NewWriter()
		tw.SetOutputMirror(os.Stdout)
		tw.AppendHeader(table.Row{"Time", "Hook", "Event", "Task", "Status", "Exit", "Duration"})
		for _, rec := range records {
			tw.AppendRow(table.Row{
				rec.StartedAt.Format(time.RFC3339),
				rec.HookName,
				rec.EventType,
				rec.TaskID,
				color.Status(string(rec.Status)),
				rec.ExitCode,
				rec.Duration.Round(time.Millisecond),
			})
		}
		tw.Render()
	},
}

func runAuditVerify(reader *audit.Reader) {
	idx, err := reader.Verify()
	if err != nil {
		if jsonOutput {
			outputJSON(map[string]any{"valid": false, "first_bad_record": idx, "error": err.Error()})
		} else {
			fmtErr("audit chain broken at record %d: %v", idx, err)
		}
		os.Exit(1)
	}
	if jsonOutput {
		outputJSON(map[string]any{"valid": true})
		return
	}
	fmt.Println(color.Success("audit chain OK"))
}

func init() {
	auditCmd.Flags().StringVar(&auditHook, "hook", "", "filter by hook name")
	auditCmd.Flags().StringVar(&auditEvent, "event", "", "filter by event type")
	auditCmd.Flags().StringVar(&auditStatus, "status", "", "filter by execution status")
	auditCmd.Flags().DurationVar(&auditSince, "since", 0, "only records newer than this age, e.g. 24h")
	auditCmd.Flags().IntVar(&auditTail, "tail", 0, "show only the last N records")
	auditCmd.Flags().BoolVar(&auditVerify, "verify", false, "verify the record hash chain")
	rootCmd.AddCommand(auditCmd)
}
