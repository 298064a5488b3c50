package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/taskhook-project/taskhook/internal/audit"
	"github.com/taskhook-project/taskhook/internal/detect"
	"github.com/taskhook-project/taskhook/internal/dispatch"
	"github.com/taskhook-project/taskhook/internal/emit"
	"github.com/taskhook-project/taskhook/internal/executor"
	"github.com/taskhook-project/taskhook/internal/parser"
	"github.com/taskhook-project/taskhook/internal/registry"
	"github.com/taskhook-project/taskhook/internal/store"
	"github.com/taskhook-project/taskhook/pkg/color"
	"github.com/taskhook-project/taskhook/pkg/config"
	"github.com/taskhook-project/taskhook/pkg/errclass"
)

var (
	runBefore    string
	runAfter     string
	runDirBefore string
	runDirAfter  string
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Detect work-item changes and run matching hooks",
	Long: `Detect work-item changes between two revisions and run matching hooks.

Compares the tracked directory at --before and --after (git revisions),
emits one event per detected change, and dispatches each event through
the hook registry. Every execution attempt is recorded in the audit log
before the command returns.

With --dir-before/--dir-after the snapshots are read from plain
directory trees instead of git, which is how editor integrations hand
over their own before/after copies.

Examples:
  taskhook run --before HEAD~1 --after HEAD
  taskhook run --dir-before /tmp/pre --dir-after /tmp/post`,
	Run: func(cmd *cobra.Command, args []string) {
		root, cfg := requireProject()

		beforeDocs, afterDocs := loadSnapshots(root, cfg)

		before := parser.ParseSet(beforeDocs)
		after := parser.ParseSet(afterDocs)

		deltas := detect.NewDetector(cfg.TerminalStatus).Detect(before, after)
		events := emit.NewEmitter(Version).Emit(deltas)

		reg, err := registry.Load(config.HooksPath(root))
		if err != nil {
			fmtErr("hook registry: %v", err)
			os.Exit(1)
		}

		exec := executor.New(root, config.HooksBaseDir(root))
		exec.Shell = reg.Defaults.Shell

		sink := audit.NewFileAppender(config.AuditLogPath(root), cfg.Audit.MaxSizeMB, cfg.Audit.MaxBackups)
		defer sink.Close()

		summary, dispatchErr := dispatch.NewDispatcher(reg, exec, sink, Version).Dispatch(events)

		if jsonOutput {
			outputJSON(summary)
		} else {
			printSummary(summary, len(deltas))
		}

		if dispatchErr != nil {
			if errors.Is(dispatchErr, errclass.ErrHookBlocked) {
				fmtErr("%v", dispatchErr)
				os.Exit(1)
			}
			fmtErr("dispatch: %v", dispatchErr)
			os.Exit(1)
		}
	},
}

// loadSnapshots reads the tracked documents at both revisions, from git
// or from explicit directory trees.
func loadSnapshots(root string, cfg *config.Config) (map[string]string, map[string]string) {
	if runDirBefore != "" || runDirAfter != "" {
		if runDirBefore == "" || runDirAfter == "" {
			fmtErr("--dir-before and --dir-after must be given together")
			os.Exit(1)
		}
		before, err := store.NewDirStore(runDirBefore).Documents("")
		if err != nil {
			fmtErr("read before tree: %v", err)
			os.Exit(1)
		}
		after, err := store.NewDirStore(runDirAfter).Documents("")
		if err != nil {
			fmtErr("read after tree: %v", err)
			os.Exit(1)
		}
		return before, after
	}

	s := store.NewGitStore(root, cfg.TrackedDir)
	before, err := s.Documents(runBefore)
	if err != nil {
		fmtErr("revision %s: %v", runBefore, err)
		os.Exit(1)
	}
	after, err := s.Documents(runAfter)
	if err != nil {
		fmtErr("revision %s: %v", runAfter, err)
		os.Exit(1)
	}
	return before, after
}

func printSummary(s *dispatch.Summary, deltas int) {
	if s.Events == 0 {
		fmt.Println("No changes detected.")
		return
	}
	fmt.Printf("%d change(s), %d event(s), %d hook(s) matched\n", deltas, s.Events, s.Matched)
	fmt.Printf("  executed: %d  succeeded: %s  failed: %s  blocked: %d\n",
		s.Executed,
		color.Success(fmt.Sprintf("%d", s.Succeeded)),
		color.Error(fmt.Sprintf("%d", s.Failed)),
		s.Blocked)
}

func init() {
	runCmd.Flags().StringVar(&runBefore, "before", "HEAD~1", "revision before the change")
	runCmd.Flags().StringVar(&runAfter, "after", "HEAD", "revision after the change")
	runCmd.Flags().StringVar(&runDirBefore, "dir-before", "", "directory tree before the change (bypasses git)")
	runCmd.Flags().StringVar(&runDirAfter, "dir-after", "", "directory tree after the change (bypasses git)")
	rootCmd.AddCommand(runCmd)
}
