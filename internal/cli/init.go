package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/taskhook-project/taskhook/pkg/config"
)

const sampleHooks = `# Hook registry. Hooks run in declaration order.
defaults:
  timeout: 30s
  shell: /bin/sh
  fail_mode: continue

hooks: []
  # - name: notify-completed
  #   matchers: ["task.completed"]
  #   action:
  #     script: notify.sh
`

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize a taskhook project in the current directory",
	Long: `Initialize a taskhook project.

Creates the .taskhook directory with a default config.yaml, an empty
hook registry, and the hooks.d script directory.`,
	Run: func(cmd *cobra.Command, args []string) {
		cwd, err := os.Getwd()
		if err != nil {
			fmtErr("cannot get current directory: %v", err)
			os.Exit(1)
		}

		dir := filepath.Join(cwd, config.Dir)
		if _, err := os.Stat(dir); err == nil {
			fmtErr("already initialized: %s exists", dir)
			os.Exit(1)
		}

		if err := config.Save(cwd, config.Default()); err != nil {
			fmtErr("write config: %v", err)
			os.Exit(1)
		}
		if err := os.MkdirAll(config.HooksBaseDir(cwd), 0o755); err != nil {
			fmtErr("create hooks.d: %v", err)
			os.Exit(1)
		}
		if err := os.WriteFile(config.HooksPath(cwd), []byte(sampleHooks), 0o644); err != nil {
			fmtErr("write hooks.yaml: %v", err)
			os.Exit(1)
		}

		if jsonOutput {
			outputJSON(map[string]string{"root": cwd, "dir": dir})
			return
		}
		fmt.Printf("Initialized taskhook project in %s\n", dir)
	},
}

func init() {
	rootCmd.AddCommand(initCmd)
}
