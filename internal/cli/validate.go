package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/taskhook-project/taskhook/internal/registry"
	"github.com/taskhook-project/taskhook/pkg/color"
	"github.com/taskhook-project/taskhook/pkg/config"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate the hook registry",
	Long: `Validate the hook registry.

Checks hooks.yaml structure, matcher syntax, timeouts, fail modes, and
that every script reference resolves to an existing file inside
.taskhook/hooks.d. Exits non-zero on the first class of problem found.`,
	Run: func(cmd *cobra.Command, args []string) {
		root, _ := requireProject()

		reg, err := registry.Load(config.HooksPath(root))
		if err != nil {
			if jsonOutput {
				outputJSON(map[string]any{"valid": false, "errors": []string{err.Error()}})
			} else {
				fmtErr("%v", err)
			}
			os.Exit(1)
		}

		errs := reg.Validate(config.HooksBaseDir(root))
		if len(errs) > 0 {
			if jsonOutput {
				msgs := make([]string, len(errs))
				for i, e := range errs {
					msgs[i] = e.Error()
				}
				outputJSON(map[string]any{"valid": false, "errors": msgs})
			} else {
				for _, e := range errs {
					fmtErr("%v", e)
				}
			}
			os.Exit(1)
		}

		if jsonOutput {
			outputJSON(map[string]any{"valid": true, "hooks": len(reg.Hooks)})
			return
		}
		fmt.Printf("%s: %d hook(s)\n", color.Success("registry OK"), len(reg.Hooks))
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)
}
