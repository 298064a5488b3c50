package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/taskhook-project/taskhook/pkg/color"
	"github.com/taskhook-project/taskhook/pkg/config"
	"github.com/taskhook-project/taskhook/pkg/logging"
)

// discoverRoot walks up from dir looking for a .taskhook directory.
func discoverRoot(dir string) (string, error) {
	for {
		info, err := os.Stat(filepath.Join(dir, config.Dir))
		if err == nil && info.IsDir() {
			return dir, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", fmt.Errorf("no %s directory found in %s or any parent", config.Dir, dir)
		}
		dir = parent
	}
}

// requireProject discovers the project root from CWD, loads its config,
// and applies the configured log level. Exits on failure.
func requireProject() (string, *config.Config) {
	cwd, err := os.Getwd()
	if err != nil {
		fmtErr("cannot get current directory: %v", err)
		os.Exit(1)
	}
	root, err := discoverRoot(cwd)
	if err != nil {
		fmtErr("not a taskhook project: %v", err)
		fmt.Fprintln(os.Stderr, "run 'taskhook init' to create one")
		os.Exit(1)
	}
	cfg, err := config.Load(root)
	if err != nil {
		fmtErr("load config: %v", err)
		os.Exit(1)
	}
	logging.SetGlobal(logging.NewLogger(logging.Level(cfg.Logging.Level)))
	return root, cfg
}

func fmtErr(format string, args ...any) {
	prefix := "taskhook: "
	if color.Enabled() {
		prefix = color.Error("taskhook:") + " "
	}
	fmt.Fprintf(os.Stderr, prefix+format+"\n", args...)
}
