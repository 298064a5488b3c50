// Package config provides configuration file support for taskhook.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/taskhook-project/taskhook/pkg/fsutil"
)

// Dir is the per-project taskhook directory name.
const Dir = ".taskhook"

// Config represents the taskhook configuration.
type Config struct {
	// TerminalStatus is the status value representing completion.
	TerminalStatus string `yaml:"terminal_status"`
	// TrackedDir is the repository subdirectory holding work-item documents.
	TrackedDir string        `yaml:"tracked_dir"`
	Audit      AuditConfig   `yaml:"audit"`
	Metrics    MetricsConfig `yaml:"metrics"`
	Health     HealthConfig  `yaml:"health"`
	Logging    LoggingConfig `yaml:"logging"`
}

// AuditConfig configures the append-only audit log.
type AuditConfig struct {
	// MaxSizeMB is the rotation threshold for the active log file.
	MaxSizeMB int `yaml:"max_size_mb"`
	// MaxBackups bounds the number of rotated generations retained.
	MaxBackups int `yaml:"max_backups"`
}

// MetricsConfig configures metrics aggregation.
type MetricsConfig struct {
	// Window is the fixed aggregation period, e.g. "24h".
	Window string `yaml:"window"`
}

// HealthConfig holds default thresholds for the health command.
type HealthConfig struct {
	// MinSuccessRate is the per-hook success rate below which health fails.
	MinSuccessRate float64 `yaml:"min_success_rate"`
	// NearTimeoutRatio warns when p95 duration exceeds this fraction of
	// the hook timeout.
	NearTimeoutRatio float64 `yaml:"near_timeout_ratio"`
}

// LoggingConfig configures logging behavior.
type LoggingConfig struct {
	Level string `yaml:"level"`
}

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		TerminalStatus: "Done",
		TrackedDir:     "tasks",
		Audit: AuditConfig{
			MaxSizeMB:  10,
			MaxBackups: 5,
		},
		Metrics: MetricsConfig{
			Window: "24h",
		},
		Health: HealthConfig{
			MinSuccessRate:   0.9,
			NearTimeoutRatio: 0.8,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// Load loads configuration from <projectRoot>/.taskhook/config.yaml.
// Returns default config if the file doesn't exist.
func Load(projectRoot string) (*Config, error) {
	cfg := Default()
	cfgPath := FilePath(projectRoot)

	data, err := os.ReadFile(cfgPath)
	if os.IsNotExist(err) {
		return cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	return cfg, nil
}

// Save writes configuration to <projectRoot>/.taskhook/config.yaml.
func Save(projectRoot string, cfg *Config) error {
	cfgPath := FilePath(projectRoot)

	if err := os.MkdirAll(filepath.Dir(cfgPath), 0o755); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	if err := fsutil.AtomicWrite(cfgPath, data, 0o644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}

	return nil
}

// FilePath returns the config file path for a project.
func FilePath(projectRoot string) string {
	return filepath.Join(projectRoot, Dir, "config.yaml")
}

// HooksPath returns the hook registry file path for a project.
func HooksPath(projectRoot string) string {
	return filepath.Join(projectRoot, Dir, "hooks.yaml")
}

// HooksBaseDir returns the directory hook scripts must resolve within.
func HooksBaseDir(projectRoot string) string {
	return filepath.Join(projectRoot, Dir, "hooks.d")
}

// AuditLogPath returns the active audit log path for a project.
func AuditLogPath(projectRoot string) string {
	return filepath.Join(projectRoot, Dir, "audit.jsonl")
}

// MetricsDir returns the metrics artifact directory for a project.
func MetricsDir(projectRoot string) string {
	return filepath.Join(projectRoot, Dir, "metrics")
}
