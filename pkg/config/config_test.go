package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_MissingFileReturnsDefaults(t *testing.T) {
	root := t.TempDir()

	cfg, err := Load(root)
	require.NoError(t, err)
	assert.Equal(t, "Done", cfg.TerminalStatus)
	assert.Equal(t, 10, cfg.Audit.MaxSizeMB)
	assert.Equal(t, 5, cfg.Audit.MaxBackups)
	assert.Equal(t, "24h", cfg.Metrics.Window)
}

func TestLoad_OverridesDefaults(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, Dir), 0o755))
	yaml := "terminal_status: Shipped\naudit:\n  max_backups: 2\n"
	require.NoError(t, os.WriteFile(filepath.Join(root, Dir, "config.yaml"), []byte(yaml), 0o644))

	cfg, err := Load(root)
	require.NoError(t, err)
	assert.Equal(t, "Shipped", cfg.TerminalStatus)
	assert.Equal(t, 2, cfg.Audit.MaxBackups)
	// Untouched fields keep defaults.
	assert.Equal(t, 10, cfg.Audit.MaxSizeMB)
}

func TestLoad_MalformedYAML(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, Dir), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, Dir, "config.yaml"), []byte("{{nope"), 0o644))

	_, err := Load(root)
	require.Error(t, err)
}

func TestSaveRoundTrip(t *testing.T) {
	root := t.TempDir()
	cfg := Default()
	cfg.TerminalStatus = "Closed"
	require.NoError(t, Save(root, cfg))

	loaded, err := Load(root)
	require.NoError(t, err)
	assert.Equal(t, "Closed", loaded.TerminalStatus)
}

func TestProjectPaths(t *testing.T) {
	assert.Equal(t, filepath.Join("/repo", Dir, "hooks.yaml"), HooksPath("/repo"))
	assert.Equal(t, filepath.Join("/repo", Dir, "hooks.d"), HooksBaseDir("/repo"))
	assert.Equal(t, filepath.Join("/repo", Dir, "audit.jsonl"), AuditLogPath("/repo"))
}
