package cli

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taskhook-project/taskhook/pkg/config"
)

func TestDiscoverRoot(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, config.Dir), 0o755))
	nested := filepath.Join(root, "a", "b")
	require.NoError(t, os.MkdirAll(nested, 0o755))

	found, err := discoverRoot(nested)
	require.NoError(t, err)
	assert.Equal(t, root, found)
}

func TestDiscoverRoot_NotAProject(t *testing.T) {
	_, err := discoverRoot(t.TempDir())
	require.Error(t, err)
}

func TestCommandsRegistered(t *testing.T) {
	want := []string{"run", "audit", "metrics", "validate", "health", "init", "version"}
	have := map[string]bool{}
	for _, c := range rootCmd.Commands() {
		have[c.Name()] = true
	}
	for _, name := range want {
		assert.True(t, have[name], "command %s not registered", name)
	}
}
