package store_test

import (
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taskhook-project/taskhook/internal/store"
)

func TestDirStore_Documents(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "sub"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "task-001.md"), []byte("# task-001\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "sub", "task-002.md"), []byte("# task-002\n"), 0o644))

	docs, err := store.NewDirStore(dir).Documents("")
	require.NoError(t, err)
	require.Len(t, docs, 2)
	assert.Equal(t, "# task-001\n", docs["task-001.md"])
	assert.Equal(t, "# task-002\n", docs[filepath.Join("sub", "task-002.md")])
}

func TestDirStore_MissingDirIsEmpty(t *testing.T) {
	docs, err := store.NewDirStore(filepath.Join(t.TempDir(), "absent")).Documents("")
	require.NoError(t, err)
	assert.Empty(t, docs)
}

func initGitRepo(t *testing.T) string {
	t.Helper()
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git not available")
	}
	root := t.TempDir()
	for _, args := range [][]string{
		{"init", "-q"},
		{"config", "user.email", "test@example.com"},
		{"config", "user.name", "test"},
	} {
		cmd := exec.Command("git", args...)
		cmd.Dir = root
		require.NoError(t, cmd.Run(), "git %v", args)
	}
	return root
}

func commitAll(t *testing.T, root, msg string) {
	t.Helper()
	for _, args := range [][]string{
		{"add", "-A"},
		{"commit", "-q", "-m", msg, "--allow-empty"},
	} {
		cmd := exec.Command("git", args...)
		cmd.Dir = root
		require.NoError(t, cmd.Run(), "git %v", args)
	}
}

func TestGitStore_DocumentsAtRevisions(t *testing.T) {
	root := initGitRepo(t)
	tasks := filepath.Join(root, "tasks")
	require.NoError(t, os.MkdirAll(tasks, 0o755))

	require.NoError(t, os.WriteFile(filepath.Join(tasks, "task-001.md"),
		[]byte("# task-001\n\n**Status:** To Do\n"), 0o644))
	commitAll(t, root, "add task-001")

	require.NoError(t, os.WriteFile(filepath.Join(tasks, "task-001.md"),
		[]byte("# task-001\n\n**Status:** Done\n"), 0o644))
	commitAll(t, root, "finish task-001")

	s := store.NewGitStore(root, "tasks")

	before, err := s.Documents("HEAD~1")
	require.NoError(t, err)
	assert.Contains(t, before[filepath.Join("tasks", "task-001.md")], "To Do")

	after, err := s.Documents("HEAD")
	require.NoError(t, err)
	assert.Contains(t, after[filepath.Join("tasks", "task-001.md")], "Done")
}

func TestGitStore_UnknownRevision(t *testing.T) {
	root := initGitRepo(t)
	commitAll(t, root, "empty")

	s := store.NewGitStore(root, "tasks")
	_, err := s.Documents("no-such-rev")
	require.Error(t, err)
}
