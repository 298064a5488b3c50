package store

import (
	"bytes"
	"fmt"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/taskhook-project/taskhook/pkg/errclass"
)

// GitStore reads documents out of a git repository at a given revision,
// restricted to the tracked subdirectory.
type GitStore struct {
	RepoRoot   string
	TrackedDir string
}

// NewGitStore creates a GitStore for repoRoot, listing files under
// trackedDir (repo-relative).
func NewGitStore(repoRoot, trackedDir string) *GitStore {
	return &GitStore{RepoRoot: repoRoot, TrackedDir: trackedDir}
}

// Documents returns (path, content) for every tracked file at rev.
// The empty-tree case (rev predates the tracked dir) yields an empty map.
func (s *GitStore) Documents(rev string) (map[string]string, error) {
	if rev == "" {
		return nil, errclass.ErrRevisionUnknown.WithMessage("empty revision")
	}

	paths, err := s.listFiles(rev)
	if err != nil {
		return nil, err
	}

	docs := make(map[string]string, len(paths))
	for _, p := range paths {
		content, err := s.show(rev, p)
		if err != nil {
			return nil, err
		}
		docs[p] = content
	}
	return docs, nil
}

func (s *GitStore) listFiles(rev string) ([]string, error) {
	out, err := s.git("ls-tree", "-r", "--name-only", rev, "--", s.TrackedDir)
	if err != nil {
		return nil, errclass.ErrRevisionUnknown.WithMessagef("list files at %s: %v", rev, err)
	}

	var paths []string
	for _, line := range strings.Split(strings.TrimSpace(out), "\n") {
		if line == "" {
			continue
		}
		paths = append(paths, filepath.FromSlash(line))
	}
	return paths, nil
}

func (s *GitStore) show(rev, path string) (string, error) {
	out, err := s.git("show", rev+":"+filepath.ToSlash(path))
	if err != nil {
		return "", fmt.Errorf("show %s at %s: %w", path, rev, err)
	}
	return out, nil
}

func (s *GitStore) git(args ...string) (string, error) {
	cmd := exec.Command("git", args...)
	cmd.Dir = s.RepoRoot

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("git %s: %v: %s", strings.Join(args, " "), err, strings.TrimSpace(stderr.String()))
	}
	return stdout.String(), nil
}
